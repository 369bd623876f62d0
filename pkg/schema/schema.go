package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/bigquery"
	"github.com/pingcap-inc/file2bq/pkg/errno"
	"github.com/pingcap/errors"
)

type Mode string

const (
	ModeNullable Mode = "NULLABLE"
	ModeRequired Mode = "REQUIRED"
	ModeRepeated Mode = "REPEATED"
)

func parseMode(s string) (Mode, error) {
	switch Mode(strings.ToUpper(strings.TrimSpace(s))) {
	case "", ModeNullable:
		return ModeNullable, nil
	case ModeRequired:
		return ModeRequired, nil
	case ModeRepeated:
		return ModeRepeated, nil
	}
	return "", errors.Errorf("unknown mode %q", s)
}

// ColumnSpec describes one column of a table.
type ColumnSpec struct {
	Name        string
	Type        string
	Mode        Mode
	Description string
}

// Description is the ordered column list of a table. Column order is kept
// as written in the schema document.
type Description []ColumnSpec

func (d Description) Names() []string {
	names := make([]string, 0, len(d))
	for _, col := range d {
		names = append(names, col.Name)
	}
	return names
}

// BigQuerySchema converts the description into BigQuery field schemas. Type
// tags are passed through; BigQuery rejects unknown types on table creation.
func (d Description) BigQuerySchema() bigquery.Schema {
	s := make(bigquery.Schema, 0, len(d))
	for _, col := range d {
		s = append(s, &bigquery.FieldSchema{
			Name:        col.Name,
			Type:        bigquery.FieldType(col.Type),
			Required:    col.Mode == ModeRequired,
			Repeated:    col.Mode == ModeRepeated,
			Description: col.Description,
		})
	}
	return s
}

type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// Source is a raw schema document.
type Source struct {
	Data   []byte
	Format Format
}

// ReadSource reads a schema document from path. Files ending in .yaml or
// .yml are YAML, anything else is JSON.
func ReadSource(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Annotatef(err, "failed to read schema file %s", path)
	}
	format := FormatJSON
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = FormatYAML
	}
	return &Source{Data: data, Format: format}, nil
}

// Translate parses src and returns its column description.
func Translate(src *Source) (Description, error) {
	if src == nil {
		return nil, errno.ErrSchemaParse.GenWithStackByArgs("no schema document")
	}
	switch src.Format {
	case FormatYAML:
		return ParseYAML(src.Data)
	default:
		return ParseJSON(src.Data)
	}
}

// builder accumulates columns and enforces the per-column rules shared by
// every document format.
type builder struct {
	desc Description
	seen map[string]struct{}
}

func newBuilder() *builder {
	return &builder{seen: make(map[string]struct{})}
}

func (b *builder) add(name, tp, mode, description string, hasType bool) error {
	if name == "" {
		return errno.ErrSchemaParse.GenWithStackByArgs("empty column name")
	}
	if _, ok := b.seen[name]; ok {
		return errno.ErrSchemaParse.GenWithStackByArgs(fmt.Sprintf("duplicate column %q", name))
	}
	if !hasType || strings.TrimSpace(tp) == "" {
		return errno.ErrSchemaParse.GenWithStackByArgs(fmt.Sprintf("column %q has no type", name))
	}
	m, err := parseMode(mode)
	if err != nil {
		return errno.ErrSchemaParse.GenWithStackByArgs(fmt.Sprintf("column %q: %v", name, err))
	}
	b.seen[name] = struct{}{}
	b.desc = append(b.desc, ColumnSpec{
		Name:        name,
		Type:        strings.ToUpper(strings.TrimSpace(tp)),
		Mode:        m,
		Description: description,
	})
	return nil
}

func (b *builder) result() (Description, error) {
	if len(b.desc) == 0 {
		return nil, errno.ErrSchemaParse.GenWithStackByArgs("schema has no columns")
	}
	return b.desc, nil
}

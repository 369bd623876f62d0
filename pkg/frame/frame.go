package frame

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pingcap-inc/file2bq/pkg/errno"
	"github.com/pingcap/errors"
)

// Kind is the value type of a frame column.
type Kind int

const (
	KindString Kind = iota
	KindInteger
	KindFloat
	KindBoolean
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindBoolean:
		return "boolean"
	default:
		return "string"
	}
}

type Column struct {
	Name string
	Kind Kind
}

// Frame is an in-memory table with named, typed columns. Cells hold int64,
// float64, bool, string or nil for empty cells.
type Frame struct {
	Columns []Column
	Rows    [][]interface{}
}

func (f *Frame) NumRows() int {
	return len(f.Rows)
}

func (f *Frame) ColumnNames() []string {
	names := make([]string, 0, len(f.Columns))
	for _, col := range f.Columns {
		names = append(names, col.Name)
	}
	return names
}

// New builds a frame from a header row and textual records. Each column gets
// the narrowest kind that all of its non-empty cells parse as.
func New(header []string, records [][]string) (*Frame, error) {
	if len(header) == 0 {
		return nil, errno.ErrInvalidFrame.GenWithStackByArgs("missing header row")
	}
	columns := make([]Column, 0, len(header))
	seen := make(map[string]struct{}, len(header))
	for i, h := range header {
		name := normalizeHeader(h)
		if name == "" {
			return nil, errno.ErrInvalidFrame.GenWithStackByArgs(fmt.Sprintf("column %d has an empty header", i+1))
		}
		if _, ok := seen[name]; ok {
			return nil, errno.ErrInvalidFrame.GenWithStackByArgs(fmt.Sprintf("duplicate column %q", name))
		}
		seen[name] = struct{}{}
		columns = append(columns, Column{Name: name})
	}

	cells := make([][]string, 0, len(records))
	for i, record := range records {
		if isBlank(record) {
			continue
		}
		if len(record) > len(columns) {
			return nil, errno.ErrInvalidFrame.GenWithStackByArgs(
				fmt.Sprintf("row %d has %d fields, header has %d", i+1, len(record), len(columns)))
		}
		row := make([]string, len(columns))
		copy(row, record)
		cells = append(cells, row)
	}

	for c := range columns {
		columns[c].Kind = columnKind(cells, c)
	}
	rows := make([][]interface{}, 0, len(cells))
	for _, record := range cells {
		row := make([]interface{}, len(columns))
		for c, col := range columns {
			row[c] = convert(cellText(record[c]), col.Kind)
		}
		rows = append(rows, row)
	}
	return &Frame{Columns: columns, Rows: rows}, nil
}

// normalizeHeader trims the header and replaces inner spaces with
// underscores so it can be used as a BigQuery column name.
func normalizeHeader(h string) string {
	h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	return strings.Join(strings.Fields(h), "_")
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func columnKind(cells [][]string, c int) Kind {
	isInt, isFloat, isBool := true, true, true
	nonEmpty := 0
	for _, row := range cells {
		v := cellText(row[c])
		if v == "" {
			continue
		}
		nonEmpty++
		if isInt {
			if _, ok := parseInt(v); !ok {
				isInt = false
			}
		}
		if isFloat {
			if _, ok := parseFloat(v); !ok {
				isFloat = false
			}
		}
		if isBool {
			if _, err := strconv.ParseBool(v); err != nil || isBinaryDigit(v) {
				isBool = false
			}
		}
	}
	switch {
	case nonEmpty == 0:
		return KindString
	case isInt:
		return KindInteger
	case isFloat:
		return KindFloat
	case isBool:
		return KindBoolean
	default:
		return KindString
	}
}

// missingMarkers are cell values read as empty, like a dataframe reader does.
var missingMarkers = map[string]struct{}{
	"NaN": {}, "nan": {}, "-NaN": {}, "-nan": {},
}

// cellText trims a cell and maps missing markers to "".
func cellText(v string) string {
	v = strings.TrimSpace(v)
	if _, ok := missingMarkers[v]; ok {
		return ""
	}
	return v
}

// parseInt accepts plain decimal integers only.
func parseInt(v string) (int64, bool) {
	if strings.ContainsRune(v, '_') {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	return n, err == nil
}

// parseFloat accepts finite decimal numbers. Digit separators and the
// Inf/Infinity words stay text; JSON cannot encode non-finite floats.
func parseFloat(v string) (float64, bool) {
	if strings.ContainsRune(v, '_') {
		return 0, false
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsInf(n, 0) || math.IsNaN(n) {
		return 0, false
	}
	return n, true
}

// isBinaryDigit keeps 0/1 columns numeric rather than boolean.
func isBinaryDigit(v string) bool {
	return v == "0" || v == "1"
}

func convert(v string, kind Kind) interface{} {
	if v == "" {
		return nil
	}
	switch kind {
	case KindInteger:
		n, _ := parseInt(v)
		return n
	case KindFloat:
		n, _ := parseFloat(v)
		return n
	case KindBoolean:
		b, _ := strconv.ParseBool(v)
		return b
	default:
		return v
	}
}

// WriteNDJSON writes one JSON object per row with keys in column order.
// Nil cells are omitted so the warehouse loads them as NULL.
func (f *Frame) WriteNDJSON(w io.Writer) error {
	bw := bufio.NewWriter(w)
	keys := make([][]byte, len(f.Columns))
	for i, col := range f.Columns {
		k, err := json.Marshal(col.Name)
		if err != nil {
			return errors.Trace(err)
		}
		keys[i] = k
	}
	for _, row := range f.Rows {
		bw.WriteByte('{')
		first := true
		for i, v := range row {
			if v == nil {
				continue
			}
			val, err := json.Marshal(v)
			if err != nil {
				return errors.Annotatef(err, "failed to encode column %s", f.Columns[i].Name)
			}
			if !first {
				bw.WriteByte(',')
			}
			first = false
			bw.Write(keys[i])
			bw.WriteByte(':')
			bw.Write(val)
		}
		bw.WriteString("}\n")
	}
	return errors.Trace(bw.Flush())
}

package loader

import (
	"bytes"
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pingcap-inc/file2bq/pkg/coreinterfaces"
	"github.com/pingcap-inc/file2bq/pkg/errno"
	"github.com/pingcap-inc/file2bq/pkg/frame"
	"github.com/pingcap-inc/file2bq/pkg/metrics"
	"github.com/pingcap-inc/file2bq/pkg/registry"
	"github.com/pingcap-inc/file2bq/pkg/schema"
	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"gitlab.com/tymonx/go-formatter/formatter"
	"go.uber.org/zap"
)

// Loader creates a table and loads its first and only batch of data. It
// never appends to or overwrites a table that already exists.
type Loader struct {
	wh       coreinterfaces.Warehouse
	registry *registry.Client
	metrics  *metrics.Metrics
}

// New returns a loader. m may be nil.
func New(wh coreinterfaces.Warehouse, m *metrics.Metrics) *Loader {
	return &Loader{
		wh:       wh,
		registry: registry.NewClient(wh, m),
		metrics:  m,
	}
}

func (l *Loader) Registry() *registry.Client {
	return l.registry
}

// LoadTable creates table and loads data into it. With a nil src the
// warehouse infers the schema from the data; otherwise the table is created
// with the translated schema and the load job carries the same schema.
func (l *Loader) LoadTable(ctx context.Context, table string, data *frame.Frame, src *schema.Source) (*coreinterfaces.LoadResult, error) {
	if data == nil {
		return nil, errno.ErrInvalidFrame.GenWithStackByArgs("no data")
	}
	var buf bytes.Buffer
	if err := data.WriteNDJSON(&buf); err != nil {
		return nil, errors.Trace(err)
	}
	req := &coreinterfaces.LoadRequest{
		Table:  table,
		Format: coreinterfaces.SourceNDJSON,
		Reader: &buf,
	}
	log.Info("Loading frame", zap.String("table", table),
		zap.Strings("columns", data.ColumnNames()), zap.Int("rows", data.NumRows()))
	return l.load(ctx, req, src)
}

// LoadTableFromURI is LoadTable for data already staged in GCS. CSV sources
// are expected to start with a header row.
func (l *Loader) LoadTableFromURI(ctx context.Context, table string, uris []string, format coreinterfaces.SourceFormat, src *schema.Source) (*coreinterfaces.LoadResult, error) {
	if len(uris) == 0 {
		return nil, errno.ErrInvalidFrame.GenWithStackByArgs("no source uri")
	}
	req := &coreinterfaces.LoadRequest{
		Table:      table,
		Format:     format,
		SourceURIs: uris,
	}
	if format == coreinterfaces.SourceCSV {
		req.SkipLeadingRows = 1
	}
	log.Info("Loading from storage", zap.String("table", table), zap.Strings("uris", uris))
	return l.load(ctx, req, src)
}

func (l *Loader) load(ctx context.Context, req *coreinterfaces.LoadRequest, src *schema.Source) (*coreinterfaces.LoadResult, error) {
	table := req.Table
	exists, err := l.registry.Exists(ctx, table)
	if err != nil {
		l.metrics.AddError(table)
		return nil, errors.Trace(err)
	}
	if exists {
		return nil, errno.ErrTableAlreadyExists.GenWithStackByArgs(l.registry.Handle(table).String())
	}

	if src == nil {
		req.Autodetect = true
		req.CreateIfNeeded = true
	} else {
		desc, err := schema.Translate(src)
		if err != nil {
			l.metrics.AddError(table)
			return nil, errors.Trace(err)
		}
		req.Schema = desc.BigQuerySchema()
	}
	if _, err := l.registry.Create(ctx, table, req.Schema); err != nil {
		l.metrics.AddError(table)
		return nil, errors.Trace(err)
	}
	if req.JobID, err = newJobID(table); err != nil {
		return nil, errors.Trace(err)
	}

	l.metrics.AddLoadJob(table)
	result, err := l.wh.Load(ctx, req)
	if err != nil {
		l.metrics.AddError(table)
		log.Error("Load job failed", zap.String("table", table), zap.String("job", req.JobID), zap.Error(err))
		return nil, errors.Trace(err)
	}
	if !result.Success {
		l.metrics.AddError(table)
		log.Error("Load job completed with errors", zap.String("table", table),
			zap.String("job", result.JobID), zap.Strings("errors", result.Errors))
		return result, errno.NewLoadJobError(l.registry.Handle(table).String(), result.JobID, result.Errors)
	}
	l.metrics.AddLoadedRows(table, result.OutputRows)
	log.Info("Successfully loaded table", zap.String("table", table),
		zap.String("job", result.JobID), zap.Int64("rows", result.OutputRows))
	return result, nil
}

// newJobID returns a job id that is unique and still identifies the table.
// Job ids may only hold letters, digits, dashes and underscores.
func newJobID(table string) (string, error) {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		}
		return '_'
	}, table)
	return formatter.Format("file2bq_{table}_{id}", formatter.Named{
		"table": clean,
		"id":    uuid.NewString(),
	})
}

// Package warehousetest provides an in-memory Warehouse for tests.
package warehousetest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"cloud.google.com/go/bigquery"
	"github.com/pingcap-inc/file2bq/pkg/coreinterfaces"
	"github.com/pingcap-inc/file2bq/pkg/errno"
	"github.com/pingcap/errors"
	"golang.org/x/exp/slices"
)

// Table is the stored state of one table.
type Table struct {
	Schema bigquery.Schema
	Rows   []map[string]interface{}
}

// Warehouse keeps tables in memory. NDJSON loads with autodetection infer
// the schema from the JSON value types the way the service does.
type Warehouse struct {
	Project string
	Dataset string

	// FailLookup, FailCreate and FailDelete are returned by the matching call.
	FailLookup error
	FailCreate error
	FailDelete error
	// FailLoad is returned by Load as a service error.
	FailLoad error
	// RejectLoad makes Load report a malformed job with these messages.
	RejectLoad []string

	mu       sync.Mutex
	tables   map[string]*Table
	calls    []string
	requests []coreinterfaces.LoadRequest
}

var _ coreinterfaces.Warehouse = (*Warehouse)(nil)

func New(project, dataset string) *Warehouse {
	return &Warehouse{
		Project: project,
		Dataset: dataset,
		tables:  make(map[string]*Table),
	}
}

func (w *Warehouse) record(call string) {
	w.calls = append(w.calls, call)
}

// Calls returns the calls made so far, e.g. "exists:t", "create:t".
func (w *Warehouse) Calls() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.calls)
}

// LoadRequests returns the configuration of every submitted load job.
func (w *Warehouse) LoadRequests() []coreinterfaces.LoadRequest {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.requests)
}

// Table returns the stored table or nil.
func (w *Warehouse) Table(name string) *Table {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tables[name]
}

func (w *Warehouse) ProjectID() string { return w.Project }

func (w *Warehouse) DatasetID() string { return w.Dataset }

func (w *Warehouse) TableExists(_ context.Context, table string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.record("exists:" + table)
	if w.FailLookup != nil {
		return false, w.FailLookup
	}
	_, ok := w.tables[table]
	return ok, nil
}

func (w *Warehouse) CreateTable(_ context.Context, table string, schema bigquery.Schema) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.record("create:" + table)
	if w.FailCreate != nil {
		return w.FailCreate
	}
	if _, ok := w.tables[table]; ok {
		return errors.Errorf("Already Exists: Table %s:%s.%s", w.Project, w.Dataset, table)
	}
	if len(schema) == 0 {
		return errors.New("Schema has no fields")
	}
	w.tables[table] = &Table{Schema: schema}
	return nil
}

func (w *Warehouse) DeleteTable(_ context.Context, table string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.record("delete:" + table)
	if w.FailDelete != nil {
		return w.FailDelete
	}
	if _, ok := w.tables[table]; !ok {
		return errno.ErrTableNotFound.GenWithStackByArgs(fmt.Sprintf("%s.%s", w.Dataset, table))
	}
	delete(w.tables, table)
	return nil
}

func (w *Warehouse) Load(_ context.Context, req *coreinterfaces.LoadRequest) (*coreinterfaces.LoadResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.record("load:" + req.Table)
	w.requests = append(w.requests, *req)
	if w.FailLoad != nil {
		return nil, w.FailLoad
	}
	if len(w.RejectLoad) > 0 {
		return &coreinterfaces.LoadResult{JobID: req.JobID, Errors: slices.Clone(w.RejectLoad)}, nil
	}
	if req.Reader == nil {
		return nil, errors.New("in-memory warehouse only loads from readers")
	}
	if req.Format != coreinterfaces.SourceNDJSON {
		return nil, errors.Errorf("in-memory warehouse does not load %s", req.Format)
	}

	rows, order, err := readNDJSON(req.Reader)
	if err != nil {
		return &coreinterfaces.LoadResult{JobID: req.JobID, Errors: []string{err.Error()}}, nil
	}

	t, ok := w.tables[req.Table]
	switch {
	case ok && len(t.Rows) > 0:
		return &coreinterfaces.LoadResult{JobID: req.JobID, Errors: []string{"Table is not empty"}}, nil
	case !ok && !req.CreateIfNeeded:
		return nil, errno.ErrTableNotFound.GenWithStackByArgs(fmt.Sprintf("%s.%s", w.Dataset, req.Table))
	case !ok:
		schema := req.Schema
		if schema == nil && req.Autodetect {
			schema = inferSchema(rows, order)
		}
		if len(schema) == 0 {
			return &coreinterfaces.LoadResult{JobID: req.JobID, Errors: []string{"No schema specified on job or table"}}, nil
		}
		t = &Table{Schema: schema}
		w.tables[req.Table] = t
	}
	t.Rows = append(t.Rows, rows...)
	return &coreinterfaces.LoadResult{JobID: req.JobID, Success: true, OutputRows: int64(len(rows))}, nil
}

func (w *Warehouse) Close() error { return nil }

// readNDJSON decodes the rows and returns the keys in first-seen order.
func readNDJSON(r io.Reader) ([]map[string]interface{}, []string, error) {
	var rows []map[string]interface{}
	var order []string
	seen := make(map[string]struct{})
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(text))
		dec.UseNumber()
		tok, err := dec.Token()
		if err != nil || tok != json.Delim('{') {
			return nil, nil, errors.Errorf("row %d: not a JSON object", line)
		}
		row := make(map[string]interface{})
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, nil, errors.Errorf("row %d: %v", line, err)
			}
			key := keyTok.(string)
			var v interface{}
			if err := dec.Decode(&v); err != nil {
				return nil, nil, errors.Errorf("row %d: %v", line, err)
			}
			row[key] = v
			if _, ok := seen[key]; !ok {
				seen[key] = struct{}{}
				order = append(order, key)
			}
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, errors.Trace(err)
	}
	return rows, order, nil
}

func inferSchema(rows []map[string]interface{}, order []string) bigquery.Schema {
	schema := make(bigquery.Schema, 0, len(order))
	for _, key := range order {
		var tp bigquery.FieldType
		for _, row := range rows {
			v, ok := row[key]
			if !ok || v == nil {
				continue
			}
			tp = widen(tp, valueType(v))
		}
		if tp == "" {
			tp = bigquery.StringFieldType
		}
		schema = append(schema, &bigquery.FieldSchema{Name: key, Type: tp})
	}
	return schema
}

func valueType(v interface{}) bigquery.FieldType {
	switch n := v.(type) {
	case json.Number:
		if _, err := n.Int64(); err == nil {
			return bigquery.IntegerFieldType
		}
		return bigquery.FloatFieldType
	case bool:
		return bigquery.BooleanFieldType
	default:
		return bigquery.StringFieldType
	}
}

func widen(prev, next bigquery.FieldType) bigquery.FieldType {
	switch {
	case prev == "" || prev == next:
		return next
	case (prev == bigquery.IntegerFieldType && next == bigquery.FloatFieldType) ||
		(prev == bigquery.FloatFieldType && next == bigquery.IntegerFieldType):
		return bigquery.FloatFieldType
	default:
		return bigquery.StringFieldType
	}
}

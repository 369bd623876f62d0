package coreinterfaces

import (
	"context"
	"io"

	"cloud.google.com/go/bigquery"
)

/// Warehouse is the interface for the data warehouse table API.
/// One Warehouse is bound to one (project, dataset) namespace.
/// All Data Warehouse related operations should be done through this.

type Warehouse interface {
	// ProjectID returns the project the warehouse is bound to
	ProjectID() string
	// DatasetID returns the dataset tables are addressed in
	DatasetID() string
	// TableExists reports whether the table exists; lookup failures other than not-found are errors
	TableExists(ctx context.Context, table string) (bool, error)
	// CreateTable creates the table with the given schema
	CreateTable(ctx context.Context, table string, schema bigquery.Schema) error
	// DeleteTable deletes the table, returning errno.ErrTableNotFound when it does not exist
	DeleteTable(ctx context.Context, table string) error
	// Load submits a load job and waits for it to finish
	Load(ctx context.Context, req *LoadRequest) (*LoadResult, error)
	// Close closes the connection to the Data Warehouse
	Close() error
}

type SourceFormat string

const (
	SourceCSV    SourceFormat = "CSV"
	SourceNDJSON SourceFormat = "NEWLINE_DELIMITED_JSON"
)

// LoadRequest is the configuration of a single load job. Exactly one of
// Reader and SourceURIs is set.
type LoadRequest struct {
	Table      string
	JobID      string
	Format     SourceFormat
	Reader     io.Reader
	SourceURIs []string
	// Schema overrides inference when set.
	Schema     bigquery.Schema
	Autodetect bool
	// CreateIfNeeded lets the job create the table from the inferred schema.
	CreateIfNeeded  bool
	SkipLeadingRows int64
}

// LoadResult is the outcome of a finished load job. A job rejected as
// malformed has Success == false and every message reported for it.
type LoadResult struct {
	JobID      string
	Success    bool
	Errors     []string
	OutputRows int64
}

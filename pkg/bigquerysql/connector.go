package bigquerysql

import (
	"context"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/storage"
	"github.com/pingcap-inc/file2bq/pkg/coreinterfaces"
	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"go.uber.org/zap"
)

// BigQueryConnector talks to the tables of one BigQuery dataset.
type BigQueryConnector struct {
	bqClient *bigquery.Client
	// optional, used to check gs:// sources before loading
	storageClient *storage.Client

	projectID string
	datasetID string
}

var _ coreinterfaces.Warehouse = (*BigQueryConnector)(nil)

func NewBigQueryConnector(bqClient *bigquery.Client, storageClient *storage.Client, projectID, datasetID string) *BigQueryConnector {
	return &BigQueryConnector{
		bqClient:      bqClient,
		storageClient: storageClient,
		projectID:     projectID,
		datasetID:     datasetID,
	}
}

// OpenBigQueryConnector creates the BigQuery and GCS clients described by cfg.
func OpenBigQueryConnector(ctx context.Context, cfg *BigQueryConfig) (*BigQueryConnector, error) {
	bqClient, err := cfg.NewClient(ctx)
	if err != nil {
		return nil, errors.Annotate(err, "failed to create bigquery client")
	}
	storageClient, err := cfg.NewStorageClient(ctx)
	if err != nil {
		bqClient.Close()
		return nil, errors.Annotate(err, "failed to create storage client")
	}
	return NewBigQueryConnector(bqClient, storageClient, cfg.ProjectID, cfg.DatasetID), nil
}

func (bc *BigQueryConnector) ProjectID() string {
	return bc.projectID
}

func (bc *BigQueryConnector) DatasetID() string {
	return bc.datasetID
}

func (bc *BigQueryConnector) TableExists(ctx context.Context, table string) (bool, error) {
	return checkTableExists(ctx, bc.bqClient, bc.datasetID, table)
}

func (bc *BigQueryConnector) CreateTable(ctx context.Context, table string, schema bigquery.Schema) error {
	return createNativeTable(ctx, bc.bqClient, bc.datasetID, table, schema)
}

func (bc *BigQueryConnector) DeleteTable(ctx context.Context, table string) error {
	return deleteTable(ctx, bc.bqClient, bc.datasetID, table)
}

// Load runs a load job and waits for it. Jobs rejected as malformed are
// reported through the result, every other failure is returned as an error.
func (bc *BigQueryConnector) Load(ctx context.Context, req *coreinterfaces.LoadRequest) (*coreinterfaces.LoadResult, error) {
	src, err := newLoadSource(req)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if len(req.SourceURIs) > 0 && bc.storageClient != nil {
		if err := checkGCSSources(ctx, bc.storageClient, req.SourceURIs); err != nil {
			return nil, errors.Trace(err)
		}
	}

	loader := newLoader(bc.bqClient.Dataset(bc.datasetID).Table(req.Table), src, req)
	job, err := loader.Run(ctx)
	if err != nil {
		if msgs, ok := malformedRequestMessages(err); ok {
			log.Warn("load job rejected", zap.String("job", req.JobID), zap.Strings("errors", msgs))
			return &coreinterfaces.LoadResult{JobID: req.JobID, Errors: msgs}, nil
		}
		return nil, errors.Annotatef(err, "failed to run load job %s", req.JobID)
	}
	log.Info("load job submitted", zap.String("job", job.ID()), zap.String("table", req.Table))

	status, err := job.Wait(ctx)
	if err != nil {
		return nil, errors.Annotatef(err, "failed to wait load job %s", job.ID())
	}
	result := &coreinterfaces.LoadResult{
		JobID:      job.ID(),
		Success:    true,
		OutputRows: outputRows(status),
	}
	if status.Err() != nil {
		msgs, ok := jobStatusMessages(status.Err(), status.Errors)
		if !ok {
			return nil, errors.Annotatef(status.Err(), "load job %s completed with error", job.ID())
		}
		result.Success = false
		result.Errors = msgs
	}
	return result, nil
}

func (bc *BigQueryConnector) Close() error {
	var firstErr error
	if bc.storageClient != nil {
		firstErr = bc.storageClient.Close()
	}
	if err := bc.bqClient.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return errors.Trace(firstErr)
}

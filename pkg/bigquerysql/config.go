package bigquerysql

import (
	"context"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// BigQueryConfig addresses one dataset of a project. It is built once at
// startup and never changed afterwards.
type BigQueryConfig struct {
	ProjectID           string
	DatasetID           string
	CredentialsFilePath string // path to google credentials file
}

func (cfg *BigQueryConfig) clientOptions() []option.ClientOption {
	opts := []option.ClientOption{}
	if cfg.CredentialsFilePath != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFilePath))
	}
	return opts
}

func (cfg *BigQueryConfig) NewClient(ctx context.Context) (*bigquery.Client, error) {
	return bigquery.NewClient(ctx, cfg.ProjectID, cfg.clientOptions()...)
}

// NewStorageClient returns a GCS client using the same credentials, used to
// check gs:// load sources.
func (cfg *BigQueryConfig) NewStorageClient(ctx context.Context) (*storage.Client, error) {
	return storage.NewClient(ctx, cfg.clientOptions()...)
}

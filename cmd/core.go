package cmd

import (
	"context"

	"github.com/pingcap-inc/file2bq/pkg/bigquerysql"
	"github.com/pingcap-inc/file2bq/pkg/config"
	"github.com/pingcap-inc/file2bq/pkg/utils"
	"github.com/pingcap-inc/file2bq/version"
	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// commonOptions are the flags shared by every sub command.
type commonOptions struct {
	table    string
	envFile  string
	logFile  string
	logLevel string
}

func addCommonFlags(cmd *cobra.Command, opts *commonOptions) {
	cmd.PersistentFlags().BoolP("help", "", false, "help for this command")
	cmd.Flags().StringVarP(&opts.table, "table", "t", "", "target table, -t <table> or -t <dataset>.<table>; the project comes from the configuration")
	cmd.Flags().StringVar(&opts.envFile, "env-file", config.DefaultEnvFile, "dotenv file with project_id, dataset_id and credentials_file")
	cmd.Flags().String("bq.project-id", "", "BigQuery project id, overrides PROJECT_ID")
	cmd.Flags().String("bq.dataset-id", "", "BigQuery dataset id, overrides DATASET_ID")
	cmd.Flags().String("credentials-file-path", "", "Google application credentials file path, overrides CREDENTIALS_FILE")
	cmd.Flags().StringVar(&opts.logFile, "log.file", "", "log file path")
	cmd.Flags().StringVar(&opts.logLevel, "log.level", "info", "log level")

	cmd.MarkFlagRequired("table")
}

func initLogger(opts *commonOptions) error {
	lg, props, err := log.InitLogger(&log.Config{
		Level: opts.logLevel,
		File:  log.FileLogConfig{Filename: opts.logFile},
	})
	if err != nil {
		return errors.Trace(err)
	}
	log.ReplaceGlobals(lg, props)
	return nil
}

// resolveConfig loads the configuration and applies the dataset given as
// part of the table name. It returns the bare table name.
func resolveConfig(cmd *cobra.Command, opts *commonOptions) (*bigquerysql.BigQueryConfig, string, error) {
	cfg, err := config.Load(opts.envFile, cmd.Flags())
	if err != nil {
		return nil, "", errors.Trace(err)
	}
	dataset, table, err := utils.ParseTableName(opts.table)
	if err != nil {
		return nil, "", errors.Trace(err)
	}
	if dataset != "" {
		cfg.DatasetID = dataset
	}
	log.Info("configuration resolved",
		zap.String("project", cfg.ProjectID),
		zap.String("dataset", cfg.DatasetID),
		zap.String("table", table))
	return cfg, table, nil
}

// openConnector initialises logging and configuration and connects to
// BigQuery. The caller closes the connector.
func openConnector(ctx context.Context, cmd *cobra.Command, opts *commonOptions) (*bigquerysql.BigQueryConnector, string, error) {
	if err := initLogger(opts); err != nil {
		return nil, "", errors.Trace(err)
	}
	log.Info("Welcome to file2bq", version.LogFields()...)
	cfg, table, err := resolveConfig(cmd, opts)
	if err != nil {
		return nil, "", errors.Trace(err)
	}
	conn, err := bigquerysql.OpenBigQueryConnector(ctx, cfg)
	if err != nil {
		return nil, "", errors.Trace(err)
	}
	return conn, table, nil
}

package cmd

import (
	"context"

	"github.com/pingcap-inc/file2bq/pkg/coreinterfaces"
	"github.com/pingcap-inc/file2bq/pkg/errno"
	"github.com/pingcap-inc/file2bq/pkg/frame"
	"github.com/pingcap-inc/file2bq/pkg/loader"
	"github.com/pingcap-inc/file2bq/pkg/metrics"
	"github.com/pingcap-inc/file2bq/pkg/schema"
	"github.com/pingcap-inc/file2bq/pkg/utils"
	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"github.com/spf13/cobra"
	"github.com/thediveo/enumflag"
	"go.uber.org/zap"
)

// uriSourceFormat maps a file format to the format of a load job reading
// from GCS.
func uriSourceFormat(uri string, format frame.Format) (coreinterfaces.SourceFormat, error) {
	format, err := frame.ResolveFormat(uri, format)
	if err != nil {
		return "", errors.Trace(err)
	}
	switch format {
	case frame.FormatCSV:
		return coreinterfaces.SourceCSV, nil
	case frame.FormatJSON:
		return coreinterfaces.SourceNDJSON, nil
	}
	return "", errno.ErrInvalidFrame.GenWithStackByArgs("spreadsheets can not be loaded from gs://, download the file first")
}

func NewLoadCmd() *cobra.Command {
	var (
		opts        commonOptions
		filePath    string
		schemaPath  string
		format      frame.Format
		sheet       string
		metricsFile string
	)

	run := func(cmd *cobra.Command) error {
		ctx := context.Background()
		conn, table, err := openConnector(ctx, cmd, &opts)
		if err != nil {
			return errors.Trace(err)
		}
		defer conn.Close()

		m := metrics.NewMetrics()
		if metricsFile != "" {
			defer func() {
				if err := m.WriteTextfile(metricsFile); err != nil {
					log.Warn("Failed to write metrics", zap.String("file", metricsFile), zap.Error(err))
				}
			}()
		}
		l := loader.New(conn, m)

		var src *schema.Source
		if schemaPath != "" {
			src, err = schema.ReadSource(schemaPath)
			if err != nil {
				return errors.Trace(err)
			}
		}

		var result *coreinterfaces.LoadResult
		if utils.IsGCSURI(filePath) {
			uri := utils.NormalizeGCSURI(filePath)
			sourceFormat, err := uriSourceFormat(uri, format)
			if err != nil {
				return errors.Trace(err)
			}
			result, err = l.LoadTableFromURI(ctx, table, []string{uri}, sourceFormat, src)
			if err != nil {
				return errors.Trace(err)
			}
		} else {
			data, err := frame.ReadFile(filePath, format, sheet)
			if err != nil {
				return errors.Trace(err)
			}
			result, err = l.LoadTable(ctx, table, data, src)
			if err != nil {
				return errors.Trace(err)
			}
		}
		log.Info("Table loaded",
			zap.Stringer("table", l.Registry().Handle(table)),
			zap.String("job", result.JobID),
			zap.Int64("rows", result.OutputRows))
		return nil
	}

	cmd := &cobra.Command{
		Use:           "load",
		Short:         "Create a BigQuery table and load a CSV or XLSX file into it",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := run(cmd); err != nil {
				reportError("load", err)
				return err
			}
			return nil
		},
	}

	addCommonFlags(cmd, &opts)
	cmd.Flags().StringVarP(&filePath, "file", "f", "", "data file: local .csv/.xlsx or gs://<bucket>/<path>")
	cmd.Flags().StringVar(&schemaPath, "schema", "", "schema file (.json or .yaml); the schema is inferred when omitted")
	cmd.Flags().Var(enumflag.New(&format, "format", frame.FormatIds, enumflag.EnumCaseInsensitive), "format", "data file format: auto, csv, xlsx, json")
	cmd.Flags().StringVar(&sheet, "sheet", "", "worksheet of an xlsx file, the first one by default")
	cmd.Flags().StringVar(&metricsFile, "metrics.textfile", "", "write prometheus metrics to this file when done")

	cmd.MarkFlagRequired("file")

	return cmd
}

// reportError logs err with the detail callers need to act on it.
func reportError(command string, err error) {
	switch {
	case errno.IsTableAlreadyExists(err):
		log.Error("Table already exists, choose another table name or delete it first", zap.Error(err))
	case errno.IsSchemaParse(err):
		log.Error("Schema file is invalid", zap.Error(err))
	case errno.IsInvalidConfig(err):
		log.Error("Configuration is incomplete", zap.Error(err))
	default:
		if loadErr, ok := errno.AsLoadJobError(err); ok {
			log.Error("Load job failed",
				zap.String("table", loadErr.Table),
				zap.String("job", loadErr.JobID),
				zap.Strings("errors", loadErr.Messages()))
			return
		}
		log.Error("Fatal error running "+command, zap.Error(err))
	}
}

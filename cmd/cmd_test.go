package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pingcap-inc/file2bq/pkg/coreinterfaces"
	"github.com/pingcap-inc/file2bq/pkg/errno"
	"github.com/pingcap-inc/file2bq/pkg/frame"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func TestURISourceFormat(t *testing.T) {
	format, err := uriSourceFormat("gs://bucket/a.csv", frame.FormatAuto)
	require.NoError(t, err)
	require.Equal(t, coreinterfaces.SourceCSV, format)

	format, err = uriSourceFormat("gs://bucket/a.ndjson", frame.FormatAuto)
	require.NoError(t, err)
	require.Equal(t, coreinterfaces.SourceNDJSON, format)

	format, err = uriSourceFormat("gs://bucket/export-*", frame.FormatJSON)
	require.NoError(t, err)
	require.Equal(t, coreinterfaces.SourceNDJSON, format)

	_, err = uriSourceFormat("gs://bucket/a.xlsx", frame.FormatAuto)
	require.True(t, errno.IsInvalidFrame(err))
}

func TestMissingConfigurationIsFatal(t *testing.T) {
	t.Setenv("PROJECT_ID", "")
	t.Setenv("DATASET_ID", "")
	dir := t.TempDir()

	for _, cmd := range []*cobra.Command{NewExistsCmd(), NewDeleteCmd(), NewLoadCmd()} {
		args := []string{
			"-t", "customers",
			"--env-file", filepath.Join(dir, "absent.env"),
			"--credentials-file-path", filepath.Join(dir, "absent.json"),
			"--log.level", "error",
		}
		if cmd.Name() == "load" {
			args = append(args, "-f", filepath.Join(dir, "customers.csv"))
		}
		cmd.SetArgs(args)
		err := cmd.Execute()
		require.True(t, errno.IsInvalidConfig(err), "%s: %v", cmd.Name(), err)
	}
}

func TestTableFlagIsRequired(t *testing.T) {
	cmd := NewExistsCmd()
	cmd.SetArgs([]string{})
	require.Error(t, cmd.Execute())
}

func TestResolveConfigTableName(t *testing.T) {
	dir := t.TempDir()
	creds := filepath.Join(dir, "sa.json")
	require.NoError(t, os.WriteFile(creds, []byte("{}"), 0o600))
	t.Setenv("PROJECT_ID", "project")
	t.Setenv("DATASET_ID", "raw")
	t.Setenv("CREDENTIALS_FILE", creds)

	cmd := &cobra.Command{Use: "test"}
	var opts commonOptions
	addCommonFlags(cmd, &opts)
	opts.envFile = filepath.Join(dir, "absent.env")

	opts.table = "sales.transactions"
	cfg, table, err := resolveConfig(cmd, &opts)
	require.NoError(t, err)
	require.Equal(t, "sales", cfg.DatasetID)
	require.Equal(t, "transactions", table)

	opts.table = "project.sales.transactions"
	_, _, err = resolveConfig(cmd, &opts)
	require.ErrorContains(t, err, "expected <table> or <dataset>.<table>")
}

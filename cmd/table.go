package cmd

import (
	"context"
	"fmt"

	"github.com/pingcap-inc/file2bq/pkg/registry"
	"github.com/pingcap/errors"
	"github.com/spf13/cobra"
)

func NewExistsCmd() *cobra.Command {
	var opts commonOptions

	run := func(cmd *cobra.Command) error {
		ctx := context.Background()
		conn, table, err := openConnector(ctx, cmd, &opts)
		if err != nil {
			return errors.Trace(err)
		}
		defer conn.Close()

		exists, err := registry.NewClient(conn, nil).Exists(ctx, table)
		if err != nil {
			return errors.Trace(err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), exists)
		return nil
	}

	cmd := &cobra.Command{
		Use:           "exists",
		Short:         "Print whether a BigQuery table exists",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := run(cmd); err != nil {
				reportError("exists", err)
				return err
			}
			return nil
		},
	}
	addCommonFlags(cmd, &opts)
	return cmd
}

func NewDeleteCmd() *cobra.Command {
	var opts commonOptions

	run := func(cmd *cobra.Command) error {
		ctx := context.Background()
		conn, table, err := openConnector(ctx, cmd, &opts)
		if err != nil {
			return errors.Trace(err)
		}
		defer conn.Close()

		return errors.Trace(registry.NewClient(conn, nil).Delete(ctx, table))
	}

	cmd := &cobra.Command{
		Use:           "delete",
		Short:         "Delete a BigQuery table, succeeding when it does not exist",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := run(cmd); err != nil {
				reportError("delete", err)
				return err
			}
			return nil
		},
	}
	addCommonFlags(cmd, &opts)
	return cmd
}

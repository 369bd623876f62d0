package main

import (
	"fmt"
	"os"

	"github.com/pingcap-inc/file2bq/cmd"
	"github.com/pingcap-inc/file2bq/version"
	"github.com/spf13/cobra"
)

var rootCmd *cobra.Command

func init() {
	rootCmd = &cobra.Command{
		Use:                "file2bq",
		Short:              "Create a BigQuery table and load a CSV or XLSX file into it",
		DisableFlagParsing: true,
		SilenceUsage:       true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			switch args[0] {
			case "--help", "-h":
				return cmd.Help()
			case "--version", "-v":
				fmt.Println(version.NewFile2BQVersion().String())
				return nil
			default:
				return fmt.Errorf("unknown flag: %s\nRun `file2bq --help` for usage.", args[0])
			}
		},
	}

	rootCmd.Flags().BoolP("version", "v", false, "Print the version of file2bq")

	rootCmd.AddCommand(
		cmd.NewLoadCmd(),
		cmd.NewExistsCmd(),
		cmd.NewDeleteCmd(),
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

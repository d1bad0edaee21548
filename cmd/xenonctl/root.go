package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xenon-middleware/xenon-go/bootstrap"
	"github.com/xenon-middleware/xenon-go/core/formatter"
)

var (
	// Global flags
	cfgFile      string
	metricsAddr  string
	outputFormat string
	columns      []string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "xenonctl",
	Short: "Command-line client for Xenon file systems and schedulers",
	Long: `xenonctl talks to a Xenon service over gRPC, or to the in-process
service when transport.mode is "memory".

Files:
  xenonctl fs ls /data --recursive
  xenonctl fs cat /data/results.csv
  xenonctl fs put /data/input.txt ./input.txt

Jobs:
  xenonctl sched submit --wait -- echo hello
  xenonctl sched interactive -- cat

Settings come from --config when the file exists, otherwise from XENON_*
environment variables.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "xenon.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve /metrics on this address while the command runs")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format: table, json or yaml")
	rootCmd.PersistentFlags().StringSliceVar(&columns, "columns", nil, "columns to show")
}

// connect builds the client for one command. Callers must Shutdown it.
func connect(cmd *cobra.Command) (*bootstrap.App, error) {
	a, err := bootstrap.New(bootstrap.Options{
		ConfigPath:  cfgFile,
		LogOutput:   cmd.ErrOrStderr(),
		MetricsAddr: metricsAddr,
	})
	if err != nil {
		return nil, err
	}
	a.StartMetrics()
	return a, nil
}

func outputFormatter() (formatter.Formatter, error) {
	f, ok := formatter.Get(outputFormat)
	if !ok {
		return nil, fmt.Errorf("unknown output format %q (have %v)", outputFormat, formatter.List())
	}
	return f, nil
}

func printList(cmd *cobra.Command, view formatter.View, records []map[string]any) error {
	f, err := outputFormatter()
	if err != nil {
		return err
	}
	return f.FormatList(cmd.OutOrStdout(), view, records, formatter.FormatOptions{Columns: columns})
}

func printRecord(cmd *cobra.Command, view formatter.View, record map[string]any) error {
	f, err := outputFormatter()
	if err != nil {
		return err
	}
	return f.FormatRecord(cmd.OutOrStdout(), view, record, formatter.FormatOptions{Columns: columns})
}

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/xenon-middleware/xenon-go/config"
)

const (
	checkMark = "✓"
	crossMark = "✗"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long: `Validate the xenonctl configuration file.

Checks:
  - YAML syntax is valid
  - Values are in range
  - The service answers (with --check-service)

Examples:
  xenonctl validate
  xenonctl validate --config /etc/xenon/xenon.yaml --check-service`,
	RunE: runValidate,
}

var validateCheckService bool

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateCheckService, "check-service", false, "check that the service answers")
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Validating %s...\n\n", cfgFile)

	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		fmt.Fprintf(out, "  %s Config file exists\n", crossMark)
		return fmt.Errorf("config file not found: %s", cfgFile)
	}
	fmt.Fprintf(out, "  %s Config file exists\n", checkMark)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(out, "  %s Config valid\n", crossMark)
		return fmt.Errorf("config error: %w", err)
	}
	fmt.Fprintf(out, "  %s Config valid\n", checkMark)

	fmt.Fprintf(out, "  %s Transport: %s", checkMark, cfg.Transport.Mode)
	if cfg.Transport.Mode == config.ModeGRPC {
		fmt.Fprintf(out, " (%s)", cfg.Transport.Target)
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %s Logging: %s, %s\n", checkMark, cfg.Logging.Level, cfg.Logging.Format)
	if cfg.Metrics.Enabled {
		fmt.Fprintf(out, "  %s Metrics: %s%s\n", checkMark, cfg.Metrics.Addr, cfg.Metrics.Path)
	}

	if validateCheckService {
		if err := checkService(cmd); err != nil {
			fmt.Fprintf(out, "  %s Service reachable\n", crossMark)
			fmt.Fprintf(out, "      Error: %v\n", err)
			return fmt.Errorf("service check failed")
		}
		fmt.Fprintf(out, "  %s Service reachable\n", checkMark)
	}

	fmt.Fprintln(out, "\nConfiguration is valid.")
	return nil
}

func checkService(cmd *cobra.Command) error {
	a, err := connect(cmd)
	if err != nil {
		return err
	}
	defer a.Shutdown()

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()
	_, err = a.Session.FileSystemAdaptorNames(ctx)
	return err
}

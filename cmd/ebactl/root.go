package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/heng-zhai/MSc-project/internal/config"
	"github.com/heng-zhai/MSc-project/internal/logging"
	"github.com/heng-zhai/MSc-project/internal/optimization/benchmarks"
)

// app carries what every subcommand shares.
type app struct {
	logLevel  string
	logFormat string

	logger  *logging.Logger
	zap     *zap.Logger
	catalog *benchmarks.Catalog
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "ebactl",
		Short: "Enhanced Bees Algorithm optimizer",
		Long: `ebactl minimises the standard benchmark functions with the Enhanced
Bees Algorithm, either one run at a time or as a repeated experiment
that reports mean and deviation per function.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			format, err := logging.ParseFormat(a.logFormat)
			if err != nil {
				return err
			}
			a.logger = logging.NewWithFormat(logging.ParseLevel(a.logLevel), format, cmd.ErrOrStderr())
			a.zap = logging.NewZapLogger(a.logger)
			catalog, err := benchmarks.DefaultCatalog()
			if err != nil {
				return fmt.Errorf("loading benchmark catalog: %w", err)
			}
			a.catalog = catalog
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", config.GetEnv("LOG_LEVEL", "warn"),
		"Log level (debug, info, warn, error); defaults to $LOG_LEVEL")
	rootCmd.PersistentFlags().StringVar(&a.logFormat, "log-format", config.GetEnv("LOG_FORMAT", "text"),
		"Log format (text, json); defaults to $LOG_FORMAT")

	rootCmd.AddCommand(
		newRunCmd(a),
		newExperimentCmd(a),
		newFunctionsCmd(a),
		newVersionCmd(),
	)
	return rootCmd
}

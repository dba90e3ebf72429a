// Command domainosctl is the CLI surface for domainos: scanning a domain's
// knowledge base, searching it, scoring portfolio health, and driving
// brainstorm sessions and fence-block parsing, all against the local
// sqlite storage engine (spec §6).
package main

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/quiet-coder-io/domainos/internal/config"
	"github.com/quiet-coder-io/domainos/internal/logging"
	"github.com/quiet-coder-io/domainos/internal/store"
)

var (
	verbose    bool
	configPath string

	logger *zap.Logger
	cfg    *config.Config
	db     *sql.DB
)

var rootCmd = &cobra.Command{
	Use:   "domainosctl",
	Short: "domainos - local knowledge-management core for multi-domain work",
	Long: `domainosctl drives the domainos storage engine: scanning markdown
knowledge bases into a sqlite-backed index, searching it with diversity-aware
vector search, scoring portfolio health across domains, running brainstorm
sessions, and parsing LLM fence-block output.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if err := logging.Initialize(".", cfg.Logging.DebugMode, cfg.Logging.Level, cfg.Logging.JSONFormat); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to initialize file logging: %v\n", err)
		}

		db, err = store.Open(cfg.StoragePath)
		if err != nil {
			return fmt.Errorf("failed to open storage: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		if db != nil {
			_ = db.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "domainos.yaml", "path to config file")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(domainStatusCmd)
	rootCmd.AddCommand(brainstormCmd)
	rootCmd.AddCommand(fenceCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

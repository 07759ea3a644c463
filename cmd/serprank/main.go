package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/serprank/internal/config"
	logpkg "github.com/kailas-cloud/serprank/internal/logger"
	"github.com/kailas-cloud/serprank/internal/metrics"
	"github.com/kailas-cloud/serprank/internal/repository/record"
	"github.com/kailas-cloud/serprank/internal/transport/google"
	searchuc "github.com/kailas-cloud/serprank/internal/usecase/search"
	"github.com/kailas-cloud/serprank/internal/version"
)

var rootCmd = &cobra.Command{
	Use:           "serprank",
	Short:         "Find where a website ranks in Google Custom Search results",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	flagEnv        string
	flagConfigPath string
	flagEnvFile    string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagEnv, "env", config.GetEnv(), "environment: local, dev, docker, prod")
	rootCmd.PersistentFlags().StringVarP(&flagConfigPath, "config", "c", "", "config file path (default: config/<env>.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagEnvFile, "env-file", ".env", "optional dotenv file with API_KEY and CX")

	rootCmd.AddCommand(serveCmd, searchCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "serprank %s (commit %s, built %s)\n",
			version.Version, version.Commit, version.Date)
	},
}

// app holds the components shared by serve and search.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	google  *google.Client
	records *record.Store
	search  *searchuc.Service
}

// setup is the composition root: .env -> config -> logger -> provider client -> record store -> service.
func setup() (*app, error) {
	if err := config.LoadDotEnv(flagEnvFile); err != nil {
		return nil, err
	}

	var (
		cfg config.Config
		err error
	)
	if flagConfigPath != "" {
		cfg, err = config.LoadFile(flagConfigPath)
	} else {
		cfg, err = config.Load(flagEnv)
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(flagEnv, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	// Register search metrics explicitly (no init())
	metrics.RegisterSearchMetrics()

	client := google.NewClient(&google.Config{
		APIKey:  cfg.Google.APIKey,
		CX:      cfg.Google.CX,
		BaseURL: cfg.Google.BaseURL,
		Timeout: cfg.Google.Timeout(),
		Logger:  logger,
	})
	records := record.New(cfg.Output.Dir)

	return &app{
		cfg:     cfg,
		logger:  logger,
		google:  client,
		records: records,
		search:  searchuc.New(client, records),
	}, nil
}

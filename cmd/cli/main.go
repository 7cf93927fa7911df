package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/MarciaSuzuki/Tripod/pkg/logger"
	"github.com/MarciaSuzuki/Tripod/pkg/tripod"
	"github.com/spf13/cobra"
)

// Global flags
var (
	envFile     string
	dbPath      string
	catalogPath string
	profileMode string
	goalHours   float64
	timeout     time.Duration
	verbose     bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tripod",
		Short: "Field recording, transcript tagging and entry store",
		Long: `Tripod collects language recordings with their metadata, tags
transcripts with discourse markers and exports tagged sentences as CSV.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logger.SetLevel(logger.DEBUG)
			}
			logger.GetLogger().Debugf("Executing command: %s", cmd.Name())
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&envFile, "env", ".env", "dotenv file read before the TRIPOD_* environment")
	flags.StringVar(&dbPath, "db", "", "path to the SQLite database (env: TRIPOD_DB_PATH, default: tripod.sqlite3)")
	flags.StringVar(&catalogPath, "catalog", "", "marker catalog YAML replacing the built-in one (env: TRIPOD_CATALOG_PATH)")
	flags.StringVar(&profileMode, "profile-mode", "", "what applying a profile does: metadata or note (env: TRIPOD_PROFILE_MODE)")
	flags.Float64Var(&goalHours, "goal", 0, "recording goal in hours (env: TRIPOD_GOAL_HOURS, default: 100)")
	flags.DurationVar(&timeout, "timeout", 30*time.Second, "timeout for database operations")
	flags.BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(
		newCmd(),
		saveCmd(),
		getCmd(),
		listCmd(),
		searchCmd(),
		deleteCmd(),
		exportCSVCmd(),
		exportJSONCmd(),
		importCmd(),
		qcCmd(),
		progressCmd(),
		trimCmd(),
		markersCmd(),
		profilesCmd(),
		genresCmd(),
	)

	err := rootCmd.Execute()
	logger.GetLogger().Sync()
	if err != nil {
		os.Exit(1)
	}
}

// createService builds the service from the environment, with command-line
// flags taking precedence.
func createService(cmd *cobra.Command, opts ...tripod.Option) (tripod.Service, error) {
	cfg, err := tripod.LoadConfig(envFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.DBPath = dbPath
	}
	if flags.Changed("catalog") {
		cfg.CatalogPath = catalogPath
	}
	if flags.Changed("profile-mode") {
		cfg.ProfileMode = tripod.ProfileMode(profileMode)
	}
	if flags.Changed("goal") {
		cfg.GoalHours = goalHours
	}

	svc, err := tripod.NewService(append([]tripod.Option{tripod.WithConfig(cfg)}, opts...)...)
	if err != nil {
		fmt.Printf("❌ Failed to create service: %v\n", err)
		logger.Errorf("Service initialization failed: %v", err)
		return nil, err
	}
	return svc, nil
}

func withTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

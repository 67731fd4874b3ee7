package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/careerguide/careerguide/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile  string
	cacheDir string
	noCache  bool
	verbose  bool
	debug    bool
	quiet    bool
	envFile  string
)

// Execute runs the root command until ctx is cancelled
func Execute(ctx context.Context, version, commit, date string) error {
	rootCmd := &cobra.Command{
		Use:   "careerguide",
		Short: "Resume analysis and career guidance backed by multiple LLM providers",
		Long: `careerguide analyzes a resume against a target role, generates learning
paths, project ideas and a skill roadmap, and runs a career chat and mock
interview. Generated content is cached on disk and requests fall back across
the configured providers.

Example:
  careerguide analyze resume.pdf --goal "Backend Developer"
  careerguide generate docker --purpose learning_and_projects
  echo '{"answer": "...", "target_role": "Data Analyst"}' | careerguide bridge score-answer`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadEnvFiles(envFile); err != nil {
				return err
			}
			slog.SetDefault(newLogger(os.Stderr))
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/careerguide/config.toml)")
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "content cache directory")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with provider API keys")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "skip cache reads; results are still cached")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "show operation details")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only log warnings and errors")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "show debug logs")

	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(bridgeCmd())
	rootCmd.AddCommand(interviewCmd())
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(providersCmd())
	rootCmd.AddCommand(testConfigCmd())
	rootCmd.AddCommand(cacheCmd())

	// Bind flags to viper
	for _, name := range []string{"config", "cache-dir", "no-cache", "verbose", "quiet", "debug"} {
		viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}

	// Environment variable support
	viper.SetEnvPrefix("CAREERGUIDE")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	return rootCmd.ExecuteContext(ctx)
}

// newLogger builds the stderr logger for the selected verbosity
func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case viper.GetBool("debug"):
		level = slog.LevelDebug
	case viper.GetBool("quiet"):
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadConfig loads the config file and applies flag and env overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetString("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if dir := viper.GetString("cache-dir"); dir != "" {
		cfg.CacheDir = dir
	}
	return cfg, nil
}

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/jamesainslie/tidy/pkg/tidy/config"
	"github.com/jamesainslie/tidy/pkg/tidy/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ErrRunFailed is returned when a run finished with failed entries.
var ErrRunFailed = errors.New("run finished with failures")

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "tidy [path]",
		Short: "Sort files into category folders",
		Long: `Tidy moves every file under a directory into a folder named after its
category (images, documents, archives, ...), optionally nested in date
subfolders. Files already in place are left alone, so running tidy twice
changes nothing the second time.

Each live run is appended to the run log and indexed in the history store.

Examples:
  tidy                       # Organise the current directory
  tidy ~/Downloads           # Organise a specific directory
  tidy -d ~/Downloads        # Preview without moving anything
  tidy -i --date-buckets .   # Ask first, nest files by month
  tidy -o json . | jq        # Machine-readable results
  tidy watch ~/Downloads     # Keep a directory organised
  tidy history               # List past runs`,
		Args:              cobra.MaximumNArgs(1),
		SilenceUsage:      true,
		PersistentPreRunE: initializeLogging,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logging.Close()
		},
		RunE: runOrganize,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/tidy/config.yaml)")
	rootCmd.PersistentFlags().BoolP("dry-run", "d", false, "show what would be moved without moving anything")
	rootCmd.PersistentFlags().BoolP("interactive", "i", false, "ask for confirmation before organising")
	rootCmd.PersistentFlags().StringP("output", "o", "", "output format: pretty, plain, json, jsonl, yaml")
	rootCmd.PersistentFlags().StringSliceP("ignore", "e", nil, "ignore patterns (can be specified multiple times)")
	rootCmd.PersistentFlags().Bool("date-buckets", false, "nest files in date subfolders")
	rootCmd.PersistentFlags().String("date-format", "", "date subfolder format (strftime, e.g. %Y/%m)")
	rootCmd.PersistentFlags().String("log-file", "", "run log file (default: $XDG_STATE_HOME/tidy/runs.log)")
	rootCmd.PersistentFlags().Bool("no-history", false, "do not record runs in the history store")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output")

	_ = viper.BindPFlag("dry_run", rootCmd.PersistentFlags().Lookup("dry-run"))
	_ = viper.BindPFlag("interactive", rootCmd.PersistentFlags().Lookup("interactive"))
	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("ignore", rootCmd.PersistentFlags().Lookup("ignore"))
	_ = viper.BindPFlag("date_buckets.enabled", rootCmd.PersistentFlags().Lookup("date-buckets"))
	_ = viper.BindPFlag("date_buckets.format", rootCmd.PersistentFlags().Lookup("date-format"))
	_ = viper.BindPFlag("log_file", rootCmd.PersistentFlags().Lookup("log-file"))
	_ = viper.BindPFlag("no_history", rootCmd.PersistentFlags().Lookup("no-history"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig points the global viper at the config file and environment
// and reads the file.
func initConfig() error {
	config.Configure(viper.GetViper(), cfgFile)
	return config.Read(viper.GetViper())
}

// loadConfig decodes the merged flags, environment, file and defaults.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Decode(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// initializeLogging reads the configuration, makes sure the XDG
// directories exist, and starts the diagnostic log.
func initializeLogging(cmd *cobra.Command, args []string) error {
	if err := initConfig(); err != nil {
		return err
	}

	configDir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	for _, dir := range []string{configDir, config.DataDir(), config.StateDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logCfg := logging.Config{
		Level:      cfg.Logging.Level,
		Path:       cfg.Logging.Path,
		Rotation:   parseRotationConfig(cfg.Logging.Rotation),
		Components: cfg.Logging.Components,
	}
	if getVerbose() {
		logCfg.ConsoleLevel = "debug"
		logCfg.Console = os.Stderr
	}
	if err := logging.Init(logCfg); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	return nil
}

// parseRotationConfig converts the config file form to the logging form.
// An empty or unparseable size falls back to the default.
func parseRotationConfig(rc config.RotationConfig) logging.RotationConfig {
	out := logging.RotationConfig{
		MaxSize:    logging.DefaultRotationConfig().MaxSize,
		MaxAge:     rc.MaxAge,
		MaxBackups: rc.MaxBackups,
		Daily:      rc.Daily,
	}
	if rc.MaxSize != "" {
		if size, err := config.ParseSize(rc.MaxSize); err == nil && size > 0 {
			out.MaxSize = size
		}
	}
	return out
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func getVerbose() bool {
	return viper.GetBool("verbose")
}

func getQuiet() bool {
	return viper.GetBool("quiet")
}

func getDryRun() bool {
	return viper.GetBool("dry_run")
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(format string, args ...interface{}) {
	if getVerbose() && !getQuiet() {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message to stderr unless quiet mode is enabled.
// Stdout is reserved for formatted results.
func printInfo(format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

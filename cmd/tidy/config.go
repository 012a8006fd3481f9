package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/jamesainslie/tidy/pkg/tidy/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage tidy configuration settings.

Configuration is loaded from:
  1. --config <file> (if given)
  2. $XDG_CONFIG_HOME/tidy/config.yaml (if set)
  3. ~/.config/tidy/config.yaml

Environment variables can override config file settings using the TIDY_ prefix:
  TIDY_OUTPUT=json
  TIDY_DATE_BUCKETS_ENABLED=true
  TIDY_HISTORY_RETENTION_DAYS=30`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration merged from defaults, file, environment and flags.`,
	RunE:  runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file",
	Long: `Open the configuration file in your default editor.

The editor is determined by:
  1. $VISUAL environment variable
  2. $EDITOR environment variable
  3. Falls back to 'vi'

If the config file doesn't exist, a default one will be created first.`,
	RunE: runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	RunE:  runConfigPath,
}

var configInitForce bool

// configEnvVars lists the overrides reported by 'config show'.
var configEnvVars = []string{
	"TIDY_DATE_BUCKETS_ENABLED",
	"TIDY_DATE_BUCKETS_FORMAT",
	"TIDY_LOG_FILE",
	"TIDY_IGNORE",
	"TIDY_INTERACTIVE",
	"TIDY_OUTPUT",
	"TIDY_HISTORY_ENABLED",
	"TIDY_HISTORY_PATH",
	"TIDY_HISTORY_RETENTION_DAYS",
	"TIDY_WATCH_DEBOUNCE",
	"TIDY_LOGGING_LEVEL",
	"TIDY_LOGGING_PATH",
}

func init() {
	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "overwrite an existing config file")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// configPath returns --config when set, else the default location.
func configPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	return config.DefaultConfigPath()
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if configFile := viper.ConfigFileUsed(); configFile != "" {
		if _, statErr := os.Stat(configFile); statErr == nil {
			fmt.Printf("# Config file: %s\n", configFile)
		} else {
			fmt.Println("# Config file: (using defaults, no file found)")
		}
	} else {
		fmt.Println("# Config file: (using defaults, no file found)")
	}

	var overrides []string
	for _, name := range configEnvVars {
		if val := os.Getenv(name); val != "" {
			overrides = append(overrides, fmt.Sprintf("%s=%s", name, val))
		}
	}
	if len(overrides) > 0 {
		fmt.Println("# Environment overrides:")
		for _, o := range overrides {
			fmt.Printf("#   %s\n", o)
		}
	}
	fmt.Println()

	body, err := config.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(body)
	return err
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if err := config.WriteDefault(path, false); err != nil && !errors.Is(err, config.ErrConfigExists) {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	printVerbose("Opening %s with %s", path, editor)

	editorCmd := exec.Command(editor, path)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr
	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("editor command failed: %w", err)
	}

	if _, err := config.Load(path); err != nil {
		printError("The edited config does not load: %v", err)
	}
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path, err := configPath()
	if err != nil {
		return err
	}

	err = config.WriteDefault(path, configInitForce)
	if errors.Is(err, config.ErrConfigExists) {
		printInfo("Config file already exists: %s", path)
		printInfo("Use 'tidy config edit' to modify it, or --force to replace it.")
		return nil
	}
	if err != nil {
		return err
	}

	printInfo("Created default config file: %s", path)
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	fmt.Println(path)

	if _, err := os.Stat(path); err == nil {
		printVerbose("File exists")
	} else if os.IsNotExist(err) {
		printVerbose("File does not exist (will use defaults)")
	}
	return nil
}

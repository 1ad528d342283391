package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/shelfd/shelfd/client"
)

var (
	version = "dev"

	cfgFile     string
	profileName string
	server      string
	username    string
	password    string
	jsonOutput  bool
	quiet       bool
)

var rootCmd = &cobra.Command{
	Use:     "shelf-cli",
	Version: version,
	Short:   "Client for shelfd book catalog",
	Long: `Shelf CLI - Client for the shelfd book catalog server

Manage books and authors from the command line. Connection settings
come from profiles (~/.shelfd/config.yaml), environment variables,
or flags; flags take precedence.

When the server protects a route group, set a username and password
via the profile, SHELFD_USERNAME/SHELFD_PASSWORD, or flags.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.shelfd/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&profileName, "profile", "", "profile name (env: SHELFD_PROFILE)")
	rootCmd.PersistentFlags().StringVarP(&server, "server", "s", "", "server URL (default: http://localhost:8008, env: SHELFD_ENDPOINT)")
	rootCmd.PersistentFlags().StringVarP(&username, "username", "u", "", "username (env: SHELFD_USERNAME)")
	rootCmd.PersistentFlags().StringVarP(&password, "password", "p", "", "password (env: SHELFD_PASSWORD)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		code := 1
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			code = exitErr.code
		}
		os.Exit(code)
	}
}

// getConfigPath resolves the config file path: flag > env > default.
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if envPath := client.ConfigPathFromEnv(); envPath != "" {
		return envPath
	}
	return client.DefaultConfigPath()
}

// buildConfig merges config from profile, env vars, and flags (flags take precedence).
func buildConfig() (*client.Config, error) {
	var configs []*client.Config

	// 1. Load from the selected profile, if a config file exists
	configPath := getConfigPath()
	if configPath != "" {
		configFile, err := client.LoadConfigFile(configPath)
		if err != nil {
			// Only error if the user explicitly specified a config file
			if cfgFile != "" {
				return nil, err
			}
		} else {
			name := profileName
			if name == "" {
				name = client.ProfileFromEnv()
			}
			profile, profErr := configFile.GetProfile(name)
			if profErr != nil {
				// An explicitly requested profile must exist
				if name != "" {
					return nil, profErr
				}
			} else {
				configs = append(configs, client.ConfigFromProfile(profile))
			}
		}
	}

	// 2. Load from environment variables
	configs = append(configs, client.ConfigFromEnv())

	// 3. Load from flags
	configs = append(configs, &client.Config{
		Endpoint: server,
		Username: username,
		Password: password,
	})

	return client.MergeConfig(configs...), nil
}

// getFormatter returns the appropriate formatter based on flags.
func getFormatter() client.Formatter {
	return client.NewFormatter(jsonOutput, quiet)
}

// getClient creates and returns a configured client.
func getClient() (*client.Client, error) {
	cfg, err := buildConfig()
	if err != nil {
		return nil, err
	}

	return client.New(cfg)
}

// exitError is returned when we want to exit with a specific code
// but don't want cobra to print an error message.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return ""
}

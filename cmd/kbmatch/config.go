package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// configSchema is the closed set of settings the CLI stores, with a short
// description per key. Anything else is rejected rather than written blindly.
var configSchema = map[string]string{
	"url":      "knowledge base API URL",
	"user":     "knowledge base username",
	"pass-env": "environment variable holding the password",
	"json":     "print raw records as JSON (true/false)",
	"debug":    "enable debug logging (true/false)",
}

var boolSettings = map[string]bool{"json": true, "debug": true}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change stored settings (~/.kbmatch.yaml)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Print one setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := configValue(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a setting",
		Example: `  kbmatch config set url https://kb.example.org/api
  kbmatch config set debug true`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := setConfig(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s (%s)\n", args[0], args[1], path)
			return nil
		},
	})

	return cmd
}

// showConfig prints the stored settings as YAML, restricted to the schema so
// environment noise never leaks into the listing.
func showConfig(w io.Writer) error {
	settings := map[string]any{}
	for key := range configSchema {
		if viper.IsSet(key) {
			settings[key] = viper.Get(key)
		}
	}
	if len(settings) == 0 {
		fmt.Fprintln(w, "# no settings stored; see 'kbmatch config set'")
		return nil
	}

	out, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("render settings: %w", err)
	}
	fmt.Fprint(w, string(out))
	return nil
}

func configValue(key string) (any, error) {
	if _, ok := configSchema[key]; !ok {
		return nil, unknownSettingError(key)
	}
	if !viper.IsSet(key) {
		return nil, fmt.Errorf("%s is not set", key)
	}
	return viper.Get(key), nil
}

// setConfig validates a key/value pair against the schema and persists it,
// returning the config file path written.
func setConfig(key, value string) (string, error) {
	if _, ok := configSchema[key]; !ok {
		return "", unknownSettingError(key)
	}

	if boolSettings[key] {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return "", fmt.Errorf("%s expects true or false, got %q", key, value)
		}
		viper.Set(key, b)
	} else {
		viper.Set(key, value)
	}

	path := viper.ConfigFileUsed()
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("locate config file: %w", err)
		}
		path = filepath.Join(home, ".kbmatch.yaml")
	}
	if err := viper.WriteConfigAs(path); err != nil {
		return "", fmt.Errorf("write config: %w", err)
	}
	return path, nil
}

func unknownSettingError(key string) error {
	known := make([]string, 0, len(configSchema))
	for k := range configSchema {
		known = append(known, k)
	}
	sort.Strings(known)
	return fmt.Errorf("unknown setting %q (known settings: %s)", key, strings.Join(known, ", "))
}

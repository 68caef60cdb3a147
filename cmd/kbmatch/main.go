// Package main provides the kbmatch command-line tool.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "kbmatch",
		Short:         "Match variant notation against a GraphKB-style knowledge base",
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("url", "", "Knowledge base API URL")
	root.PersistentFlags().String("user", "", "Knowledge base username")
	root.PersistentFlags().String("pass-env", "KBMATCH_PASSWORD", "Environment variable holding the password")
	root.PersistentFlags().Bool("json", false, "Print raw records as JSON")
	root.PersistentFlags().Bool("debug", false, "Enable debug logging")

	for _, flag := range []string{"url", "user", "pass-env", "json", "debug"} {
		_ = viper.BindPFlag(flag, root.PersistentFlags().Lookup(flag))
	}

	cobra.OnInitialize(initConfig)

	root.AddCommand(newMatchCmd())
	root.AddCommand(newMatchCategoryCmd())
	root.AddCommand(newConfigCmd())
	return root
}

func initConfig() {
	home, err := os.UserHomeDir()
	if err == nil {
		viper.AddConfigPath(home)
		viper.SetConfigName(".kbmatch")
		viper.SetConfigType("yaml")
	}
	viper.SetEnvPrefix("KBMATCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()
}

// newLogger builds the CLI logger; debug mode enables development output.
func newLogger() (*zap.Logger, error) {
	if viper.GetBool("debug") {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

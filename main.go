package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/k8s-versions/k8s-versions/pkg/cmd"
	"github.com/k8s-versions/k8s-versions/pkg/tui"
	"github.com/k8s-versions/k8s-versions/pkg/types"
)

// Globals for root flags and version reporting.
var (
	debug      bool
	noColor    bool
	logFormat  string
	configFile string
	version    string
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "k8s-versions",
		Short: "Kubernetes version analysis",
		Long:  "k8s-versions: find outdated workloads, Helm releases and images in a Kubernetes cluster",
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if debug {
				log.SetLevel(log.DebugLevel)
			}
			switch logFormat {
			case "", "text":
			case "json":
				log.SetFormatter(&log.JSONFormatter{})
			default:
				return fmt.Errorf("unsupported log format %q, must be text or json", logFormat)
			}
			if noColor {
				tui.DisableColor()
			}
			return readConfig()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Usage()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVar(&debug, "debug", false, "enable debug level logging")
	flags.BoolVar(&noColor, "no-color", false, "disable colored output")
	flags.StringVar(&logFormat, "log-format", "text", "log format: text or json")
	flags.StringVar(&configFile, "config", "", "path to a config file, defaults to $HOME/.k8s-versions.yaml when present")
	cmd.AddGlobalFlags(flags)
	if err := cmd.BindFlags(viper.GetViper(), flags); err != nil {
		log.Fatalf("failed to bind flags: %v", err)
	}

	cmd.AddCommands(rootCmd, version)
	return rootCmd
}

func initConfig() {
	viper.SetEnvPrefix("k8s_versions")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func readConfig() error {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".k8s-versions")
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	log.Debugf("Using config file %s", viper.ConfigFileUsed())
	return nil
}

func main() {
	cobra.OnInitialize(initConfig)
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		info := tui.ErrorInfo{Title: "k8s-versions failed", Message: err.Error()}

		var collectErr *types.CollectionError
		if errors.As(err, &collectErr) {
			info.Hint = "Check that your kubeconfig points at a reachable cluster and that you can list " + collectErr.Source
		}
		fmt.Fprint(os.Stderr, tui.RenderError(info))
		os.Exit(1)
	}
}

package cmd

import (
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/k8s-versions/k8s-versions/pkg/analyzer"
	"github.com/k8s-versions/k8s-versions/pkg/eol"
	"github.com/k8s-versions/k8s-versions/pkg/helm"
	"github.com/k8s-versions/k8s-versions/pkg/registry"
	"github.com/k8s-versions/k8s-versions/pkg/server"
	"github.com/k8s-versions/k8s-versions/pkg/types"
)

// Configuration keys. Each is settable by flag, by K8S_VERSIONS_<KEY> in the
// environment, or in the config file.
const (
	KeyKubeconfig        = "kubeconfig"
	KeyKubeContext       = "kube-context"
	KeyHelmDriver        = "helm-driver"
	KeyRepositoryConfig  = "repository-config"
	KeyRepositoryCache   = "repository-cache"
	KeyLookupConcurrency = "lookup-concurrency"
	KeyRegistryTimeout   = "registry-timeout"
	KeyMaxTags           = "max-tags"
	KeyEOLCheck          = "eol-check"
	KeyEOLAPIURL         = "eol-api-url"
	KeyTransport         = "transport"
	KeyHTTPAddr          = "http-addr"
	KeyHTTPRateLimit     = "http-rate-limit"
	KeyOutput            = "output"
)

// AddGlobalFlags registers the flags shared by every subcommand.
func AddGlobalFlags(flags *pflag.FlagSet) {
	flags.String(KeyKubeconfig, "", "Path to the kubeconfig file, defaults to $KUBECONFIG or ~/.kube/config, then in-cluster config")
	flags.String(KeyKubeContext, "", "Kubeconfig context to use")
	flags.String(KeyHelmDriver, helm.DefaultDriver, "Helm release storage driver (secret, configmap, sql)")
	flags.String(KeyRepositoryConfig, "", "Path to the Helm repositories file, defaults to Helm's own")
	flags.String(KeyRepositoryCache, "", "Path to the Helm repository cache, defaults to Helm's own")
	flags.Int(KeyLookupConcurrency, analyzer.DefaultLookupConcurrency, "Maximum concurrent chart lookups")
	flags.Duration(KeyRegistryTimeout, registry.DefaultTimeout, "Timeout for a single registry tag listing")
	flags.Bool(KeyEOLCheck, false, "Annotate cluster info with end-of-life data from endoflife.date")
	flags.String(KeyEOLAPIURL, eol.DefaultAPIBaseURL, "Base URL of the endoflife.date products API")
	flags.StringP(KeyOutput, "o", "table", "Output format: table, json or yaml")
}

// BindFlags binds every flag in flags to the viper key of the same name.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	return v.BindPFlags(flags)
}

// LoadOptions resolves the current configuration.
func LoadOptions(v *viper.Viper) *types.Options {
	return &types.Options{
		Kubeconfig:        v.GetString(KeyKubeconfig),
		KubeContext:       v.GetString(KeyKubeContext),
		HelmDriver:        v.GetString(KeyHelmDriver),
		RepositoryConfig:  v.GetString(KeyRepositoryConfig),
		RepositoryCache:   v.GetString(KeyRepositoryCache),
		LookupConcurrency: v.GetInt(KeyLookupConcurrency),
		RegistryTimeout:   durationOr(v.GetDuration(KeyRegistryTimeout), registry.DefaultTimeout),
		MaxTags:           v.GetInt(KeyMaxTags),
		EOLCheck:          v.GetBool(KeyEOLCheck),
		EOLAPIBaseURL:     v.GetString(KeyEOLAPIURL),
		Transport:         v.GetString(KeyTransport),
		HTTPAddr:          v.GetString(KeyHTTPAddr),
		HTTPRateLimit:     v.GetFloat64(KeyHTTPRateLimit),
		Output:            v.GetString(KeyOutput),
	}
}

func durationOr(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

func helmConfig(opts *types.Options) helm.Config {
	return helm.Config{
		Kubeconfig:       opts.Kubeconfig,
		KubeContext:      opts.KubeContext,
		Driver:           opts.HelmDriver,
		RepositoryConfig: opts.RepositoryConfig,
		RepositoryCache:  opts.RepositoryCache,
	}
}

func httpConfig(opts *types.Options) server.HTTPConfig {
	return server.HTTPConfig{
		Addr:       opts.HTTPAddr,
		RatePerSec: opts.HTTPRateLimit,
	}
}

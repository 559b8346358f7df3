// Package helm reads installed releases and repository chart indexes using the Helm SDK.
package helm

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"helm.sh/helm/v3/pkg/action"
	"helm.sh/helm/v3/pkg/cli"
	"k8s.io/cli-runtime/pkg/genericclioptions"
)

// DefaultDriver is the release storage backend used when none is configured.
const DefaultDriver = "secret"

// Config selects the cluster and repository files the Client reads.
type Config struct {
	Kubeconfig       string
	KubeContext      string
	Driver           string
	RepositoryConfig string
	RepositoryCache  string
}

// Client lists releases and searches chart repositories.
type Client struct {
	settings *cli.EnvSettings
	driver   string

	// actionConfig builds the action configuration for a namespace. Tests
	// replace it with one backed by in-memory release storage.
	actionConfig func(namespace string) (*action.Configuration, error)
}

// NewClient creates a Client. Empty Config fields fall back to Helm's own
// environment defaults ($HELM_REPOSITORY_CONFIG, $HELM_DRIVER, ...).
func NewClient(cfg Config) *Client {
	settings := cli.New()
	if cfg.Kubeconfig != "" {
		settings.KubeConfig = cfg.Kubeconfig
	}
	if cfg.KubeContext != "" {
		settings.KubeContext = cfg.KubeContext
	}
	if cfg.RepositoryConfig != "" {
		settings.RepositoryConfig = cfg.RepositoryConfig
	}
	if cfg.RepositoryCache != "" {
		settings.RepositoryCache = cfg.RepositoryCache
	}

	c := &Client{settings: settings, driver: cfg.Driver}
	c.actionConfig = c.newActionConfig
	return c
}

func (c *Client) newActionConfig(namespace string) (*action.Configuration, error) {
	flags := genericclioptions.NewConfigFlags(true)
	flags.Namespace = &namespace
	if c.settings.KubeConfig != "" {
		flags.KubeConfig = &c.settings.KubeConfig
	}
	if c.settings.KubeContext != "" {
		flags.Context = &c.settings.KubeContext
	}

	driver := c.driver
	if driver == "" {
		driver = DefaultDriver
	}

	actionConfig := new(action.Configuration)
	if err := actionConfig.Init(flags, namespace, driver, log.Debugf); err != nil {
		return nil, errors.Wrapf(err, "failed to initialize helm action config for namespace %q", namespace)
	}
	return actionConfig, nil
}

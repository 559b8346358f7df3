package types

import "time"

// Options contains the resolved k8s-versions configuration.
type Options struct {
	// Cluster access
	Kubeconfig  string
	KubeContext string

	// Helm
	HelmDriver       string
	RepositoryConfig string
	RepositoryCache  string

	// Analysis
	LookupConcurrency int

	// Registry
	RegistryTimeout time.Duration
	MaxTags         int

	// EOL configuration
	EOLCheck      bool
	EOLAPIBaseURL string

	// Server
	Transport     string
	HTTPAddr      string
	HTTPRateLimit float64

	// Output configuration
	Output string
}

package cmd

import (
	"context"
	"fmt"

	"github.com/k8s-versions/k8s-versions/pkg/analyzer"
	"github.com/k8s-versions/k8s-versions/pkg/cluster"
	"github.com/k8s-versions/k8s-versions/pkg/eol"
	"github.com/k8s-versions/k8s-versions/pkg/helm"
	"github.com/k8s-versions/k8s-versions/pkg/registry"
	"github.com/k8s-versions/k8s-versions/pkg/server"
	"github.com/k8s-versions/k8s-versions/pkg/types"
)

type versionAnalyzer interface {
	AnalyzeVersions(ctx context.Context, namespace, component string) (*types.VersionAnalysis, error)
	GetOutdatedComponents(ctx context.Context, namespace string) ([]types.ComponentVersion, error)
}

type imageFinder interface {
	FindImageUpdates(ctx context.Context, image string, maxTags int) (*types.ImageUpdate, error)
	FindAll(ctx context.Context, specs []registry.ImageSpec, concurrency int) ([]*types.ImageUpdate, error)
}

type clusterReader interface {
	ListWorkloads(ctx context.Context, namespace string) ([]types.WorkloadInstance, error)
	ClusterInfo(ctx context.Context) (*types.ClusterInfo, error)
}

// Constructors for the live backends. Tests replace them.
var (
	newClusterReader = func(opts *types.Options) (clusterReader, error) {
		return newKubeClient(opts)
	}

	newAnalyzer = func(opts *types.Options) (versionAnalyzer, error) {
		kube, err := newKubeClient(opts)
		if err != nil {
			return nil, err
		}
		h := helm.NewClient(helmConfig(opts))
		return analyzer.New(kube, h, h, opts.LookupConcurrency), nil
	}

	newImageFinder = func(opts *types.Options) imageFinder {
		return registry.NewFinder(opts.RegistryTimeout, 0)
	}

	newEOLAnnotator = func(opts *types.Options) server.EOLAnnotator {
		return eol.NewChecker(opts.EOLAPIBaseURL)
	}
)

func newKubeClient(opts *types.Options) (*cluster.Client, error) {
	kube, err := cluster.NewClient(opts.Kubeconfig, opts.KubeContext)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to the cluster: %w", err)
	}
	return kube, nil
}

// newServer wires the live backends into an MCP server.
func newServer(opts *types.Options, version string) (*server.Server, error) {
	kube, err := newKubeClient(opts)
	if err != nil {
		return nil, err
	}
	h := helm.NewClient(helmConfig(opts))

	backends := server.Backends{
		Pods:     kube,
		Services: kube,
		Releases: h,
		Cluster:  kube,
		Analyzer: analyzer.New(kube, h, h, opts.LookupConcurrency),
		Images:   registry.NewFinder(opts.RegistryTimeout, 0),
	}
	if opts.EOLCheck {
		backends.EOL = newEOLAnnotator(opts)
	}
	return server.New(backends, version), nil
}

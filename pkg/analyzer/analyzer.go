// Package analyzer aggregates workload and release versions from the cluster,
// classifies them and produces recommendations.
package analyzer

import (
	"context"

	"github.com/k8s-versions/k8s-versions/pkg/types"
)

// DefaultLookupConcurrency bounds concurrent chart registry lookups.
const DefaultLookupConcurrency = 4

// WorkloadLister lists running workloads. An empty namespace means all namespaces.
type WorkloadLister interface {
	ListWorkloads(ctx context.Context, namespace string) ([]types.WorkloadInstance, error)
}

// ReleaseLister lists installed Helm releases. An empty namespace means all namespaces.
type ReleaseLister interface {
	ListReleases(ctx context.Context, namespace string) ([]types.PackageRelease, error)
}

// ChartLookup returns the published versions of a chart, newest first.
// Unknown charts yield an empty slice rather than an error.
type ChartLookup interface {
	LookupChartVersions(ctx context.Context, chartBaseName string) ([]types.ChartVersion, error)
}

// Analyzer is the version analysis engine. It holds no state between calls.
type Analyzer struct {
	workloads   WorkloadLister
	releases    ReleaseLister
	charts      ChartLookup
	concurrency int
}

// New creates an Analyzer. A concurrency below 1 falls back to DefaultLookupConcurrency.
func New(workloads WorkloadLister, releases ReleaseLister, charts ChartLookup, concurrency int) *Analyzer {
	if concurrency < 1 {
		concurrency = DefaultLookupConcurrency
	}
	return &Analyzer{
		workloads:   workloads,
		releases:    releases,
		charts:      charts,
		concurrency: concurrency,
	}
}

// AnalyzeVersions collects workloads and releases in namespace (all namespaces
// when empty), optionally keeping only those whose name contains component,
// and classifies every facet. A failure to list workloads or releases fails
// the whole call with a *types.CollectionError.
func (a *Analyzer) AnalyzeVersions(ctx context.Context, namespace, component string) (*types.VersionAnalysis, error) {
	workloads, err := a.workloads.ListWorkloads(ctx, namespace)
	if err != nil {
		return nil, &types.CollectionError{Source: "workloads", Err: err}
	}

	components := analyzeWorkloads(workloads, component)

	releases, err := a.releases.ListReleases(ctx, namespace)
	if err != nil {
		return nil, &types.CollectionError{Source: "releases", Err: err}
	}

	components = append(components, a.analyzeReleases(ctx, releases, component)...)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if namespace == "" {
		namespace = "all"
	}

	return &types.VersionAnalysis{
		Namespace:       namespace,
		Components:      components,
		Summary:         summarize(components),
		Recommendations: Recommend(components),
	}, nil
}

// GetOutdatedComponents runs a full analysis and keeps only outdated components.
func (a *Analyzer) GetOutdatedComponents(ctx context.Context, namespace string) ([]types.ComponentVersion, error) {
	analysis, err := a.AnalyzeVersions(ctx, namespace, "")
	if err != nil {
		return nil, err
	}

	outdated := make([]types.ComponentVersion, 0)
	for _, c := range analysis.Components {
		if c.Status == types.StatusOutdated {
			outdated = append(outdated, c)
		}
	}
	return outdated, nil
}

func summarize(components []types.ComponentVersion) types.Summary {
	s := types.Summary{Total: len(components)}
	for _, c := range components {
		switch c.Status {
		case types.StatusOutdated:
			s.Outdated++
		case types.StatusUpToDate:
			s.UpToDate++
		case types.StatusUnknown:
			s.Unknown++
		}
	}
	return s
}

package analyzer

import (
	"context"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/k8s-versions/k8s-versions/pkg/types"
	"github.com/k8s-versions/k8s-versions/pkg/version"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// versionLabels are checked in order when resolving a pod's version.
var versionLabels = []string{"version", "app.kubernetes.io/version", "chart-version"}

func analyzeWorkloads(workloads []types.WorkloadInstance, component string) []types.ComponentVersion {
	components := make([]types.ComponentVersion, 0, len(workloads))

	for _, w := range workloads {
		if component != "" && !strings.Contains(w.Name, component) {
			continue
		}

		for _, image := range w.Images {
			iv := version.SplitImage(image)
			components = append(components, types.ComponentVersion{
				Name:           w.Name + "/" + iv.Name,
				Type:           types.ComponentContainer,
				CurrentVersion: iv.Version,
				Status:         types.StatusUnknown,
				Namespace:      w.Namespace,
				Images:         []string{image},
			})
		}

		components = append(components, types.ComponentVersion{
			Name:           w.Name,
			Type:           types.ComponentPod,
			CurrentVersion: workloadVersion(w),
			Status:         types.StatusUnknown,
			Namespace:      w.Namespace,
			Images:         append([]string(nil), w.Images...),
		})
	}

	return components
}

func workloadVersion(w types.WorkloadInstance) string {
	for _, label := range versionLabels {
		if v := w.Labels[label]; v != "" {
			return v
		}
	}
	if len(w.Images) > 0 {
		return version.SplitImage(w.Images[0]).Version
	}
	return "unknown"
}

// SplitChart separates a release's "<name>-<version>" chart string at the
// first "-". Chart names that contain "-" themselves are split too early
// ("cert-manager-1.2.0" yields "cert" and "manager-1.2.0").
func SplitChart(chart string) (baseName, chartVersion string) {
	parts := strings.Split(chart, "-")
	baseName = parts[0]
	if baseName == "" {
		baseName = chart
	}
	return baseName, strings.Join(parts[1:], "-")
}

type lookupResult struct {
	versions []types.ChartVersion
	err      error
}

func (a *Analyzer) analyzeReleases(ctx context.Context, releases []types.PackageRelease, component string) []types.ComponentVersion {
	selected := make([]types.PackageRelease, 0, len(releases))
	for _, r := range releases {
		if component != "" && !strings.Contains(r.Name, component) {
			continue
		}
		selected = append(selected, r)
	}

	results := make([]lookupResult, len(selected))

	var g errgroup.Group
	g.SetLimit(a.concurrency)
	for i, r := range selected {
		g.Go(func() error {
			baseName, _ := SplitChart(r.Chart)
			versions, err := a.charts.LookupChartVersions(ctx, baseName)
			results[i] = lookupResult{versions: versions, err: err}
			return nil
		})
	}
	_ = g.Wait()

	var lookupErrs *multierror.Error
	components := make([]types.ComponentVersion, 0, len(selected))
	for i, r := range selected {
		res := results[i]
		if res.err != nil {
			log.Warnf("Failed to look up chart versions for release %s/%s (%s): %v", r.Namespace, r.Name, r.Chart, res.err)
			lookupErrs = multierror.Append(lookupErrs, res.err)
			components = append(components, types.ComponentVersion{
				Name:           r.Name,
				Type:           types.ComponentHelmRelease,
				CurrentVersion: r.Chart,
				Status:         types.StatusUnknown,
				Namespace:      r.Namespace,
				Chart:          r.Chart,
			})
			continue
		}
		components = append(components, classifyRelease(r, res.versions))
	}

	if err := lookupErrs.ErrorOrNil(); err != nil {
		log.Debugf("%d of %d chart lookups failed: %v", len(lookupErrs.Errors), len(selected), err)
	}

	return components
}

func classifyRelease(r types.PackageRelease, available []types.ChartVersion) types.ComponentVersion {
	_, current := SplitChart(r.Chart)

	var latest string
	if len(available) > 0 {
		latest = available[0].Version
	}

	status := version.Classify(current, latest)
	updateAvailable := status == types.StatusOutdated

	return types.ComponentVersion{
		Name:            r.Name,
		Type:            types.ComponentHelmRelease,
		CurrentVersion:  current,
		LatestVersion:   latest,
		Status:          status,
		Namespace:       r.Namespace,
		Chart:           r.Chart,
		UpdateAvailable: &updateAvailable,
		Severity:        version.ScoreSeverity(current, latest),
	}
}

package helm

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"helm.sh/helm/v3/pkg/action"
	"helm.sh/helm/v3/pkg/release"

	"github.com/k8s-versions/k8s-versions/pkg/types"
)

// updatedLayout matches the timestamp format of `helm list`.
const updatedLayout = "2006-01-02 15:04:05.999999999 -0700 MST"

// ListReleases lists the latest revision of every release in namespace, or
// in all namespaces when empty.
func (c *Client) ListReleases(ctx context.Context, namespace string) ([]types.PackageRelease, error) {
	return c.ListReleasesByStatus(ctx, namespace, "")
}

// ListReleasesByStatus is ListReleases restricted to releases whose status
// (deployed, failed, pending-install, ...) equals status. An empty status
// keeps everything.
func (c *Client) ListReleasesByStatus(ctx context.Context, namespace, status string) ([]types.PackageRelease, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	actionConfig, err := c.actionConfig(namespace)
	if err != nil {
		return nil, err
	}

	list := action.NewList(actionConfig)
	list.All = true
	list.AllNamespaces = namespace == ""
	list.SetStateMask()

	results, err := list.Run()
	if err != nil {
		if namespace == "" {
			return nil, errors.Wrap(err, "failed to list releases in all namespaces")
		}
		return nil, errors.Wrapf(err, "failed to list releases in namespace %s", namespace)
	}

	releases := make([]types.PackageRelease, 0, len(results))
	for _, rel := range results {
		pr := toPackageRelease(rel)
		if status != "" && pr.Status != status {
			continue
		}
		releases = append(releases, pr)
	}

	log.Debugf("Listed %d helm releases (namespace=%q status=%q)", len(releases), namespace, status)
	return releases, nil
}

func toPackageRelease(rel *release.Release) types.PackageRelease {
	pr := types.PackageRelease{
		Name:      rel.Name,
		Namespace: rel.Namespace,
		Revision:  rel.Version,
	}

	if rel.Chart != nil && rel.Chart.Metadata != nil {
		md := rel.Chart.Metadata
		pr.Chart = md.Name + "-" + md.Version
		pr.AppVersion = md.AppVersion
	}

	if rel.Info != nil {
		pr.Status = rel.Info.Status.String()
		pr.Description = rel.Info.Description
		if !rel.Info.LastDeployed.IsZero() {
			pr.Updated = rel.Info.LastDeployed.Format(updatedLayout)
		}
	}

	return pr
}

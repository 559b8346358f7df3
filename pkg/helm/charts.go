package helm

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"helm.sh/helm/v3/pkg/helmpath"
	"helm.sh/helm/v3/pkg/repo"

	"github.com/k8s-versions/k8s-versions/pkg/types"
)

type chartHit struct {
	chart   types.ChartVersion
	exact   bool
	version *semver.Version
}

// LookupChartVersions searches the locally cached repository indexes for
// charts whose "<repo>/<name>" contains keyword, case-insensitively, and
// returns every published version. Charts named exactly keyword come first,
// then versions are ordered newest first. No configured repositories yields
// an empty result.
func (c *Client) LookupChartVersions(ctx context.Context, keyword string) ([]types.ChartVersion, error) {
	repos, err := c.repositories()
	if err != nil {
		if errors.Is(err, types.ErrNoRepositories) {
			log.Debugf("No helm repositories configured, skipping lookup of %s", keyword)
			return []types.ChartVersion{}, nil
		}
		return nil, err
	}

	needle := strings.ToLower(keyword)
	var hits []chartHit

	for _, entry := range repos {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		indexPath := filepath.Join(c.settings.RepositoryCache, helmpath.CacheIndexFile(entry.Name))
		index, err := repo.LoadIndexFile(indexPath)
		if err != nil {
			log.Warnf("Skipping repository %s: %v", entry.Name, err)
			continue
		}

		for chartName, versions := range index.Entries {
			qualified := entry.Name + "/" + chartName
			if !strings.Contains(strings.ToLower(qualified), needle) {
				continue
			}

			for _, cv := range versions {
				if cv == nil || cv.Metadata == nil {
					continue
				}
				hit := chartHit{
					chart: types.ChartVersion{
						Name:        qualified,
						Version:     cv.Version,
						AppVersion:  cv.AppVersion,
						Description: cv.Description,
					},
					exact: strings.EqualFold(chartName, keyword),
				}
				if v, err := semver.NewVersion(cv.Version); err == nil {
					hit.version = v
				}
				hits = append(hits, hit)
			}
		}
	}

	sortHits(hits)

	charts := make([]types.ChartVersion, 0, len(hits))
	for _, h := range hits {
		charts = append(charts, h.chart)
	}
	return charts, nil
}

func (c *Client) repositories() ([]*repo.Entry, error) {
	file, err := repo.LoadFile(c.settings.RepositoryConfig)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, types.ErrNoRepositories
		}
		return nil, errors.Wrap(err, "failed to load helm repositories file")
	}
	if len(file.Repositories) == 0 {
		return nil, types.ErrNoRepositories
	}
	return file.Repositories, nil
}

// sortHits orders exact name matches first, then semver descending.
// Unparseable versions sort after parseable ones, by string descending.
func sortHits(hits []chartHit) {
	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if a.exact != b.exact {
			return a.exact
		}
		switch {
		case a.version != nil && b.version != nil:
			if !a.version.Equal(b.version) {
				return a.version.GreaterThan(b.version)
			}
		case a.version != nil:
			return true
		case b.version != nil:
			return false
		default:
			if a.chart.Version != b.chart.Version {
				return a.chart.Version > b.chart.Version
			}
		}
		return a.chart.Name < b.chart.Name
	})
}

package helm

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"helm.sh/helm/v3/pkg/action"
	"helm.sh/helm/v3/pkg/chart"
	"helm.sh/helm/v3/pkg/chartutil"
	"helm.sh/helm/v3/pkg/helmpath"
	kubefake "helm.sh/helm/v3/pkg/kube/fake"
	"helm.sh/helm/v3/pkg/release"
	"helm.sh/helm/v3/pkg/repo"
	"helm.sh/helm/v3/pkg/storage"
	"helm.sh/helm/v3/pkg/storage/driver"
	helmtime "helm.sh/helm/v3/pkg/time"

	"github.com/k8s-versions/k8s-versions/pkg/types"
)

func testRelease(name, namespace, chartName, chartVersion string, revision int, status release.Status) *release.Release {
	return &release.Release{
		Name:      name,
		Namespace: namespace,
		Version:   revision,
		Info: &release.Info{
			Status:       status,
			Description:  "Install complete",
			LastDeployed: helmtime.Time{Time: time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)},
		},
		Chart: &chart.Chart{Metadata: &chart.Metadata{
			Name:       chartName,
			Version:    chartVersion,
			AppVersion: "1.25.3",
			APIVersion: chart.APIVersionV2,
		}},
	}
}

// memoryClient returns a Client whose releases live in an in-memory driver.
func memoryClient(t *testing.T, releases ...*release.Release) *Client {
	t.Helper()

	c := NewClient(Config{})
	c.actionConfig = func(namespace string) (*action.Configuration, error) {
		mem := driver.NewMemory()
		mem.SetNamespace(namespace)
		store := storage.Init(mem)
		for _, rel := range releases {
			require.NoError(t, store.Create(rel))
		}
		return &action.Configuration{
			Releases:     store,
			KubeClient:   &kubefake.PrintingKubeClient{Out: io.Discard},
			Capabilities: chartutil.DefaultCapabilities,
			Log:          func(string, ...interface{}) {},
		}, nil
	}
	return c
}

func TestListReleases(t *testing.T) {
	c := memoryClient(t,
		testRelease("nginx", "default", "nginx", "15.4.4", 1, release.StatusSuperseded),
		testRelease("nginx", "default", "nginx", "15.4.4", 2, release.StatusDeployed),
		testRelease("redis", "cache", "redis", "18.0.0", 1, release.StatusFailed),
	)

	releases, err := c.ListReleases(context.Background(), "default")
	require.NoError(t, err)
	require.Len(t, releases, 1)

	assert.Equal(t, types.PackageRelease{
		Name:        "nginx",
		Namespace:   "default",
		Revision:    2,
		Updated:     "2025-03-04 10:00:00 +0000 UTC",
		Status:      "deployed",
		Chart:       "nginx-15.4.4",
		AppVersion:  "1.25.3",
		Description: "Install complete",
	}, releases[0])

	all, err := c.ListReleases(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestListReleasesByStatus(t *testing.T) {
	c := memoryClient(t,
		testRelease("nginx", "default", "nginx", "15.4.4", 1, release.StatusDeployed),
		testRelease("broken", "default", "broken", "0.1.0", 1, release.StatusFailed),
	)

	failed, err := c.ListReleasesByStatus(context.Background(), "", "failed")
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "broken", failed[0].Name)

	none, err := c.ListReleasesByStatus(context.Background(), "", "pending-install")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestListReleasesErrors(t *testing.T) {
	c := NewClient(Config{})
	c.actionConfig = func(string) (*action.Configuration, error) {
		return nil, errors.New("no kubeconfig")
	}

	_, err := c.ListReleases(context.Background(), "default")
	assert.ErrorContains(t, err, "no kubeconfig")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = memoryClient(t).ListReleases(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)
}

func writeRepos(t *testing.T, charts map[string][]*chart.Metadata) Config {
	t.Helper()

	dir := t.TempDir()
	cfg := Config{
		RepositoryConfig: filepath.Join(dir, "repositories.yaml"),
		RepositoryCache:  filepath.Join(dir, "cache"),
	}
	require.NoError(t, os.MkdirAll(cfg.RepositoryCache, 0o755))

	file := repo.NewFile()
	for repoName, metadata := range charts {
		file.Update(&repo.Entry{Name: repoName, URL: "https://charts.example.com/" + repoName})

		index := repo.NewIndexFile()
		for _, md := range metadata {
			md.APIVersion = chart.APIVersionV2
			require.NoError(t, index.MustAdd(md, md.Name+"-"+md.Version+".tgz", "https://charts.example.com/"+repoName, ""))
		}
		index.SortEntries()
		require.NoError(t, index.WriteFile(filepath.Join(cfg.RepositoryCache, helmpath.CacheIndexFile(repoName)), 0o644))
	}
	require.NoError(t, file.WriteFile(cfg.RepositoryConfig, 0o644))

	return cfg
}

func TestLookupChartVersions(t *testing.T) {
	cfg := writeRepos(t, map[string][]*chart.Metadata{
		"bitnami": {
			{Name: "nginx", Version: "15.4.4", AppVersion: "1.25.3"},
			{Name: "nginx", Version: "15.5.1", AppVersion: "1.25.4", Description: "NGINX Open Source"},
			{Name: "nginx", Version: "9.9.0"},
			{Name: "nginx-ingress-controller", Version: "99.0.0"},
			{Name: "redis", Version: "18.0.0"},
		},
		"mirror": {
			{Name: "nginx", Version: "16.0.0-rc.1"},
		},
	})
	// A repository whose index was never fetched is skipped.
	file, err := repo.LoadFile(cfg.RepositoryConfig)
	require.NoError(t, err)
	file.Update(&repo.Entry{Name: "stale", URL: "https://charts.example.com/stale"})
	require.NoError(t, file.WriteFile(cfg.RepositoryConfig, 0o644))

	c := NewClient(cfg)

	versions, err := c.LookupChartVersions(context.Background(), "NGINX")
	require.NoError(t, err)
	require.Len(t, versions, 5)

	got := make([]string, 0, len(versions))
	for _, v := range versions {
		got = append(got, v.Name+"@"+v.Version)
	}
	assert.Equal(t, []string{
		"mirror/nginx@16.0.0-rc.1",
		"bitnami/nginx@15.5.1",
		"bitnami/nginx@15.4.4",
		"bitnami/nginx@9.9.0",
		"bitnami/nginx-ingress-controller@99.0.0",
	}, got)
	assert.Equal(t, "1.25.4", versions[1].AppVersion)
	assert.Equal(t, "NGINX Open Source", versions[1].Description)

	none, err := c.LookupChartVersions(context.Background(), "postgresql")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestLookupChartVersionsWithoutRepositories(t *testing.T) {
	c := NewClient(Config{
		RepositoryConfig: filepath.Join(t.TempDir(), "missing.yaml"),
		RepositoryCache:  t.TempDir(),
	})

	versions, err := c.LookupChartVersions(context.Background(), "nginx")
	require.NoError(t, err)
	assert.NotNil(t, versions)
	assert.Empty(t, versions)
}

func TestLookupChartVersionsCanceled(t *testing.T) {
	cfg := writeRepos(t, map[string][]*chart.Metadata{"bitnami": {{Name: "nginx", Version: "1.0.0"}}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(cfg).LookupChartVersions(ctx, "nginx")
	assert.ErrorIs(t, err, context.Canceled)
}

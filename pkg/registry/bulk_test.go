package registry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-containerregistry/pkg/name"
	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/k8s-versions/k8s-versions/pkg/types"
)

func writeWatchList(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "images.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadWatchList(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		expectErr   string
		expectCount int
	}{
		{
			name: "valid",
			content: `apiVersion: k8s-versions/v1alpha1
kind: ImageWatchList
images:
  - image: nginx:1.25.3
    maxTags: 3
  - image: ghcr.io/org/app:v2.0.0
    exclude: "-rc"
`,
			expectCount: 2,
		},
		{
			name:      "missing image",
			content:   "images:\n  - maxTags: 3\n",
			expectErr: "image is required",
		},
		{
			name:      "invalid reference",
			content:   "images:\n  - image: UPPER/case:1\n",
			expectErr: "line 2",
		},
		{
			name:      "invalid exclude",
			content:   "images:\n  - image: nginx:1\n    exclude: \"(\"\n",
			expectErr: "invalid regex for exclude",
		},
		{
			name:      "empty",
			content:   "kind: ImageWatchList\n",
			expectErr: "has no images",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wl, err := LoadWatchList(writeWatchList(t, tt.content))
			if tt.expectErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, wl.Images, tt.expectCount)
			assert.Equal(t, 3, wl.Images[0].MaxTags)
			assert.NotNil(t, wl.Images[1].excludePattern)
		})
	}

	_, err := LoadWatchList(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSpecsFor(t *testing.T) {
	specs := SpecsFor([]string{"nginx:1", "", "redis:7", "nginx:1"}, 5)
	require.Len(t, specs, 2)
	assert.Equal(t, "nginx:1", specs[0].Image)
	assert.Equal(t, "redis:7", specs[1].Image)
	assert.Equal(t, 5, specs[1].MaxTags)
}

func TestFindAll(t *testing.T) {
	var inFlight, peak atomic.Int64
	mockTagLister(t, func(repo name.Repository) ([]string, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}

		switch {
		case strings.HasSuffix(repo.RepositoryStr(), "nginx"):
			return []string{"1.25.3", "1.26.0", "1.27.0", "1.27.1-rc1"}, nil
		case strings.HasSuffix(repo.RepositoryStr(), "broken"):
			return nil, errors.New("denied")
		default:
			return []string{"7.2.4", "7.4.0", "8.0.0-alpine"}, nil
		}
	})

	specs := []ImageSpec{
		{Image: "nginx:1.25.3"},
		{Image: "ghcr.io/org/broken:1.0.0"},
		{Image: "redis:7.2.4", MaxTags: 1},
	}

	updates, err := testFinder().FindAll(context.Background(), specs, 2)
	require.Error(t, err)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	require.Len(t, merr.Errors, 1)
	assert.Contains(t, merr.Errors[0].Error(), "ghcr.io/org/broken:1.0.0")

	require.Len(t, updates, 2)
	assert.Equal(t, "nginx:1.25.3", updates[0].Image)
	assert.Equal(t, []string{"1.27.0", "1.26.0"}, updates[0].NewerTags)
	assert.Equal(t, "redis:7.2.4", updates[1].Image)
	assert.Equal(t, []string{"7.4.0"}, updates[1].NewerTags)
	assert.LessOrEqual(t, peak.Load(), int64(2))
}

func TestFindAllExclude(t *testing.T) {
	tests := []struct {
		name           string
		tags           []string
		watchList      string
		expectTags     []string
		expectLatest   string
		expectSeverity types.Severity
	}{
		{
			name:           "severity follows the remaining latest tag",
			tags:           []string{"1.0.0", "1.1.0", "2.0.0"},
			watchList:      "images:\n  - image: app:1.0.0\n    exclude: \"^2\\\\.\"\n",
			expectTags:     []string{"1.1.0"},
			expectLatest:   "1.1.0",
			expectSeverity: types.SeverityLow,
		},
		{
			name:           "exclude runs before the maxTags cap",
			tags:           []string{"1.0.0", "1.1.0", "1.2.0", "2.0.0", "2.1.0"},
			watchList:      "images:\n  - image: app:1.0.0\n    maxTags: 2\n    exclude: \"^2\\\\.\"\n",
			expectTags:     []string{"1.2.0", "1.1.0"},
			expectLatest:   "1.2.0",
			expectSeverity: types.SeverityLow,
		},
		{
			name:      "everything excluded",
			tags:      []string{"1.0.0", "1.0.1"},
			watchList: "images:\n  - image: app:1.0.0\n    exclude: \".*\"\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockTagLister(t, func(name.Repository) ([]string, error) {
				return tt.tags, nil
			})

			wl, err := LoadWatchList(writeWatchList(t, tt.watchList))
			require.NoError(t, err)

			updates, err := testFinder().FindAll(context.Background(), wl.Images, 1)
			require.NoError(t, err)
			require.Len(t, updates, 1)
			if tt.expectTags == nil {
				assert.Empty(t, updates[0].NewerTags)
			} else {
				assert.Equal(t, tt.expectTags, updates[0].NewerTags)
			}
			assert.Equal(t, tt.expectLatest, updates[0].LatestVersion)
			assert.Equal(t, tt.expectSeverity, updates[0].Severity)
		})
	}
}

func TestFindAllCanceled(t *testing.T) {
	mockTagLister(t, func(name.Repository) ([]string, error) {
		return []string{"1.0.0"}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testFinder().FindAll(ctx, SpecsFor([]string{"a:1", "b:1"}, 0), 1)
	assert.ErrorIs(t, err, context.Canceled)
}

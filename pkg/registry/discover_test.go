package registry

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/go-containerregistry/pkg/name"
	"github.com/google/go-containerregistry/pkg/v1/remote/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/k8s-versions/k8s-versions/pkg/types"
)

func mockTagLister(t *testing.T, fn func(repo name.Repository) ([]string, error)) {
	t.Helper()
	orig := listAllTags
	listAllTags = func(_ context.Context, repo name.Repository) ([]string, error) {
		return fn(repo)
	}
	t.Cleanup(func() { listAllTags = orig })
}

func testFinder() *Finder {
	f := NewFinder(0, 1000)
	f.backoff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return f
}

func TestParseImage(t *testing.T) {
	digest := "sha256:" + "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

	tests := []struct {
		image     string
		expected  ImageRef
		expectErr bool
	}{
		{
			image:    "nginx",
			expected: ImageRef{Repository: "docker.io/library/nginx", Familiar: "nginx", Tag: "latest"},
		},
		{
			image:    "nginx:1.21.0",
			expected: ImageRef{Repository: "docker.io/library/nginx", Familiar: "nginx", Tag: "1.21.0"},
		},
		{
			image:    "ghcr.io/org/app:v2.3.1",
			expected: ImageRef{Repository: "ghcr.io/org/app", Familiar: "ghcr.io/org/app", Tag: "v2.3.1"},
		},
		{
			image:    "localhost:5000/team/api:1.0",
			expected: ImageRef{Repository: "localhost:5000/team/api", Familiar: "localhost:5000/team/api", Tag: "1.0"},
		},
		{
			image:    "nginx@" + digest,
			expected: ImageRef{Repository: "docker.io/library/nginx", Familiar: "nginx", Digest: digest},
		},
		{
			image:    "nginx:1.25@" + digest,
			expected: ImageRef{Repository: "docker.io/library/nginx", Familiar: "nginx", Tag: "1.25", Digest: digest},
		},
		{
			image:     "UPPER/case:1",
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.image, func(t *testing.T) {
			ref, err := ParseImage(tt.image)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ref)
			assert.Equal(t, tt.expected.Digest != "", ref.Pinned())
		})
	}
}

func TestNewerTags(t *testing.T) {
	tags := []string{"1.21.0", "1.21.6", "1.25.3", "1.25.3-alpine", "latest", "mainline", "2.0.0-rc.1", "1.9.0", "1.21"}

	tests := []struct {
		name     string
		current  string
		exclude  string
		expected []string
	}{
		{
			name:     "release",
			current:  "1.21.0",
			expected: []string{"1.25.3", "1.21.6"},
		},
		{
			name:     "newest",
			current:  "1.25.3",
			expected: []string{},
		},
		{
			name:     "prerelease current",
			current:  "2.0.0-beta.1",
			expected: []string{"2.0.0-rc.1"},
		},
		{
			name:     "not semver",
			current:  "latest",
			expected: []string{"1.25.3", "1.21.6", "1.21.0", "1.21", "1.9.0"},
		},
		{
			name:     "excluded",
			current:  "1.21.0",
			exclude:  `^1\.25\.`,
			expected: []string{"1.21.6"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var exclude *regexp.Regexp
			if tt.exclude != "" {
				exclude = regexp.MustCompile(tt.exclude)
			}
			assert.Equal(t, tt.expected, newerTags(tags, tt.current, exclude))
		})
	}
}

func TestFindImageUpdates(t *testing.T) {
	var listed []string
	mockTagLister(t, func(repo name.Repository) ([]string, error) {
		listed = append(listed, repo.Name())
		return []string{"1.21.0", "1.22.1", "1.25.3", "1.27.0", "1.27.1", "stable"}, nil
	})

	update, err := testFinder().FindImageUpdates(context.Background(), "nginx:1.21.0", 3)
	require.NoError(t, err)

	assert.Equal(t, []string{"index.docker.io/library/nginx"}, listed)
	assert.Equal(t, &types.ImageUpdate{
		Image:          "nginx:1.21.0",
		Repository:     "docker.io/library/nginx",
		CurrentVersion: "1.21.0",
		LatestVersion:  "1.27.1",
		NewerTags:      []string{"1.27.1", "1.27.0", "1.25.3"},
		Severity:       types.SeverityMedium,
	}, update)
}

func TestFindImageUpdatesPinned(t *testing.T) {
	mockTagLister(t, func(name.Repository) ([]string, error) {
		t.Fatal("pinned images must not list tags")
		return nil, nil
	})

	update, err := testFinder().FindImageUpdates(context.Background(),
		"nginx@sha256:0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef", 0)
	require.NoError(t, err)
	assert.True(t, update.Pinned)
	assert.Empty(t, update.CurrentVersion)
	assert.NotNil(t, update.NewerTags)
	assert.Empty(t, update.NewerTags)
}

func TestFindImageUpdatesRetries(t *testing.T) {
	calls := 0
	mockTagLister(t, func(name.Repository) ([]string, error) {
		calls++
		if calls < 3 {
			return nil, &transport.Error{StatusCode: http.StatusServiceUnavailable}
		}
		return []string{"7.2.4", "7.4.0"}, nil
	})

	update, err := testFinder().FindImageUpdates(context.Background(), "redis:7.2.4", 0)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, "7.4.0", update.LatestVersion)
	assert.Equal(t, types.SeverityLow, update.Severity)
}

func TestFindImageUpdatesPermanentError(t *testing.T) {
	calls := 0
	mockTagLister(t, func(name.Repository) ([]string, error) {
		calls++
		return nil, &transport.Error{StatusCode: http.StatusUnauthorized}
	})

	_, err := testFinder().FindImageUpdates(context.Background(), "private/app:1.0.0", 0)
	require.Error(t, err)
	assert.Equal(t, 1, calls)

	var terr *transport.Error
	assert.True(t, errors.As(err, &terr))
}

func TestFindImageUpdatesGivesUp(t *testing.T) {
	calls := 0
	mockTagLister(t, func(name.Repository) ([]string, error) {
		calls++
		return nil, &transport.Error{StatusCode: http.StatusBadGateway}
	})

	_, err := testFinder().FindImageUpdates(context.Background(), "app:1.0.0", 0)
	require.Error(t, err)
	assert.Equal(t, maxRetries+1, calls)
}

func TestFindImageUpdatesInvalidImage(t *testing.T) {
	_, err := testFinder().FindImageUpdates(context.Background(), "Not A Valid Image", 0)
	assert.Error(t, err)
}

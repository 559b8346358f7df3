// Package registry discovers newer tags for container images.
package registry

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/name"
	"github.com/google/go-containerregistry/pkg/v1/remote"
	"github.com/google/go-containerregistry/pkg/v1/remote/transport"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/k8s-versions/k8s-versions/pkg/types"
	"github.com/k8s-versions/k8s-versions/pkg/version"
)

const (
	DefaultTimeout    = 30 * time.Second
	DefaultMaxTags    = 10
	DefaultRatePerSec = 5
	maxRetries        = 3
)

// listAllTags is replaced in tests.
var listAllTags = func(ctx context.Context, repo name.Repository) ([]string, error) {
	tags, err := remote.List(repo, remote.WithContext(ctx), remote.WithAuthFromKeychain(authn.DefaultKeychain))
	if err != nil {
		return nil, fmt.Errorf("failed to list tags for repository '%s': %w", repo.Name(), err)
	}
	return tags, nil
}

// Finder looks up registry tags newer than the one an image runs.
type Finder struct {
	timeout time.Duration
	limiter *rate.Limiter
	backoff func() backoff.BackOff
}

// NewFinder creates a Finder. Registry calls are paced to ratePerSec and
// each lookup is bounded by timeout. Zero values select the defaults.
func NewFinder(timeout time.Duration, ratePerSec float64) *Finder {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if ratePerSec <= 0 {
		ratePerSec = DefaultRatePerSec
	}
	return &Finder{
		timeout: timeout,
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), 1),
		backoff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
	}
}

// FindImageUpdates lists the semver tags of image's repository that are
// newer than its current tag, newest first, keeping at most maxTags.
// Images pinned only by digest are reported with Pinned set and no tag listing.
func (f *Finder) FindImageUpdates(ctx context.Context, image string, maxTags int) (*types.ImageUpdate, error) {
	return f.findImageUpdates(ctx, image, maxTags, nil)
}

// findImageUpdates drops tags matching exclude before applying the maxTags cap.
func (f *Finder) findImageUpdates(ctx context.Context, image string, maxTags int, exclude *regexp.Regexp) (*types.ImageUpdate, error) {
	if maxTags <= 0 {
		maxTags = DefaultMaxTags
	}

	ref, err := ParseImage(image)
	if err != nil {
		return nil, err
	}

	update := &types.ImageUpdate{
		Image:          image,
		Repository:     ref.Repository,
		CurrentVersion: ref.Tag,
		NewerTags:      []string{},
		Pinned:         ref.Pinned(),
	}
	if ref.Tag == "" {
		log.Debugf("Image %s is pinned by digest, not listing tags", image)
		return update, nil
	}

	repo, err := name.NewRepository(ref.Repository)
	if err != nil {
		return nil, fmt.Errorf("failed to parse repository name '%s': %w", ref.Repository, err)
	}

	tags, err := f.listTags(ctx, repo)
	if err != nil {
		return nil, err
	}

	newer := newerTags(tags, ref.Tag, exclude)
	if len(newer) > maxTags {
		newer = newer[:maxTags]
	}

	update.NewerTags = newer
	if len(newer) > 0 {
		update.LatestVersion = newer[0]
		if _, err := semver.NewVersion(ref.Tag); err == nil {
			update.Severity = version.ScoreSeverity(ref.Tag, newer[0])
		}
	}

	log.Debugf("Found %d newer tags for %s", len(newer), image)
	return update, nil
}

func (f *Finder) listTags(ctx context.Context, repo name.Repository) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	var tags []string
	operation := func() error {
		if err := f.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		var err error
		tags, err = listAllTags(ctx, repo)
		if err != nil && !transient(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		log.Debugf("Listing tags for %s failed, retrying in %v: %v", repo.Name(), wait, err)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(f.backoff(), maxRetries), ctx)
	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return nil, err
	}
	return tags, nil
}

// transient reports whether a registry error is worth retrying.
func transient(err error) bool {
	var terr *transport.Error
	if errors.As(err, &terr) {
		return terr.Temporary()
	}
	return false
}

// newerTags returns the tags that parse as semver and are greater than
// current, newest first. Pre-releases are only considered when current is
// itself a pre-release. When current is not semver every release tag counts.
// Tags matching exclude are skipped.
func newerTags(tags []string, current string, exclude *regexp.Regexp) []string {
	cur, curErr := semver.NewVersion(current)
	allowPrerelease := curErr == nil && cur.Prerelease() != ""

	versions := make([]*semver.Version, 0, len(tags))
	for _, t := range tags {
		if exclude != nil && exclude.MatchString(t) {
			continue
		}
		v, err := semver.NewVersion(t)
		if err != nil {
			continue
		}
		if v.Prerelease() != "" && !allowPrerelease {
			continue
		}
		if curErr == nil && !v.GreaterThan(cur) {
			continue
		}
		versions = append(versions, v)
	}

	sort.Stable(sort.Reverse(semver.Collection(versions)))

	out := make([]string, len(versions))
	for i, v := range versions {
		out[i] = v.Original()
	}
	return out
}

// Package eol queries endoflife.date for Kubernetes and node OS support status.
package eol

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"

	"github.com/k8s-versions/k8s-versions/pkg/types"
)

const (
	DefaultAPIBaseURL = "https://endoflife.date/api/v1/products"
	userAgent         = "k8s-versions"
)

// ErrNotFound is returned when the product release is unknown to the API.
var ErrNotFound = errors.New("release not found in EOL database")

type productInfo struct {
	IsEOL        bool   `json:"isEol"`
	EOLDate      string `json:"eolFrom"`
	IsMaintained bool   `json:"isMaintained"`
}

type apiResponse struct {
	SchemaVersion string      `json:"schema_version"`
	GeneratedAt   string      `json:"generated_at"`
	Result        productInfo `json:"result"`
}

// Checker looks up release support windows.
type Checker struct {
	baseURL    string
	httpClient *http.Client
	backoff    func() backoff.BackOff
}

// NewChecker creates a Checker against baseURL, or DefaultAPIBaseURL when empty.
func NewChecker(baseURL string) *Checker {
	if baseURL == "" {
		baseURL = DefaultAPIBaseURL
	}
	return &Checker{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		backoff:    rateLimitBackOff,
	}
}

// rateLimitBackOff retries 429 responses at 1s, 2s, 4s, 8s, giving up after 15s.
func rateLimitBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = 8 * time.Second
	b.MaxElapsedTime = 15 * time.Second
	return b
}

// CheckKubernetes reports the support status of the minor release of
// gitVersion (e.g. "v1.29.2" checks release "1.29").
func (c *Checker) CheckKubernetes(ctx context.Context, gitVersion string) (*types.EOLStatus, error) {
	release := kubernetesRelease(gitVersion)
	if release == "" {
		return nil, fmt.Errorf("cannot derive a Kubernetes release from version %q", gitVersion)
	}
	return c.check(ctx, "kubernetes", release)
}

// CheckNodeOS reports the support status of a node's OS image, such as
// "Ubuntu 22.04.4 LTS" or "Debian GNU/Linux 12 (bookworm)".
func (c *Checker) CheckNodeOS(ctx context.Context, osImage string) (*types.EOLStatus, error) {
	osType, osVersion := splitOSImage(osImage)
	if osType == "" || osVersion == "" {
		return nil, fmt.Errorf("cannot derive an OS release from image %q", osImage)
	}

	product, release := normalizeOSIdentifier(osType, osVersion)
	if product == "" || release == "" {
		return nil, fmt.Errorf("cannot normalize OS %s %s", osType, osVersion)
	}
	return c.check(ctx, product, release)
}

func (c *Checker) check(ctx context.Context, product, release string) (*types.EOLStatus, error) {
	url := fmt.Sprintf("%s/%s/releases/%s", c.baseURL, product, release)
	log.Debugf("EOL Check: Querying URL: %s", url)

	var body []byte
	operation := func() error {
		resp, err := c.get(ctx, url)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to call EOL API for %s/%s: %w", product, release, err))
		}
		defer resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusOK:
			body, err = io.ReadAll(resp.Body)
			if err != nil {
				return backoff.Permanent(fmt.Errorf("failed to read EOL API response body for %s/%s: %w", product, release, err))
			}
			return nil
		case http.StatusTooManyRequests:
			return fmt.Errorf("rate limited by EOL API for %s/%s", product, release)
		case http.StatusNotFound:
			return backoff.Permanent(fmt.Errorf("%s/%s: %w", product, release, ErrNotFound))
		default:
			msg, _ := io.ReadAll(resp.Body)
			return backoff.Permanent(fmt.Errorf("EOL API for %s/%s returned non-OK status: %d - %s", product, release, resp.StatusCode, string(msg)))
		}
	}

	notify := func(err error, wait time.Duration) {
		log.Debugf("EOL Check: %v, retrying in %v", err, wait)
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(c.backoff(), ctx), notify); err != nil {
		return nil, err
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		log.Debugf("EOL Check: Failed to unmarshal API response for %s/%s. Body: %s. Error: %v", product, release, string(body), err)
		return nil, fmt.Errorf("failed to unmarshal EOL API response for %s/%s: %w", product, release, err)
	}

	info := parsed.Result
	eolDate := info.EOLDate
	if eolDate == "" || strings.EqualFold(eolDate, "null") {
		eolDate = "Unknown"
	}

	return &types.EOLStatus{
		Release:      product + " " + release,
		IsEOL:        info.IsEOL || !info.IsMaintained,
		EOLDate:      eolDate,
		IsMaintained: info.IsMaintained,
	}, nil
}

func (c *Checker) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create EOL API request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	return c.httpClient.Do(req)
}

// kubernetesRelease trims a server git version down to "<major>.<minor>".
func kubernetesRelease(gitVersion string) string {
	v := strings.TrimPrefix(strings.TrimSpace(gitVersion), "v")
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		v = v[:i]
	}
	parts := strings.Split(v, ".")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return ""
	}
	return parts[0] + "." + parts[1]
}

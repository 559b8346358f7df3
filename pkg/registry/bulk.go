package registry

import (
	"context"
	"fmt"
	"os"
	"regexp"

	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/k8s-versions/k8s-versions/pkg/types"
)

// DefaultConcurrency bounds concurrent image lookups in FindAll.
const DefaultConcurrency = 4

// WatchList is a YAML file naming the images to check for newer tags.
type WatchList struct {
	APIVersion string      `yaml:"apiVersion"`
	Kind       string      `yaml:"kind"`
	Images     []ImageSpec `yaml:"images"`
}

// ImageSpec is one image to check. Exclude drops tags matching the pattern.
type ImageSpec struct {
	Image   string `yaml:"image"`
	MaxTags int    `yaml:"maxTags,omitempty"`
	Exclude string `yaml:"exclude,omitempty"`

	excludePattern *regexp.Regexp
}

func (s *ImageSpec) UnmarshalYAML(node *yaml.Node) error {
	type rawImageSpec ImageSpec
	raw := rawImageSpec{}

	if err := node.Decode(&raw); err != nil {
		return err
	}
	if raw.Image == "" {
		return fmt.Errorf("line %d: image is required", node.Line)
	}
	if _, err := ParseImage(raw.Image); err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	if raw.Exclude != "" {
		re, err := regexp.Compile(raw.Exclude)
		if err != nil {
			return fmt.Errorf("invalid regex for exclude '%s': %w", raw.Exclude, err)
		}
		raw.excludePattern = re
	}

	*s = ImageSpec(raw)
	return nil
}

// LoadWatchList reads and validates a watch list file.
func LoadWatchList(path string) (*WatchList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read watch list %s: %w", path, err)
	}

	var wl WatchList
	if err := yaml.Unmarshal(data, &wl); err != nil {
		return nil, fmt.Errorf("failed to parse YAML from %s: %w", path, err)
	}
	if len(wl.Images) == 0 {
		return nil, fmt.Errorf("watch list %s has no images", path)
	}
	return &wl, nil
}

// SpecsFor builds specs for plain image references, dropping duplicates.
func SpecsFor(images []string, maxTags int) []ImageSpec {
	specs := make([]ImageSpec, 0, len(images))
	seen := make(map[string]bool, len(images))
	for _, image := range images {
		if image == "" || seen[image] {
			continue
		}
		seen[image] = true
		specs = append(specs, ImageSpec{Image: image, MaxTags: maxTags})
	}
	return specs
}

// FindAll checks every spec with at most concurrency lookups in flight.
// Results keep the input order; failed images are left out and their errors
// returned together.
func (f *Finder) FindAll(ctx context.Context, specs []ImageSpec, concurrency int) ([]*types.ImageUpdate, error) {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}

	results := make([]*types.ImageUpdate, len(specs))
	errs := make([]error, len(specs))

	log.Infof("Checking %d image(s) for newer tags...", len(specs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, spec := range specs {
		g.Go(func() error {
			update, err := f.findImageUpdates(gctx, spec.Image, spec.MaxTags, spec.excludePattern)
			if err != nil {
				log.Warnf("--> Failed to check %s: %v", spec.Image, err)
				errs[i] = fmt.Errorf("error checking '%s': %w", spec.Image, err)
				return nil
			}
			results[i] = update
			return nil
		})
	}
	_ = g.Wait()

	var multiErr *multierror.Error
	out := make([]*types.ImageUpdate, 0, len(specs))
	for i := range specs {
		if errs[i] != nil {
			multiErr = multierror.Append(multiErr, errs[i])
			continue
		}
		out = append(out, results[i])
	}

	if err := ctx.Err(); err != nil {
		return out, err
	}
	return out, multiErr.ErrorOrNil()
}

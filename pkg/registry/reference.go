package registry

import (
	"fmt"

	"github.com/distribution/reference"
)

// ImageRef is a parsed container image reference.
type ImageRef struct {
	// Repository is the fully qualified repository, e.g. docker.io/library/nginx.
	Repository string
	// Familiar is the short form users type, e.g. nginx.
	Familiar string
	Tag      string
	Digest   string
}

// Pinned reports whether the reference is pinned by digest.
func (r ImageRef) Pinned() bool {
	return r.Digest != ""
}

// ParseImage normalizes image ("nginx", "nginx:1.25", "ghcr.io/org/app@sha256:...")
// into its repository, tag and digest. A reference with neither tag nor
// digest gets the implicit "latest" tag.
func ParseImage(image string) (ImageRef, error) {
	named, err := reference.ParseNormalizedNamed(image)
	if err != nil {
		return ImageRef{}, fmt.Errorf("failed to parse image reference %s: %w", image, err)
	}

	ref := ImageRef{
		Repository: named.Name(),
		Familiar:   reference.FamiliarName(named),
	}

	if digested, ok := named.(reference.Digested); ok {
		ref.Digest = digested.Digest().String()
	}
	if tagged, ok := named.(reference.Tagged); ok {
		ref.Tag = tagged.Tag()
	}
	if ref.Tag == "" && ref.Digest == "" {
		ref.Tag = reference.TagNameOnly(named).(reference.Tagged).Tag()
	}

	return ref, nil
}

package version

import "strings"

// DefaultTag is reported for image references that carry no tag.
const DefaultTag = "latest"

// ImageVersion is an image reference split into name and tag.
type ImageVersion struct {
	Name    string
	Version string
}

// SplitImage splits an image reference on its last ":". Everything before
// it is kept as the name so registry ports survive
// ("registry.local:5000/app:1.2.3" -> "registry.local:5000/app", "1.2.3").
// References without a ":" report DefaultTag.
func SplitImage(image string) ImageVersion {
	parts := strings.Split(image, ":")
	if len(parts) < 2 {
		return ImageVersion{Name: image, Version: DefaultTag}
	}

	tag := parts[len(parts)-1]
	if tag == "" {
		tag = DefaultTag
	}
	return ImageVersion{
		Name:    strings.Join(parts[:len(parts)-1], ":"),
		Version: tag,
	}
}

package version

import (
	"testing"

	"github.com/k8s-versions/k8s-versions/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		current string
		latest  string
		want    types.Status
	}{
		{name: "older minor", current: "1.2.0", latest: "1.3.0", want: types.StatusOutdated},
		{name: "newer than latest", current: "1.3.0", latest: "1.2.0", want: types.StatusUpToDate},
		{name: "equal", current: "15.5.1", latest: "15.5.1", want: types.StatusUpToDate},
		{name: "no latest", current: "1.2.0", latest: "", want: types.StatusUnknown},
		{name: "no current", current: "", latest: "1.2.0", want: types.StatusUnknown},
		{name: "prefixed versions", current: "v1.9.9", latest: "v1.10.0", want: types.StatusOutdated},
		{name: "prerelease ignored", current: "2.0.0-rc.1", latest: "2.0.0", want: types.StatusUpToDate},
		{name: "opaque tags zero filled", current: "stable", latest: "1.0.0", want: types.StatusOutdated},
		{name: "unparseable but equal", current: "v", latest: "v", want: types.StatusUpToDate},
		{name: "prefix only counts as zero", current: "v", latest: "1.0.0", want: types.StatusOutdated},
		{name: "prerelease only counts as zero", current: "-rc", latest: "1.0", want: types.StatusOutdated},
		{name: "prerelease only against zero", current: "-rc", latest: "0.0", want: types.StatusUpToDate},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.current, tc.latest))
		})
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	for i := 0; i < 10; i++ {
		assert.Equal(t, types.StatusOutdated, Classify("15.4.4", "15.5.1"))
	}
}

func TestScoreSeverity(t *testing.T) {
	tests := []struct {
		name    string
		current string
		latest  string
		want    types.Severity
	}{
		{name: "three majors behind", current: "1.0.0", latest: "4.0.0", want: types.SeverityCritical},
		{name: "two majors behind", current: "1.0.0", latest: "3.0.0", want: types.SeverityHigh},
		{name: "one major behind", current: "1.0.0", latest: "2.0.0", want: types.SeverityMedium},
		{name: "many minors behind", current: "1.0.0", latest: "1.9.0", want: types.SeverityMedium},
		{name: "five minors behind", current: "1.0.0", latest: "1.5.0", want: types.SeverityLow},
		{name: "one minor behind", current: "1.0.0", latest: "1.1.0", want: types.SeverityLow},
		{name: "patch behind", current: "15.4.4", latest: "15.5.1", want: types.SeverityLow},
		{name: "no latest", current: "1.0.0", latest: "", want: types.SeverityLow},
		{name: "ahead of latest", current: "5.0.0", latest: "1.0.0", want: types.SeverityLow},
		{name: "prefix only current", current: "v", latest: "9.0.0", want: types.SeverityCritical},
		{name: "empty current", current: "", latest: "15.5.1", want: types.SeverityCritical},
		{name: "empty current minor release", current: "", latest: "0.7.0", want: types.SeverityMedium},
		{name: "minor diff ignored across major bump", current: "1.9.0", latest: "2.0.0", want: types.SeverityMedium},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ScoreSeverity(tc.current, tc.latest))
		})
	}
}

func TestRelate(t *testing.T) {
	assert.Equal(t, types.RelationSame, Relate("1.0.0", "1.0.0"))
	assert.Equal(t, types.RelationSame, Relate("v1.0", "1.0.0"))
	assert.Equal(t, types.RelationOlder, Relate("1.0.0", "1.0.1"))
	assert.Equal(t, types.RelationNewer, Relate("2.0.0", "1.99.99"))
	assert.Equal(t, types.RelationOlder, Relate("", "1.0.0"))
	assert.Equal(t, types.RelationNewer, Relate("1.0.0", "-dev"))
	assert.Equal(t, types.RelationSame, Relate("v", "0"))
}

func TestSplitImage(t *testing.T) {
	tests := []struct {
		image string
		want  ImageVersion
	}{
		{image: "nginx:1.21.0", want: ImageVersion{Name: "nginx", Version: "1.21.0"}},
		{image: "nginx", want: ImageVersion{Name: "nginx", Version: "latest"}},
		{image: "registry:5000/app:2.0", want: ImageVersion{Name: "registry:5000/app", Version: "2.0"}},
		{image: "registry.local:5000/app:1.2.3", want: ImageVersion{Name: "registry.local:5000/app", Version: "1.2.3"}},
		{image: "quay.io/jetstack/cert-manager-controller:v1.14.4", want: ImageVersion{Name: "quay.io/jetstack/cert-manager-controller", Version: "v1.14.4"}},
		{image: "nginx:", want: ImageVersion{Name: "nginx", Version: "latest"}},
		{image: "", want: ImageVersion{Name: "", Version: "latest"}},
		{
			image: "nginx@sha256:abc123",
			want:  ImageVersion{Name: "nginx@sha256", Version: "abc123"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.image, func(t *testing.T) {
			assert.Equal(t, tc.want, SplitImage(tc.image))
		})
	}
}

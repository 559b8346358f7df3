package analyzer

import (
	"fmt"

	"github.com/k8s-versions/k8s-versions/pkg/types"
)

// Recommend derives advisory messages from an analysis, most urgent first.
func Recommend(components []types.ComponentVersion) []string {
	var critical, outdated int
	var outdatedRelease, unknown bool

	for _, c := range components {
		if c.Severity == types.SeverityCritical {
			critical++
		}
		if c.Status == types.StatusOutdated {
			outdated++
			if c.Type == types.ComponentHelmRelease {
				outdatedRelease = true
			}
		}
		if c.Status == types.StatusUnknown {
			unknown = true
		}
	}

	recommendations := make([]string, 0, 4)
	if critical > 0 {
		recommendations = append(recommendations,
			fmt.Sprintf("🚨 CRITICAL: %d component(s) are severely outdated and require immediate update", critical))
	}
	if outdated > 0 {
		recommendations = append(recommendations,
			fmt.Sprintf("⚠️  %d component(s) are outdated and should be updated", outdated))
	}
	if outdatedRelease {
		recommendations = append(recommendations,
			"📈 Consider upgrading Helm releases with 'helm upgrade' to get the latest features and security patches")
	}
	if unknown {
		recommendations = append(recommendations,
			"🔍 Some components have unknown versions. Consider adding version labels for better tracking")
	}

	return recommendations
}

package analyzer

import (
	"fmt"

	"github.com/k8s-versions/k8s-versions/pkg/types"
	"github.com/k8s-versions/k8s-versions/pkg/version"
)

var baseMigrationSteps = []string{
	"1. Back up the current state",
	"2. Test the upgrade in a development environment",
	"3. Review logs and metrics after the upgrade",
}

var upgradeMigrationSteps = []string{
	"4. Schedule a maintenance window if needed",
	"5. Run the upgrade",
	"6. Verify functionality",
	"7. Monitor for potential issues",
}

// CompareVersions compares a component's current version against a target.
// Versions with nothing numeric left compare as zeros, so the result is never "invalid".
func (a *Analyzer) CompareVersions(component, currentVersion, targetVersion string) *types.VersionComparison {
	return CompareVersions(component, currentVersion, targetVersion)
}

// CompareVersions is the stateless form of (*Analyzer).CompareVersions.
func CompareVersions(component, currentVersion, targetVersion string) *types.VersionComparison {
	relation := version.Relate(currentVersion, targetVersion)

	return &types.VersionComparison{
		Component:       component,
		CurrentVersion:  currentVersion,
		TargetVersion:   targetVersion,
		Comparison:      relation,
		Recommendation:  recommendation(relation, currentVersion, targetVersion),
		BreakingChanges: breakingChanges(currentVersion, targetVersion),
		MigrationSteps:  migrationSteps(relation),
	}
}

func recommendation(relation types.Relation, current, target string) string {
	switch relation {
	case types.RelationOlder:
		return fmt.Sprintf("✅ Upgrade recommended from %s to %s", current, target)
	case types.RelationNewer:
		return fmt.Sprintf("⚠️  Current version %s is newer than %s. Verify compatibility", current, target)
	case types.RelationSame:
		return fmt.Sprintf("ℹ️  Versions are identical (%s)", current)
	default:
		return fmt.Sprintf("❌ Cannot compare versions %s and %s", current, target)
	}
}

func breakingChanges(from, to string) []string {
	f, t := version.Parse(from), version.Parse(to)
	if t.Major() > f.Major() {
		return []string{
			fmt.Sprintf("Major version change detected (%s → %s)", from, to),
			"Review the component's migration documentation",
			"Test thoroughly before upgrading in production",
		}
	}
	return []string{}
}

func migrationSteps(relation types.Relation) []string {
	steps := make([]string, 0, len(baseMigrationSteps)+len(upgradeMigrationSteps))
	steps = append(steps, baseMigrationSteps...)
	if relation == types.RelationOlder {
		steps = append(steps, upgradeMigrationSteps...)
	}
	return steps
}

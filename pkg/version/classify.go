package version

import "github.com/k8s-versions/k8s-versions/pkg/types"

// Classify decides whether current lags behind latest. Either side being
// empty yields StatusUnknown; otherwise both are compared as tuples, so a
// version with nothing numeric left counts as 0.
func Classify(current, latest string) types.Status {
	if current == "" || latest == "" {
		return types.StatusUnknown
	}

	if CompareStrings(current, latest) < 0 {
		return types.StatusOutdated
	}
	return types.StatusUpToDate
}

// ScoreSeverity grades how far current trails latest using the major and
// minor distance only.
func ScoreSeverity(current, latest string) types.Severity {
	if latest == "" {
		return types.SeverityLow
	}

	cur, lat := Parse(current), Parse(latest)
	majorDiff := lat.Major() - cur.Major()
	minorDiff := lat.Minor() - cur.Minor()

	switch {
	case majorDiff > 2:
		return types.SeverityCritical
	case majorDiff > 1:
		return types.SeverityHigh
	case majorDiff == 1 || minorDiff > 5:
		return types.SeverityMedium
	default:
		return types.SeverityLow
	}
}

// Relate compares current against target. Parsing never fails, so the
// result is never RelationInvalid.
func Relate(current, target string) types.Relation {
	switch cmp := CompareStrings(current, target); {
	case cmp == 0:
		return types.RelationSame
	case cmp < 0:
		return types.RelationOlder
	default:
		return types.RelationNewer
	}
}

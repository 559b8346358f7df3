package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/k8s-versions/k8s-versions/pkg/tui"
	"github.com/k8s-versions/k8s-versions/pkg/types"
)

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func writeAnalysis(w io.Writer, a *types.VersionAnalysis) error {
	if _, err := io.WriteString(w, tui.RenderSummary(a.Namespace, a.Summary)+"\n"); err != nil {
		return err
	}
	if err := writeComponents(w, a.Components); err != nil {
		return err
	}
	if recs := tui.RenderRecommendations(a.Recommendations); recs != "" {
		if _, err := io.WriteString(w, "\n"+recs); err != nil {
			return err
		}
	}
	return nil
}

func writeComponents(w io.Writer, components []types.ComponentVersion) error {
	if len(components) == 0 {
		_, err := io.WriteString(w, "No components found.\n")
		return err
	}

	tw := newTabWriter(w)
	fmt.Fprintln(tw, "NAMESPACE\tNAME\tTYPE\tCURRENT\tLATEST\tSTATUS\tSEVERITY")
	for _, c := range components {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s %s\t%s\n",
			c.Namespace, c.Name, c.Type, orDash(c.CurrentVersion), orDash(c.LatestVersion),
			tui.StatusIcon(c.Status), c.Status, orDash(string(c.Severity)))
	}
	return tw.Flush()
}

func writeComparison(w io.Writer, c *types.VersionComparison) error {
	_, err := io.WriteString(w, tui.RenderComparison(c))
	return err
}

func writeImageUpdates(w io.Writer, updates []*types.ImageUpdate) error {
	if len(updates) == 1 {
		_, err := io.WriteString(w, tui.RenderImageUpdate(updates[0]))
		return err
	}

	tw := newTabWriter(w)
	fmt.Fprintln(tw, "IMAGE\tCURRENT\tLATEST\tSEVERITY\tNEWER TAGS")
	for _, u := range updates {
		latest := u.LatestVersion
		if u.Pinned {
			latest = "(pinned)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n",
			u.Image, orDash(u.CurrentVersion), orDash(latest), orDash(string(u.Severity)), len(u.NewerTags))
	}
	return tw.Flush()
}

func writeClusterInfo(w io.Writer, info *types.ClusterInfo) error {
	version := info.Version
	if info.EOL != nil {
		version += fmt.Sprintf(" (%s, EOL %s)", eolLabel(info.EOL), info.EOL.EOLDate)
	}
	fmt.Fprintf(w, "Kubernetes: %s\nNamespaces: %d  Pods: %d  Services: %d\n\n",
		version, len(info.Namespaces), info.TotalPods, info.TotalServices)

	tw := newTabWriter(w)
	fmt.Fprintln(tw, "NODE\tSTATUS\tROLES\tAGE\tVERSION\tOS\tOS SUPPORT")
	for _, n := range info.Nodes {
		support := "-"
		if n.EOL != nil {
			support = eolLabel(n.EOL)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			n.Name, n.Status, strings.Join(n.Roles, ","), n.Age, n.Version, n.OS, support)
	}
	return tw.Flush()
}

func eolLabel(s *types.EOLStatus) string {
	if s.IsEOL {
		return "end of life"
	}
	return "supported"
}

package eol

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/k8s-versions/k8s-versions/pkg/types"
)

// StatusChecker is satisfied by Checker.
type StatusChecker interface {
	CheckKubernetes(ctx context.Context, gitVersion string) (*types.EOLStatus, error)
	CheckNodeOS(ctx context.Context, osImage string) (*types.EOLStatus, error)
}

// Annotate fills in support status for the cluster and each node, querying
// every distinct OS image once. Lookup failures leave the fields nil.
func Annotate(ctx context.Context, checker StatusChecker, info *types.ClusterInfo) {
	if info.Version != "" {
		status, err := checker.CheckKubernetes(ctx, info.Version)
		if err != nil {
			log.Debugf("EOL check for Kubernetes %s failed: %v", info.Version, err)
		} else {
			info.EOL = status
		}
	}

	byImage := make(map[string]*types.EOLStatus)
	for i := range info.Nodes {
		osImage := info.Nodes[i].OSImage
		if osImage == "" {
			continue
		}
		status, seen := byImage[osImage]
		if !seen {
			var err error
			status, err = checker.CheckNodeOS(ctx, osImage)
			if err != nil {
				log.Debugf("EOL check for node OS %q failed: %v", osImage, err)
				status = nil
			}
			byImage[osImage] = status
		}
		info.Nodes[i].EOL = status
	}
}

// Annotate is Annotate with c as the checker.
func (c *Checker) Annotate(ctx context.Context, info *types.ClusterInfo) {
	Annotate(ctx, c, info)
}

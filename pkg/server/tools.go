package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/k8s-versions/k8s-versions/pkg/types"
)

// Tool describes a callable tool in tools/list.
type Tool struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema inputSchema `json:"inputSchema"`
}

type inputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

type property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

type toolHandler func(ctx context.Context, args json.RawMessage) (any, error)

type toolDef struct {
	Tool
	handler toolHandler
}

var namespaceProperty = property{Type: "string", Description: "Namespace to inspect (optional, defaults to all namespaces)"}

func (s *Server) tools() []toolDef {
	return []toolDef{
		{
			Tool: Tool{
				Name:        "get_pods",
				Description: "Get information about pods in Kubernetes",
				InputSchema: inputSchema{Type: "object", Properties: map[string]property{
					"namespace": namespaceProperty,
					"selector":  {Type: "string", Description: "Label selector (optional)"},
				}},
			},
			handler: s.getPods,
		},
		{
			Tool: Tool{
				Name:        "get_services",
				Description: "Get information about services in Kubernetes",
				InputSchema: inputSchema{Type: "object", Properties: map[string]property{
					"namespace": namespaceProperty,
				}},
			},
			handler: s.getServices,
		},
		{
			Tool: Tool{
				Name:        "get_helm_releases",
				Description: "Get information about Helm releases",
				InputSchema: inputSchema{Type: "object", Properties: map[string]property{
					"namespace": namespaceProperty,
					"status":    {Type: "string", Description: "Filter by status (deployed, failed, etc.)"},
				}},
			},
			handler: s.getHelmReleases,
		},
		{
			Tool: Tool{
				Name:        "get_cluster_info",
				Description: "Get general information about the cluster",
				InputSchema: inputSchema{Type: "object", Properties: map[string]property{}},
			},
			handler: s.getClusterInfo,
		},
		{
			Tool: Tool{
				Name:        "analyze_versions",
				Description: "Analyze versions of components in the cluster",
				InputSchema: inputSchema{Type: "object", Properties: map[string]property{
					"namespace": namespaceProperty,
					"component": {Type: "string", Description: "Only analyze components whose name contains this value (optional)"},
				}},
			},
			handler: s.analyzeVersions,
		},
		{
			Tool: Tool{
				Name:        "compare_versions",
				Description: "Compare two versions of a component",
				InputSchema: inputSchema{
					Type: "object",
					Properties: map[string]property{
						"component":      {Type: "string", Description: "Component name"},
						"currentVersion": {Type: "string", Description: "Current version"},
						"targetVersion":  {Type: "string", Description: "Target version"},
					},
					Required: []string{"component", "currentVersion", "targetVersion"},
				},
			},
			handler: s.compareVersions,
		},
		{
			Tool: Tool{
				Name:        "get_outdated_components",
				Description: "Get outdated components",
				InputSchema: inputSchema{Type: "object", Properties: map[string]property{
					"namespace": namespaceProperty,
				}},
			},
			handler: s.getOutdatedComponents,
		},
		{
			Tool: Tool{
				Name:        "check_image_updates",
				Description: "List registry tags newer than the tag a container image runs",
				InputSchema: inputSchema{
					Type: "object",
					Properties: map[string]property{
						"image":   {Type: "string", Description: "Image reference, e.g. nginx:1.25.3"},
						"maxTags": {Type: "integer", Description: "Maximum number of newer tags to return (optional)"},
					},
					Required: []string{"image"},
				},
			},
			handler: s.checkImageUpdates,
		},
	}
}

// Tools returns the descriptors advertised by tools/list.
func (s *Server) Tools() []Tool {
	defs := s.tools()
	out := make([]Tool, 0, len(defs))
	for _, d := range defs {
		out = append(out, d.Tool)
	}
	return out
}

func decodeArgs(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", types.ErrInvalidArguments, err)
	}
	return nil
}

func requireArgs(fields map[string]string) error {
	for _, name := range []string{"component", "currentVersion", "targetVersion", "image"} {
		if v, ok := fields[name]; ok && v == "" {
			return fmt.Errorf("%w: %s is required", types.ErrInvalidArguments, name)
		}
	}
	return nil
}

type namespaceArgs struct {
	Namespace string `json:"namespace"`
}

func (s *Server) getPods(ctx context.Context, raw json.RawMessage) (any, error) {
	var args struct {
		Namespace string `json:"namespace"`
		Selector  string `json:"selector"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	return s.backends.Pods.ListPods(ctx, args.Namespace, args.Selector)
}

func (s *Server) getServices(ctx context.Context, raw json.RawMessage) (any, error) {
	var args namespaceArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	return s.backends.Services.ListServices(ctx, args.Namespace)
}

func (s *Server) getHelmReleases(ctx context.Context, raw json.RawMessage) (any, error) {
	var args struct {
		Namespace string `json:"namespace"`
		Status    string `json:"status"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	return s.backends.Releases.ListReleasesByStatus(ctx, args.Namespace, args.Status)
}

func (s *Server) getClusterInfo(ctx context.Context, _ json.RawMessage) (any, error) {
	info, err := s.backends.Cluster.ClusterInfo(ctx)
	if err != nil {
		return nil, err
	}
	if s.backends.EOL != nil {
		s.backends.EOL.Annotate(ctx, info)
	}
	return info, nil
}

func (s *Server) analyzeVersions(ctx context.Context, raw json.RawMessage) (any, error) {
	var args struct {
		Namespace string `json:"namespace"`
		Component string `json:"component"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	return s.backends.Analyzer.AnalyzeVersions(ctx, args.Namespace, args.Component)
}

func (s *Server) compareVersions(_ context.Context, raw json.RawMessage) (any, error) {
	var args struct {
		Component      string `json:"component"`
		CurrentVersion string `json:"currentVersion"`
		TargetVersion  string `json:"targetVersion"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	if err := requireArgs(map[string]string{
		"component":      args.Component,
		"currentVersion": args.CurrentVersion,
		"targetVersion":  args.TargetVersion,
	}); err != nil {
		return nil, err
	}
	return s.backends.Analyzer.CompareVersions(args.Component, args.CurrentVersion, args.TargetVersion), nil
}

func (s *Server) getOutdatedComponents(ctx context.Context, raw json.RawMessage) (any, error) {
	var args namespaceArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	return s.backends.Analyzer.GetOutdatedComponents(ctx, args.Namespace)
}

func (s *Server) checkImageUpdates(ctx context.Context, raw json.RawMessage) (any, error) {
	var args struct {
		Image   string `json:"image"`
		MaxTags int    `json:"maxTags"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	if err := requireArgs(map[string]string{"image": args.Image}); err != nil {
		return nil, err
	}
	return s.backends.Images.FindImageUpdates(ctx, args.Image, args.MaxTags)
}

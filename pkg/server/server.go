// Package server exposes the version analysis engine as a Model Context
// Protocol tool server over stdio or HTTP.
package server

import (
	"context"
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/k8s-versions/k8s-versions/pkg/types"
)

const (
	// ServerName is reported in initialize and /health responses.
	ServerName = "k8s-versions-mcp"

	defaultProtocolVersion = "2024-11-05"
)

type PodLister interface {
	ListPods(ctx context.Context, namespace, selector string) ([]types.WorkloadInstance, error)
}

type ServiceLister interface {
	ListServices(ctx context.Context, namespace string) ([]types.ServiceInfo, error)
}

type ReleaseLister interface {
	ListReleasesByStatus(ctx context.Context, namespace, status string) ([]types.PackageRelease, error)
}

type ClusterInspector interface {
	ClusterInfo(ctx context.Context) (*types.ClusterInfo, error)
}

type VersionAnalyzer interface {
	AnalyzeVersions(ctx context.Context, namespace, component string) (*types.VersionAnalysis, error)
	GetOutdatedComponents(ctx context.Context, namespace string) ([]types.ComponentVersion, error)
	CompareVersions(component, currentVersion, targetVersion string) *types.VersionComparison
}

type ImageUpdateFinder interface {
	FindImageUpdates(ctx context.Context, image string, maxTags int) (*types.ImageUpdate, error)
}

// EOLAnnotator adds support status to cluster info. Optional.
type EOLAnnotator interface {
	Annotate(ctx context.Context, info *types.ClusterInfo)
}

// Backends are the data sources the tools read from.
type Backends struct {
	Pods     PodLister
	Services ServiceLister
	Releases ReleaseLister
	Cluster  ClusterInspector
	Analyzer VersionAnalyzer
	Images   ImageUpdateFinder
	EOL      EOLAnnotator
}

type Server struct {
	backends Backends
	version  string
	handlers map[string]toolHandler
}

func New(backends Backends, version string) *Server {
	s := &Server{backends: backends, version: version}
	s.handlers = make(map[string]toolHandler)
	for _, t := range s.tools() {
		s.handlers[t.Name] = t.handler
	}
	return s
}

// Handle processes one JSON-RPC message and returns the encoded response.
// It returns nil for notifications.
func (s *Server) Handle(ctx context.Context, payload []byte) []byte {
	resp := s.handle(ctx, payload)
	if resp == nil {
		return nil
	}
	out, err := json.Marshal(resp)
	if err != nil {
		log.Errorf("failed to encode response: %v", err)
		out, _ = json.Marshal(errorResponse(resp.ID, codeInternalError, "Internal error", err.Error()))
	}
	return out
}

func (s *Server) handle(ctx context.Context, payload []byte) *rpcResponse {
	if !json.Valid(payload) {
		return errorResponse(nil, codeParseError, "Parse error", nil)
	}

	var req rpcRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return errorResponse(nil, codeInvalidRequest, "Invalid Request", err.Error())
	}
	if req.JSONRPC != jsonrpcVersion || req.Method == "" {
		if req.isNotification() {
			return nil
		}
		return errorResponse(req.ID, codeInvalidRequest, "Invalid Request", nil)
	}

	logger := log.WithField("method", req.Method)
	logger.Debug("handling request")

	result, rpcErr := s.dispatch(ctx, &req)
	if req.isNotification() {
		if rpcErr != nil {
			logger.Debugf("notification failed: %v", rpcErr)
		}
		return nil
	}
	if rpcErr != nil {
		return errorResponse(req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
	}
	return &rpcResponse{JSONRPC: jsonrpcVersion, ID: req.ID, Result: result}
}

func (s *Server) dispatch(ctx context.Context, req *rpcRequest) (any, *rpcError) {
	switch req.Method {
	case "initialize":
		var params initializeParams
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &params); err != nil {
				return nil, &rpcError{Code: codeInvalidParams, Message: "Invalid params", Data: err.Error()}
			}
		}
		protocol := params.ProtocolVersion
		if protocol == "" {
			protocol = defaultProtocolVersion
		}
		if params.ClientInfo.Name != "" {
			log.Infof("client connected: %s %s", params.ClientInfo.Name, params.ClientInfo.Version)
		}
		return initializeResult{
			ProtocolVersion: protocol,
			Capabilities:    map[string]any{"tools": map[string]any{}},
			ServerInfo:      serverInfo{Name: ServerName, Version: s.version},
		}, nil
	case "notifications/initialized", "notifications/cancelled":
		return map[string]any{}, nil
	case "ping":
		return map[string]any{}, nil
	case "tools/list":
		return map[string]any{"tools": s.Tools()}, nil
	case "tools/call":
		var params toolCallParams
		if err := json.Unmarshal(req.Params, &params); err != nil || params.Name == "" {
			return nil, &rpcError{Code: codeInvalidParams, Message: "Invalid params", Data: "tools/call requires a tool name"}
		}
		return s.callTool(ctx, params.Name, params.Arguments)
	default:
		return nil, &rpcError{Code: codeMethodNotFound, Message: "Method not found", Data: req.Method}
	}
}

// callTool runs a tool and wraps its output as MCP text content. Tool
// failures are reported in the result with isError set.
func (s *Server) callTool(ctx context.Context, name string, args json.RawMessage) (*toolResult, *rpcError) {
	handler, ok := s.handlers[name]
	if !ok {
		return errorResult(name, fmt.Errorf("unknown tool: %s", name)), nil
	}

	logger := log.WithField("tool", name)
	result, err := handler(ctx, args)
	if err != nil {
		logger.Warnf("tool failed: %v", err)
		return errorResult(name, err), nil
	}

	text, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return errorResult(name, err), nil
	}
	logger.Debug("tool succeeded")
	return &toolResult{Content: []textContent{{Type: "text", Text: string(text)}}}, nil
}

func errorResult(name string, err error) *toolResult {
	return &toolResult{
		Content: []textContent{{Type: "text", Text: fmt.Sprintf("Error executing %s: %v", name, err)}},
		IsError: true,
	}
}

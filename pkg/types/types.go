package types

// ComponentType identifies which facet of the cluster a ComponentVersion describes.
type ComponentType string

const (
	ComponentPod         ComponentType = "pod"
	ComponentContainer   ComponentType = "container"
	ComponentHelmRelease ComponentType = "helm-release"
)

// Status is the outcome of classifying a component against its latest known version.
type Status string

const (
	StatusUpToDate Status = "up-to-date"
	StatusOutdated Status = "outdated"
	StatusUnknown  Status = "unknown"
)

// Severity is a coarse urgency tier derived from the distance between versions.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Relation is the result of comparing a current version against a target.
type Relation string

const (
	RelationNewer   Relation = "newer"
	RelationOlder   Relation = "older"
	RelationSame    Relation = "same"
	RelationInvalid Relation = "invalid"
)

// WorkloadInstance is a snapshot of a running pod.
type WorkloadInstance struct {
	Name        string            `json:"name" yaml:"name"`
	Namespace   string            `json:"namespace" yaml:"namespace"`
	Status      string            `json:"status,omitempty" yaml:"status,omitempty"`
	Ready       string            `json:"ready,omitempty" yaml:"ready,omitempty"`
	Restarts    int32             `json:"restarts" yaml:"restarts"`
	Age         string            `json:"age,omitempty" yaml:"age,omitempty"`
	Node        string            `json:"node,omitempty" yaml:"node,omitempty"`
	Images      []string          `json:"images" yaml:"images"`
	Labels      map[string]string `json:"labels" yaml:"labels"`
	Annotations map[string]string `json:"annotations,omitempty" yaml:"annotations,omitempty"`
}

// PackageRelease is a snapshot of an installed Helm release. Chart carries
// the chart name and version joined as "<name>-<version>".
type PackageRelease struct {
	Name        string `json:"name" yaml:"name"`
	Namespace   string `json:"namespace" yaml:"namespace"`
	Revision    int    `json:"revision" yaml:"revision"`
	Updated     string `json:"updated,omitempty" yaml:"updated,omitempty"`
	Status      string `json:"status" yaml:"status"`
	Chart       string `json:"chart" yaml:"chart"`
	AppVersion  string `json:"appVersion,omitempty" yaml:"appVersion,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// ChartVersion is a single published chart version as seen in a repository index.
type ChartVersion struct {
	Name        string `json:"name" yaml:"name"`
	Version     string `json:"version" yaml:"version"`
	AppVersion  string `json:"app_version,omitempty" yaml:"app_version,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// ComponentVersion is one classified record of an analysis.
type ComponentVersion struct {
	Name            string        `json:"name" yaml:"name"`
	Type            ComponentType `json:"type" yaml:"type"`
	CurrentVersion  string        `json:"currentVersion" yaml:"currentVersion"`
	LatestVersion   string        `json:"latestVersion,omitempty" yaml:"latestVersion,omitempty"`
	Status          Status        `json:"status" yaml:"status"`
	Namespace       string        `json:"namespace" yaml:"namespace"`
	Images          []string      `json:"images,omitempty" yaml:"images,omitempty"`
	Chart           string        `json:"chart,omitempty" yaml:"chart,omitempty"`
	Severity        Severity      `json:"severity,omitempty" yaml:"severity,omitempty"`
	UpdateAvailable *bool         `json:"updateAvailable,omitempty" yaml:"updateAvailable,omitempty"`
	SecurityIssues  []string      `json:"securityIssues,omitempty" yaml:"securityIssues,omitempty"`
}

// Summary counts components by status.
type Summary struct {
	Total    int `json:"total" yaml:"total"`
	Outdated int `json:"outdated" yaml:"outdated"`
	UpToDate int `json:"upToDate" yaml:"upToDate"`
	Unknown  int `json:"unknown" yaml:"unknown"`
}

// VersionAnalysis is the result of a single analysis call.
type VersionAnalysis struct {
	Namespace       string             `json:"namespace" yaml:"namespace"`
	Components      []ComponentVersion `json:"components" yaml:"components"`
	Summary         Summary            `json:"summary" yaml:"summary"`
	Recommendations []string           `json:"recommendations" yaml:"recommendations"`
}

// VersionComparison is the result of comparing two caller-supplied versions.
type VersionComparison struct {
	Component       string   `json:"component" yaml:"component"`
	CurrentVersion  string   `json:"currentVersion" yaml:"currentVersion"`
	TargetVersion   string   `json:"targetVersion" yaml:"targetVersion"`
	Comparison      Relation `json:"comparison" yaml:"comparison"`
	Recommendation  string   `json:"recommendation" yaml:"recommendation"`
	BreakingChanges []string `json:"breakingChanges" yaml:"breakingChanges"`
	MigrationSteps  []string `json:"migrationSteps" yaml:"migrationSteps"`
}

// ImageUpdate lists registry tags newer than the tag an image currently runs.
type ImageUpdate struct {
	Image          string   `json:"image" yaml:"image"`
	Repository     string   `json:"repository" yaml:"repository"`
	CurrentVersion string   `json:"currentVersion" yaml:"currentVersion"`
	LatestVersion  string   `json:"latestVersion,omitempty" yaml:"latestVersion,omitempty"`
	NewerTags      []string `json:"newerTags" yaml:"newerTags"`
	Severity       Severity `json:"severity,omitempty" yaml:"severity,omitempty"`
	Pinned         bool     `json:"pinned,omitempty" yaml:"pinned,omitempty"`
}

// ServicePort is one port exposed by a Service.
type ServicePort struct {
	Name       string `json:"name,omitempty" yaml:"name,omitempty"`
	Protocol   string `json:"protocol" yaml:"protocol"`
	Port       int32  `json:"port" yaml:"port"`
	TargetPort string `json:"targetPort,omitempty" yaml:"targetPort,omitempty"`
	NodePort   int32  `json:"nodePort,omitempty" yaml:"nodePort,omitempty"`
}

// ServiceInfo is a snapshot of a Service.
type ServiceInfo struct {
	Name       string            `json:"name" yaml:"name"`
	Namespace  string            `json:"namespace" yaml:"namespace"`
	Type       string            `json:"type" yaml:"type"`
	ClusterIP  string            `json:"clusterIP" yaml:"clusterIP"`
	ExternalIP string            `json:"externalIP" yaml:"externalIP"`
	Ports      []ServicePort     `json:"ports" yaml:"ports"`
	Age        string            `json:"age" yaml:"age"`
	Selector   map[string]string `json:"selector" yaml:"selector"`
}

// NodeInfo describes a cluster node.
type NodeInfo struct {
	Name             string     `json:"name" yaml:"name"`
	Status           string     `json:"status" yaml:"status"`
	Roles            []string   `json:"roles" yaml:"roles"`
	Age              string     `json:"age" yaml:"age"`
	Version          string     `json:"version" yaml:"version"`
	OS               string     `json:"os" yaml:"os"`
	Kernel           string     `json:"kernel" yaml:"kernel"`
	ContainerRuntime string     `json:"containerRuntime" yaml:"containerRuntime"`
	OSImage          string     `json:"-" yaml:"-"`
	EOL              *EOLStatus `json:"eol,omitempty" yaml:"eol,omitempty"`
}

// ClusterInfo is a general overview of the cluster.
type ClusterInfo struct {
	Version       string     `json:"version" yaml:"version"`
	Nodes         []NodeInfo `json:"nodes" yaml:"nodes"`
	Namespaces    []string   `json:"namespaces" yaml:"namespaces"`
	TotalPods     int        `json:"totalPods" yaml:"totalPods"`
	TotalServices int        `json:"totalServices" yaml:"totalServices"`
	EOL           *EOLStatus `json:"eol,omitempty" yaml:"eol,omitempty"`
}

// EOLStatus reports whether the cluster's Kubernetes minor release is still supported.
type EOLStatus struct {
	Release      string `json:"release" yaml:"release"`
	IsEOL        bool   `json:"isEol" yaml:"isEol"`
	EOLDate      string `json:"eolDate" yaml:"eolDate"`
	IsMaintained bool   `json:"isMaintained" yaml:"isMaintained"`
}

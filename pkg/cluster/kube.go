// Package cluster reads workload and cluster facts from the Kubernetes API.
package cluster

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/k8s-versions/k8s-versions/pkg/types"
)

const nodeRolePrefix = "node-role.kubernetes.io/"

// now is swapped in tests to make ages deterministic.
var now = time.Now

// Client inspects a cluster through a Kubernetes clientset.
type Client struct {
	clientset kubernetes.Interface
}

// NewClient builds a Client from kubeconfig. An empty kubeconfig uses the
// default loading rules ($KUBECONFIG, ~/.kube/config) and falls back to the
// in-cluster service account. kubeContext overrides the current context.
func NewClient(kubeconfig, kubeContext string) (*Client, error) {
	config, err := RESTConfig(kubeconfig, kubeContext)
	if err != nil {
		return nil, err
	}

	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create clientset: %w", err)
	}

	return NewClientFromClientset(clientset), nil
}

// NewClientFromClientset wraps an existing clientset.
func NewClientFromClientset(clientset kubernetes.Interface) *Client {
	return &Client{clientset: clientset}
}

// RESTConfig resolves the REST config used to talk to the API server.
func RESTConfig(kubeconfig, kubeContext string) (*rest.Config, error) {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	rules.ExplicitPath = kubeconfig

	overrides := &clientcmd.ConfigOverrides{CurrentContext: kubeContext}
	config, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, overrides).ClientConfig()
	if err == nil {
		return config, nil
	}

	if kubeconfig == "" {
		inCluster, icErr := rest.InClusterConfig()
		if icErr == nil {
			log.Debug("Using in-cluster configuration")
			return inCluster, nil
		}
	}

	return nil, fmt.Errorf("failed to load kubeconfig: %w", err)
}

// ListWorkloads lists pods in namespace, or in all namespaces when empty.
func (c *Client) ListWorkloads(ctx context.Context, namespace string) ([]types.WorkloadInstance, error) {
	return c.ListPods(ctx, namespace, "")
}

// ListPods lists pods in namespace matching an optional label selector.
func (c *Client) ListPods(ctx context.Context, namespace, selector string) ([]types.WorkloadInstance, error) {
	pods, err := c.clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{LabelSelector: selector})
	if err != nil {
		if namespace == "" {
			return nil, fmt.Errorf("failed to list pods in all namespaces: %w", err)
		}
		return nil, fmt.Errorf("failed to list pods in namespace %s: %w", namespace, err)
	}

	workloads := make([]types.WorkloadInstance, 0, len(pods.Items))
	for i := range pods.Items {
		workloads = append(workloads, toWorkload(&pods.Items[i]))
	}

	log.Debugf("Listed %d pods (namespace=%q selector=%q)", len(workloads), namespace, selector)
	return workloads, nil
}

// ClusterInfo returns the server version, nodes, namespaces and object totals.
func (c *Client) ClusterInfo(ctx context.Context) (*types.ClusterInfo, error) {
	serverVersion, err := c.clientset.Discovery().ServerVersion()
	if err != nil {
		return nil, fmt.Errorf("failed to get server version: %w", err)
	}

	nodes, err := c.clientset.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}

	namespaces, err := c.clientset.CoreV1().Namespaces().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list namespaces: %w", err)
	}

	pods, err := c.clientset.CoreV1().Pods("").List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list pods: %w", err)
	}

	services, err := c.clientset.CoreV1().Services("").List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}

	info := &types.ClusterInfo{
		Version:       serverVersion.GitVersion,
		Nodes:         make([]types.NodeInfo, 0, len(nodes.Items)),
		Namespaces:    make([]string, 0, len(namespaces.Items)),
		TotalPods:     len(pods.Items),
		TotalServices: len(services.Items),
	}
	for i := range nodes.Items {
		info.Nodes = append(info.Nodes, toNodeInfo(&nodes.Items[i]))
	}
	for _, ns := range namespaces.Items {
		info.Namespaces = append(info.Namespaces, ns.Name)
	}

	return info, nil
}

// ListServices lists services in namespace, or in all namespaces when empty.
func (c *Client) ListServices(ctx context.Context, namespace string) ([]types.ServiceInfo, error) {
	services, err := c.clientset.CoreV1().Services(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}

	out := make([]types.ServiceInfo, 0, len(services.Items))
	for i := range services.Items {
		out = append(out, toServiceInfo(&services.Items[i]))
	}
	return out, nil
}

func toServiceInfo(svc *corev1.Service) types.ServiceInfo {
	externalIP := "None"
	if ingress := svc.Status.LoadBalancer.Ingress; len(ingress) > 0 {
		if ingress[0].IP != "" {
			externalIP = ingress[0].IP
		} else if ingress[0].Hostname != "" {
			externalIP = ingress[0].Hostname
		}
	}

	ports := make([]types.ServicePort, 0, len(svc.Spec.Ports))
	for _, p := range svc.Spec.Ports {
		port := types.ServicePort{
			Name:     p.Name,
			Protocol: string(p.Protocol),
			Port:     p.Port,
			NodePort: p.NodePort,
		}
		if p.TargetPort.String() != "0" {
			port.TargetPort = p.TargetPort.String()
		}
		ports = append(ports, port)
	}

	selector := svc.Spec.Selector
	if selector == nil {
		selector = map[string]string{}
	}

	return types.ServiceInfo{
		Name:       svc.Name,
		Namespace:  svc.Namespace,
		Type:       string(svc.Spec.Type),
		ClusterIP:  svc.Spec.ClusterIP,
		ExternalIP: externalIP,
		Ports:      ports,
		Age:        age(svc.CreationTimestamp),
		Selector:   selector,
	}
}

func toWorkload(pod *corev1.Pod) types.WorkloadInstance {
	var ready int
	var restarts int32
	for _, cs := range pod.Status.ContainerStatuses {
		if cs.Ready {
			ready++
		}
		restarts += cs.RestartCount
	}

	node := pod.Spec.NodeName
	if node == "" {
		node = "Unknown"
	}

	labels := pod.Labels
	if labels == nil {
		labels = map[string]string{}
	}

	return types.WorkloadInstance{
		Name:        pod.Name,
		Namespace:   pod.Namespace,
		Status:      string(pod.Status.Phase),
		Ready:       fmt.Sprintf("%d/%d", ready, len(pod.Status.ContainerStatuses)),
		Restarts:    restarts,
		Age:         age(pod.CreationTimestamp),
		Node:        node,
		Images:      podImages(pod),
		Labels:      labels,
		Annotations: pod.Annotations,
	}
}

// podImages returns container then init container images, without duplicates.
func podImages(pod *corev1.Pod) []string {
	seen := make(map[string]struct{})
	images := make([]string, 0, len(pod.Spec.Containers)+len(pod.Spec.InitContainers))

	add := func(containers []corev1.Container) {
		for _, c := range containers {
			if c.Image == "" {
				continue
			}
			if _, ok := seen[c.Image]; ok {
				continue
			}
			seen[c.Image] = struct{}{}
			images = append(images, c.Image)
		}
	}
	add(pod.Spec.Containers)
	add(pod.Spec.InitContainers)

	return images
}

func toNodeInfo(node *corev1.Node) types.NodeInfo {
	status := "NotReady"
	for _, cond := range node.Status.Conditions {
		if cond.Type == corev1.NodeReady && cond.Status == corev1.ConditionTrue {
			status = "Ready"
			break
		}
	}

	var roles []string
	for label := range node.Labels {
		if role := strings.TrimPrefix(label, nodeRolePrefix); role != label && role != "" {
			roles = append(roles, role)
		}
	}
	if len(roles) == 0 {
		roles = []string{"worker"}
	}
	slices.Sort(roles)

	ni := node.Status.NodeInfo
	return types.NodeInfo{
		Name:             node.Name,
		Status:           status,
		Roles:            roles,
		Age:              age(node.CreationTimestamp),
		Version:          ni.KubeletVersion,
		OS:               strings.TrimSpace(ni.OperatingSystem + " " + ni.OSImage),
		Kernel:           ni.KernelVersion,
		ContainerRuntime: ni.ContainerRuntimeVersion,
		OSImage:          ni.OSImage,
	}
}

// age renders the time since ts in its largest whole unit: days, hours or minutes.
func age(ts metav1.Time) string {
	d := now().Sub(ts.Time)
	if d < 0 {
		d = 0
	}

	switch {
	case d >= 24*time.Hour:
		return fmt.Sprintf("%dd", int(d/(24*time.Hour)))
	case d >= time.Hour:
		return fmt.Sprintf("%dh", int(d/time.Hour))
	default:
		return fmt.Sprintf("%dm", int(d/time.Minute))
	}
}

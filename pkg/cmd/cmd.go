package cmd

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/k8s-versions/k8s-versions/pkg/analyzer"
	"github.com/k8s-versions/k8s-versions/pkg/registry"
	"github.com/k8s-versions/k8s-versions/pkg/report"
	"github.com/k8s-versions/k8s-versions/pkg/types"
)

// AddCommands registers every subcommand on root.
func AddCommands(root *cobra.Command, version string) {
	root.AddCommand(
		NewAnalyzeCmd(),
		NewOutdatedCmd(),
		NewCompareCmd(),
		NewImagesCmd(),
		NewClusterCmd(),
		NewServeCmd(version),
		NewVersionCmd(version),
	)
}

func outputFormat(opts *types.Options) (report.Format, error) {
	return report.ParseFormat(opts.Output)
}

func NewAnalyzeCmd() *cobra.Command {
	var namespace, component string
	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "Classify every workload image and Helm release in the cluster as up-to-date, outdated or unknown",
		Example: `  k8s-versions analyze
  k8s-versions analyze -n ingress-nginx -o json
  k8s-versions analyze --component redis`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := LoadOptions(viper.GetViper())
			format, err := outputFormat(opts)
			if err != nil {
				return err
			}

			a, err := newAnalyzer(opts)
			if err != nil {
				return err
			}

			log.Debugf("Analyzing versions in namespace %q", namespace)
			analysis, err := a.AnalyzeVersions(cmd.Context(), namespace, component)
			if err != nil {
				return err
			}
			return report.Write(cmd.OutOrStdout(), format, analysis)
		},
	}
	flags := analyzeCmd.Flags()
	flags.StringVarP(&namespace, "namespace", "n", "", "Namespace to analyze, defaults to all namespaces")
	flags.StringVarP(&component, "component", "c", "", "Only analyze components whose name contains this value")

	return analyzeCmd
}

func NewOutdatedCmd() *cobra.Command {
	var namespace string
	outdatedCmd := &cobra.Command{
		Use:   "outdated",
		Short: "List only the components with a newer version available",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := LoadOptions(viper.GetViper())
			format, err := outputFormat(opts)
			if err != nil {
				return err
			}

			a, err := newAnalyzer(opts)
			if err != nil {
				return err
			}

			outdated, err := a.GetOutdatedComponents(cmd.Context(), namespace)
			if err != nil {
				return err
			}
			return report.Write(cmd.OutOrStdout(), format, outdated)
		},
	}
	outdatedCmd.Flags().StringVarP(&namespace, "namespace", "n", "", "Namespace to check, defaults to all namespaces")

	return outdatedCmd
}

func NewCompareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare <component> <current-version> <target-version>",
		Short: "Compare two versions of a component and suggest migration steps",
		Example: `  k8s-versions compare nginx 1.21.0 1.25.3
  k8s-versions compare cert-manager v1.12.0 v2.0.0 -o yaml`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := LoadOptions(viper.GetViper())
			format, err := outputFormat(opts)
			if err != nil {
				return err
			}
			if args[0] == "" || args[1] == "" || args[2] == "" {
				return fmt.Errorf("%w: component and both versions must be non-empty", types.ErrInvalidArguments)
			}
			return report.Write(cmd.OutOrStdout(), format, analyzer.CompareVersions(args[0], args[1], args[2]))
		},
	}
}

type imagesArgs struct {
	file        string
	fromCluster bool
	namespace   string
	maxTags     int
	concurrency int
}

func NewImagesCmd() *cobra.Command {
	ia := imagesArgs{}
	imagesCmd := &cobra.Command{
		Use:   "images [image...]",
		Short: "List registry tags newer than the ones your images run",
		Example: `  k8s-versions images nginx:1.25.3
  k8s-versions images --file images.yaml
  k8s-versions images --from-cluster -n default`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sources := 0
			for _, set := range []bool{len(args) > 0, ia.file != "", ia.fromCluster} {
				if set {
					sources++
				}
			}
			if sources != 1 {
				return errors.New("exactly one of image arguments, --file or --from-cluster must be provided")
			}

			opts := LoadOptions(viper.GetViper())
			format, err := outputFormat(opts)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed(KeyMaxTags) && opts.MaxTags > 0 {
				ia.maxTags = opts.MaxTags
			}
			finder := newImageFinder(opts)
			ctx := cmd.Context()

			if len(args) == 1 {
				update, err := finder.FindImageUpdates(ctx, args[0], ia.maxTags)
				if err != nil {
					return err
				}
				return report.Write(cmd.OutOrStdout(), format, update)
			}

			var specs []registry.ImageSpec
			switch {
			case ia.file != "":
				wl, err := registry.LoadWatchList(ia.file)
				if err != nil {
					return err
				}
				specs = wl.Images
			case ia.fromCluster:
				kube, err := newClusterReader(opts)
				if err != nil {
					return err
				}
				workloads, err := kube.ListWorkloads(ctx, ia.namespace)
				if err != nil {
					return &types.CollectionError{Source: "workloads", Err: err}
				}
				var images []string
				for _, w := range workloads {
					images = append(images, w.Images...)
				}
				specs = registry.SpecsFor(images, ia.maxTags)
			default:
				specs = registry.SpecsFor(args, ia.maxTags)
			}

			updates, findErr := finder.FindAll(ctx, specs, ia.concurrency)
			if err := report.Write(cmd.OutOrStdout(), format, updates); err != nil {
				return err
			}
			return findErr
		},
	}
	flags := imagesCmd.Flags()
	flags.StringVarP(&ia.file, "file", "f", "", "Path to an image watch list YAML file")
	flags.BoolVar(&ia.fromCluster, "from-cluster", false, "Check every image running in the cluster")
	flags.StringVarP(&ia.namespace, "namespace", "n", "", "Namespace for --from-cluster, defaults to all namespaces")
	flags.IntVar(&ia.maxTags, KeyMaxTags, registry.DefaultMaxTags, "Maximum number of newer tags to report per image")
	flags.IntVar(&ia.concurrency, "concurrency", registry.DefaultConcurrency, "Maximum concurrent registry lookups")

	return imagesCmd
}

func NewClusterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cluster",
		Short: "Show the cluster version, nodes and totals, with end-of-life status when --eol-check is set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := LoadOptions(viper.GetViper())
			format, err := outputFormat(opts)
			if err != nil {
				return err
			}

			kube, err := newClusterReader(opts)
			if err != nil {
				return err
			}
			info, err := kube.ClusterInfo(cmd.Context())
			if err != nil {
				return err
			}
			if opts.EOLCheck {
				newEOLAnnotator(opts).Annotate(cmd.Context(), info)
			}
			return report.Write(cmd.OutOrStdout(), format, info)
		},
	}
}

func NewVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the k8s-versions version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

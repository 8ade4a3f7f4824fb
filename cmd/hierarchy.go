package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/mouse-blink/qidicom/internal/domain"
	m "github.com/mouse-blink/qidicom/internal/model"
)

var hierarchyIndexFlag string
var hierarchyFromIndexFlag string
var hierarchyExcludeFlags []string

var errNoHierarchySource = errors.New("give a ROOT or --from-index")

// hierarchyCmd represents the hierarchy command.
var hierarchyCmd = newHierarchyCmd()

func newHierarchyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hierarchy [ROOT]",
		Short: "List the Subject / Study / Series / Instance of every image",
		Long: `List the hierarchy path of every DICOM image under ROOT.

Files that are not DICOM, or that lack PatientID, StudyInstanceUID,
SeriesInstanceUID or InstanceNumber, are skipped.

With --from-index the listing comes from an index written earlier by
--index, and ROOT is only used to anchor --exclude patterns.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var root m.Path
			if len(args) == 1 {
				root = m.Path(args[0])
			}

			if root == "" && hierarchyFromIndexFlag == "" {
				return errNoHierarchySource
			}

			return workflow.Hierarchy(cmd.Context(), domain.HierarchyArgs{
				Root:      root,
				Index:     m.Path(hierarchyIndexFlag),
				FromIndex: m.Path(hierarchyFromIndexFlag),
				Exclude:   hierarchyExcludeFlags,
			})
		},
	}
	cmd.Flags().StringVarP(&hierarchyIndexFlag, "index", "i", "", "also write the hierarchy to this gzipped TSV file")
	cmd.Flags().StringVar(&hierarchyFromIndexFlag, "from-index", "", "list this gzipped TSV index instead of walking ROOT")
	cmd.Flags().StringArrayVarP(&hierarchyExcludeFlags, "exclude", "x", nil, excludeUsage)

	return cmd
}

func init() {
	rootCmd.AddCommand(hierarchyCmd)
}

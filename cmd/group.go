package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/mouse-blink/qidicom/internal/domain"
	m "github.com/mouse-blink/qidicom/internal/model"
)

var errNothingToGroup = errors.New("give a ROOT directory or at least one --file")

const excludeUsage = "skip files whose path below the root matches this regex (can be repeated)"

var groupFileFlags []string
var groupExcludeFlags []string

// groupCmd represents the group command.
var groupCmd = newGroupCmd()

func newGroupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group TAG [ROOT]",
		Short: "Group images by the value of a tag",
		Long: `Group the DICOM images under ROOT, or the files given with --file, by the
value of TAG. TAG is a keyword such as InstanceNumber or a group and element
pair such as (0020,0013). Files without the tag are left out.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			groupArgs := domain.GroupArgs{
				Tag:     args[0],
				Files:   parsePaths(groupFileFlags),
				Exclude: groupExcludeFlags,
			}
			if len(args) == 2 {
				groupArgs.Root = m.Path(args[1])
			}

			if groupArgs.Root == "" && len(groupArgs.Files) == 0 {
				return errNothingToGroup
			}

			return workflow.Group(cmd.Context(), groupArgs)
		},
	}
	cmd.Flags().StringArrayVarP(&groupFileFlags, "file", "f", nil, "group this file instead of walking ROOT (can be repeated)")
	cmd.Flags().StringArrayVarP(&groupExcludeFlags, "exclude", "x", nil, excludeUsage)

	return cmd
}

func init() {
	rootCmd.AddCommand(groupCmd)
}

func parsePaths(args []string) []m.Path {
	paths := make([]m.Path, 0, len(args))
	for _, arg := range args {
		paths = append(paths, m.Path(arg))
	}

	return paths
}

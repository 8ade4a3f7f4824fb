package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mouse-blink/qidicom/internal/domain"
	m "github.com/mouse-blink/qidicom/internal/model"
)

var (
	errBadSetFlag         = errors.New("--set takes TAG=VALUE")
	errResumeNeedsJournal = errors.New("--resume needs --journal")
)

var editSpecFlag string
var editSetFlags []string
var editUniqueFlag bool
var editJournalFlag string
var editResumeFlag bool
var editExcludeFlags []string

// editCmd represents the edit command.
var editCmd = newEditCmd()

func newEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit SOURCE DEST",
		Short: "Write edited copies of every image under SOURCE into DEST",
		Long:  editLongDescription,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			editArgs, err := parseEditArgs(args[0], args[1])
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return workflow.Edit(ctx, editArgs)
		},
	}
	cmd.Flags().StringVarP(&editSpecFlag, "spec", "s", "", "HCL file with one TAG = expression attribute per edit")
	cmd.Flags().StringArrayVar(&editSetFlags, "set", nil, "set TAG=VALUE, overriding --spec (can be repeated)")
	cmd.Flags().BoolVarP(&editUniqueFlag, "unique", "u", false, `write clashing file names as "name - dupN" instead of overwriting`)
	cmd.Flags().StringVarP(&editJournalFlag, "journal", "j", "",
		"record every write in this database (or set $"+envJournal+")")
	cmd.Flags().BoolVarP(&editResumeFlag, "resume", "r", false, "skip sources the journal shows as already written and unchanged")
	cmd.Flags().StringArrayVarP(&editExcludeFlags, "exclude", "x", nil, excludeUsage)

	return cmd
}

const editLongDescription = `Write a copy of every DICOM image under SOURCE into the existing directory
DEST, with the requested tag edits applied. SOURCE is never modified.

Edits come from an HCL file given with --spec, one attribute per tag:

  PatientID        = "ANON-0001"
  PatientName      = null
  BodyPartExamined = lower(value)

Attributes that mention value are computed per file from the tag's current
value; null removes the tag. --set TAG=VALUE adds literal edits.`

func init() {
	rootCmd.AddCommand(editCmd)
}

func parseEditArgs(source, dest string) (domain.EditArgs, error) {
	set, err := parseSetFlags(editSetFlags)
	if err != nil {
		return domain.EditArgs{}, err
	}

	journal := flagOrEnv(editJournalFlag, envJournal)
	if editResumeFlag && journal == "" {
		return domain.EditArgs{}, errResumeNeedsJournal
	}

	return domain.EditArgs{
		Source:   m.Path(source),
		Dest:     m.Path(dest),
		SpecFile: m.Path(editSpecFlag),
		Set:      set,
		Unique:   editUniqueFlag,
		Journal:  m.Path(journal),
		Resume:   editResumeFlag,
		Exclude:  editExcludeFlags,
	}, nil
}

func parseSetFlags(flags []string) (map[string]string, error) {
	if len(flags) == 0 {
		return nil, nil
	}

	set := make(map[string]string, len(flags))

	for _, flag := range flags {
		name, value, ok := strings.Cut(flag, "=")

		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: %q", errBadSetFlag, flag)
		}

		set[name] = value
	}

	return set, nil
}

// Package cmd provides the root command and CLI setup for qidicom.
package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/inconshreveable/log15"
	"github.com/mouse-blink/qidicom/internal/adapter"
	"github.com/mouse-blink/qidicom/internal/controller"
	"github.com/mouse-blink/qidicom/internal/domain"
	m "github.com/mouse-blink/qidicom/internal/model"
	"github.com/spf13/cobra"
)

// appLogger is used for logging events in our commands.
var appLogger = log15.New()

// workflow is built on first use unless a test has already set it.
var workflow domain.Workflow

var logLevelFlag string
var logFileFlag string
var noTUIFlag bool

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func init() {
	appLogger.SetHandler(log15.LvlFilterHandler(log15.LvlInfo, log15.StderrHandler))
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "qidicom",
		Short: "Walk, group and edit DICOM image trees",
		Long: `qidicom reads the Subject / Study / Series / Instance hierarchy of a tree
of DICOM files, groups files by any tag, and writes edited copies of them.

Source files are never modified: every edit is written to a destination
directory.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setup(cmd)
		},
	}
	cmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "",
		"log level: debug, info, warn, error or crit (default info, or $"+envLogLevel+")")
	cmd.PersistentFlags().StringVar(&logFileFlag, "log-file", "", "write logs to this file in logfmt instead of stderr")
	cmd.PersistentFlags().BoolVar(&noTUIFlag, "no-tui", false,
		"plain text output even on a terminal (or set $"+envNoTUI+")")

	return cmd
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to happen once to
// the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		die("%s", err.Error())
	}
}

func setup(cmd *cobra.Command) error {
	loadDotEnv()

	level, err := parseLogLevel(flagOrEnv(logLevelFlag, envLogLevel))
	if err != nil {
		return err
	}

	if logFileFlag != "" {
		logToFile(logFileFlag, level)
	} else {
		appLogger.SetHandler(log15.LvlFilterHandler(level, log15.StreamHandler(cmd.ErrOrStderr(), cliFormat())))
	}

	if workflow != nil {
		return nil
	}

	noTUI, err := boolFlagOrEnv(noTUIFlag, envNoTUI)
	if err != nil {
		return err
	}

	workflow = newWorkflow(cmd, !noTUI && controller.IsTTY(os.Stdout))

	return nil
}

func newWorkflow(cmd *cobra.Command, useTTY bool) domain.Workflow {
	return domain.NewWorkflow(
		adapter.NewLocalSourceFSAdapter(),
		adapter.NewLocalTagAccessor(),
		adapter.NewHCLEditSpecLoader(),
		adapter.NewGzipIndexWriter(),
		openJournal,
		controller.NewUI(cmd, useTTY),
		appLogger.New("component", "workflow"),
	)
}

func openJournal(path m.Path) (adapter.JournalStore, error) {
	store, err := adapter.OpenJournal(path)
	if err != nil {
		return nil, err
	}

	return store, nil
}

// die is a convenience to log a message at the Error level and exit non zero.
func die(msg string, a ...any) {
	appLogger.Error(fmt.Sprintf(msg, a...))
	os.Exit(1)
}

// warn is a convenience to log a message at the Warn level.
func warn(msg string, a ...any) {
	appLogger.Warn(fmt.Sprintf(msg, a...))
}

// logToFile logs to the given file.
func logToFile(path string, level log15.Lvl) {
	fh, err := log15.FileHandler(path, log15.LogfmtFormat())
	if err != nil {
		warn("Could not log to file [%s]: %s", path, err)

		return
	}

	appLogger.SetHandler(log15.LvlFilterHandler(level, fh))
}

// cliFormat returns a log15.Format that prints the level, message and context
// on one line.
func cliFormat() log15.Format { //nolint:ireturn
	return log15.FormatFunc(func(r *log15.Record) []byte {
		b := &bytes.Buffer{}
		fmt.Fprintf(b, "%s %s", r.Lvl.String(), r.Msg)

		for i := 0; i+1 < len(r.Ctx); i += 2 {
			fmt.Fprintf(b, " %v=%v", r.Ctx[i], r.Ctx[i+1])
		}

		b.WriteByte('\n')

		return b.Bytes()
	})
}

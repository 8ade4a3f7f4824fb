package controller

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	m "github.com/mouse-blink/qidicom/internal/model"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// SimpleUI implements UI using cobra Command's output.
type SimpleUI struct {
	cmd *cobra.Command
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// DisplayHierarchy prints one row per instance.
func (s *SimpleUI) DisplayHierarchy(instances []m.Instance) error {
	var tableBuffer bytes.Buffer

	table := newTable(&tableBuffer, []string{"Subject", "Study", "Series", "Instance", "File"})
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT,
	})

	counts := countHierarchy(instances)

	for _, inst := range instances {
		table.Append([]string{
			inst.Hierarchy.Subject,
			inst.Hierarchy.Study,
			inst.Hierarchy.Series,
			strconv.Itoa(inst.Hierarchy.Instance),
			string(inst.File),
		})
	}

	table.SetFooter([]string{
		fmt.Sprintf("Subjects %d", counts.subjects),
		fmt.Sprintf("Studies %d", counts.studies),
		fmt.Sprintf("Series %d", counts.series),
		fmt.Sprintf("%d", len(instances)),
		"",
	})

	table.Render()
	s.printf("\n%s", tableBuffer.String())

	return nil
}

// DisplayGroups prints every group key with its member files.
func (s *SimpleUI) DisplayGroups(tagName string, groups m.GroupMapping) error {
	var tableBuffer bytes.Buffer

	table := newTable(&tableBuffer, []string{tagName, "Files", "Path"})
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER, tablewriter.ALIGN_LEFT})

	total := 0

	for _, key := range groups.Keys() {
		files := groups.Files(key)
		total += len(files)

		for i, file := range files {
			if i == 0 {
				table.Append([]string{fmt.Sprint(key), strconv.Itoa(len(files)), string(file)})

				continue
			}

			table.Append([]string{"", "", string(file)})
		}
	}

	table.SetFooter([]string{fmt.Sprintf("Groups %d", groups.Len()), fmt.Sprintf("%d", total), ""})

	table.Render()
	s.printf("\n%s", tableBuffer.String())

	return nil
}

// DisplayEditProgress prints a line for a completed write.
func (s *SimpleUI) DisplayEditProgress(rec m.WriteRecord) {
	s.printf("wrote %s -> %s (%s)\n", rec.Source, rec.Dest, humanize.IBytes(uint64(max(rec.Bytes, 0))))
}

// DisplayEditSummary prints the run totals or error.
func (s *SimpleUI) DisplayEditSummary(stats m.EditStats, err error) error {
	if err != nil {
		s.printf("edit error: %v\n", err)
	}

	var tableBuffer bytes.Buffer

	table := newTable(&tableBuffer, []string{"Files", "Written", "Skipped", "Bytes"})
	table.Append([]string{
		strconv.Itoa(stats.Total),
		strconv.Itoa(stats.Written),
		strconv.Itoa(stats.Skipped),
		humanize.IBytes(uint64(max(stats.Bytes, 0))),
	})

	table.Render()
	s.printf("\n%s", tableBuffer.String())

	return err
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}

func newTable(buf *bytes.Buffer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(buf)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)

	return table
}

type hierarchyCounts struct {
	subjects int
	studies  int
	series   int
}

func countHierarchy(instances []m.Instance) hierarchyCounts {
	subjects := map[string]struct{}{}
	studies := map[[2]string]struct{}{}
	series := map[[3]string]struct{}{}

	for _, inst := range instances {
		h := inst.Hierarchy
		subjects[h.Subject] = struct{}{}
		studies[[2]string{h.Subject, h.Study}] = struct{}{}
		series[[3]string{h.Subject, h.Study, h.Series}] = struct{}{}
	}

	return hierarchyCounts{subjects: len(subjects), studies: len(studies), series: len(series)}
}

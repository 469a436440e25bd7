package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/waketime/internal/clock"
	"github.com/manav03panchal/waketime/internal/export"
	"github.com/manav03panchal/waketime/internal/model"
	"github.com/manav03panchal/waketime/internal/storage"
	"github.com/manav03panchal/waketime/internal/validate"
)

// Export command flags.
var (
	exportFlagAs     string
	exportFlagOutput string
)

// exportCmd represents the export command.
var exportCmd = &cobra.Command{
	Use:     "export [ALARM...]",
	Aliases: []string{"ex", "dump", "backup"},
	Short:   "Export alarms",
	Long: `Export alarms with their history as JSON or YAML, or as an iCalendar
file with one weekly recurring event per enabled alarm. The format follows
the output file extension unless --as is given. When -o names a directory
the file is named after the alarm.

Examples:
  waketime export
  waketime export -o alarms.yaml
  waketime export --as ical -o alarms.ics
  waketime export work gym --as yaml`,
	ValidArgsFunction: completeManyAlarms,
	RunE:              runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFlagAs, "as", "", "Export format: json, yaml, ical")
	exportCmd.Flags().StringVarP(&exportFlagOutput, "output", "o", "", "Output file (stdout if omitted)")

	exportCmd.RegisterFlagCompletionFunc("as", fixedCompletions("json", "yaml", "ical"))

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	c := commandContext(cmd)

	format, err := exportFormat()
	if err != nil {
		return err
	}

	list, err := ctx.Alarms.List(c)
	if err != nil {
		return err
	}
	if len(args) > 0 {
		selected := make([]*model.Alarm, 0, len(args))
		for _, ref := range args {
			a, err := findAlarm(c, ref)
			if err != nil {
				return err
			}
			selected = append(selected, a)
		}
		list = selected
	}
	clock.SortByTime(list)

	doc := export.NewDocument(list, now())
	path := exportFlagOutput
	if path == "" {
		return export.Write(stdout, doc, format)
	}

	if info, err := os.Stat(path); err == nil && info.IsDir() {
		name := "alarms"
		if len(list) == 1 {
			name = list[0].Label
		}
		path = filepath.Join(path, defaultExportName(name, format))
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, doc, format); err != nil {
		return err
	}
	if err := storage.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return err
	}

	if !ctx.IsJSON() {
		ctx.CLIFormatter().Success(fmt.Sprintf("Exported %d alarms to %s", len(list), path))
	}
	return nil
}

// exportFormat picks the format from --as, then the output extension.
func exportFormat() (export.Format, error) {
	if exportFlagAs != "" {
		return export.ParseFormat(exportFlagAs)
	}
	if exportFlagOutput != "" {
		if f, ok := export.FormatFromPath(exportFlagOutput); ok {
			return f, nil
		}
	}
	return export.FormatJSON, nil
}

// defaultExportName suggests a file name for an alarm set.
func defaultExportName(label string, format export.Format) string {
	ext := string(format)
	if format == export.FormatICal {
		ext = "ics"
	}
	return validate.SafeFilename(label) + "." + ext
}

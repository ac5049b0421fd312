package output

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

func (f *ConsoleFormatter) FormatReport(report *Report) error {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	if report.Source != "" {
		fmt.Fprintf(f.writer, "\n%s\n", bold("Source: "+report.Source))
	}
	fmt.Fprintf(f.writer, "\n")

	if len(report.Files) == 0 {
		fmt.Fprintf(f.writer, "  %s no flows captured, nothing written\n\n", yellow("-"))
		return nil
	}

	for _, file := range report.Files {
		fmt.Fprintf(f.writer, "  %s %s %s\n", green("✓"), file.Path, cyan(fmt.Sprintf("(%d tasks)", file.Tasks)))
		if f.verbose {
			fmt.Fprintf(f.writer, "    Host: %s\n", file.Host)
		}
	}

	fmt.Fprintf(f.writer, "\n")
	fmt.Fprintf(f.writer, "Flows: %s", green(fmt.Sprintf("%d recorded", report.Flows)))
	if report.Skipped > 0 {
		fmt.Fprintf(f.writer, ", %s", yellow(fmt.Sprintf("%d skipped", report.Skipped)))
	}
	fmt.Fprintf(f.writer, "\n")
	fmt.Fprintf(f.writer, "Files: %d\n", len(report.Files))
	fmt.Fprintf(f.writer, "\n")
	return nil
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", bold("locustgen"), version)
}

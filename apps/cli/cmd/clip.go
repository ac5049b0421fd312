package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/locustgen/packages/clip"
	"github.com/abdul-hamid-achik/locustgen/packages/core/config"
	"github.com/abdul-hamid-achik/locustgen/packages/flow"
	"github.com/abdul-hamid-achik/locustgen/packages/journal"
)

var (
	clipSeqFlag     []int
	clipHostsFlag   []string
	clipDialectFlag string
	clipPrintFlag   bool
)

var clipCmd = &cobra.Command{
	Use:   "clip <task|code> <journal>",
	Short: "Copy rendered flows to the clipboard",
	Long: `Render journaled flows and copy the result to the system clipboard.

  task - the task methods only, ready to paste into an existing script
  code - a complete script holding one task per selected flow

Clipboard failures are logged and do not fail the command.

Examples:
  locustgen clip task flows.db --seq 3
  locustgen clip code flows.db --host api.example.com
  locustgen clip code flows.db --seq 1,2,5 --print`,
}

var clipTaskCmd = &cobra.Command{
	Use:   "task <journal>",
	Short: "Copy the task methods of the selected flows",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return clipCommand(cmd, args[0], (*clip.Clipper).Task)
	},
}

var clipCodeCmd = &cobra.Command{
	Use:   "code <journal>",
	Short: "Copy a complete script of the selected flows",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return clipCommand(cmd, args[0], (*clip.Clipper).Code)
	},
}

func init() {
	for _, c := range []*cobra.Command{clipTaskCmd, clipCodeCmd} {
		c.Flags().IntSliceVar(&clipSeqFlag, "seq", nil, "Sequence numbers of the flows to copy (default: all)")
		c.Flags().StringSliceVar(&clipHostsFlag, "host", nil, "Only copy flows of these hosts")
		c.Flags().StringVar(&clipDialectFlag, "dialect", "modern", "Script dialect (modern, legacy)")
		c.Flags().BoolVar(&clipPrintFlag, "print", false, "Also print the copied text")
	}

	clipCmd.AddCommand(clipTaskCmd)
	clipCmd.AddCommand(clipCodeCmd)
}

type clipFunc func(*clip.Clipper, []*flow.Flow) (string, bool, error)

func clipCommand(cmd *cobra.Command, path string, render clipFunc) error {
	overrides := &config.Config{}
	stringOverride(cmd, "dialect", clipDialectFlag, &overrides.Dialect)

	cfg, err := resolveConfig(cmd, overrides)
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	renderer, err := newRenderer(cfg)
	if err != nil {
		return err
	}

	j, err := journal.Open(path)
	if err != nil {
		return withExitCode(ExitInputError, err)
	}
	defer j.Close()

	flows, err := j.Flows(context.Background(), journal.Filter{Hosts: clipHostsFlag, Seqs: clipSeqFlag})
	if err != nil {
		return withExitCode(ExitInputError, err)
	}
	if len(flows) == 0 {
		return withExitCode(ExitInputError, fmt.Errorf("no matching flows in %s", j.Path()))
	}

	clipper := clip.New(clip.WithRenderer(renderer), clip.WithLogger(log))
	text, _, err := render(clipper, flows)
	if err != nil {
		return err
	}

	if clipPrintFlag {
		fmt.Fprint(cmd.OutOrStdout(), text)
	}
	return nil
}

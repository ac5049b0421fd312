package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/locustgen/packages/core/config"
	"github.com/abdul-hamid-achik/locustgen/packages/journal"
	"github.com/abdul-hamid-achik/locustgen/packages/proxy"
)

var (
	generatePrefixFlag    string
	generateOutputDirFlag string
	generateHostsFlag     []string
	generateExcludeFlag   []string
	generateDialectFlag   string
	generateJSONFlag      bool
)

var generateCmd = &cobra.Command{
	Use:   "generate <journal>",
	Short: "Rebuild scripts from a flow journal",
	Long: `Rebuild the scripts of a previous recording from its journal. Task
names keep the sequence numbers assigned while recording.

Examples:
  locustgen generate flows.db
  locustgen generate flows.db --dialect legacy --prefix old
  locustgen generate flows.db --host api.example.com -o scripts/`,
	Args: cobra.ExactArgs(1),
	RunE: generateCommand,
}

func init() {
	generateCmd.Flags().StringVarP(&generatePrefixFlag, "prefix", "p", "test", "Output filename prefix")
	generateCmd.Flags().StringVarP(&generateOutputDirFlag, "output-dir", "o", ".", "Directory to write scripts to")
	generateCmd.Flags().StringSliceVar(&generateHostsFlag, "host", nil, "Only include these hosts (repeatable, glob patterns)")
	generateCmd.Flags().StringSliceVar(&generateExcludeFlag, "exclude", nil, "Skip paths containing these fragments (comma-separated)")
	generateCmd.Flags().StringVar(&generateDialectFlag, "dialect", "modern", "Script dialect (modern, legacy)")
	generateCmd.Flags().BoolVar(&generateJSONFlag, "json", false, "Print the summary as JSON")
}

func generateCommand(cmd *cobra.Command, args []string) error {
	overrides := &config.Config{}
	stringOverride(cmd, "prefix", generatePrefixFlag, &overrides.FilenamePrefix)
	stringOverride(cmd, "output-dir", generateOutputDirFlag, &overrides.OutputDir)
	stringOverride(cmd, "dialect", generateDialectFlag, &overrides.Dialect)
	sliceOverride(cmd, "host", generateHostsFlag, &overrides.Hosts)
	sliceOverride(cmd, "exclude", generateExcludeFlag, &overrides.Exclude)

	cfg, err := resolveConfig(cmd, overrides)
	if err != nil {
		return err
	}

	log := newLogger(cfg)
	formatter := newFormatter(cmd.OutOrStdout(), cfg, generateJSONFlag)

	j, err := journal.Open(args[0])
	if err != nil {
		formatter.FormatError(err)
		return withExitCode(ExitInputError, err)
	}
	defer j.Close()

	flows, err := j.Flows(context.Background(), journal.Filter{})
	if err != nil {
		formatter.FormatError(err)
		return withExitCode(ExitInputError, err)
	}
	if len(flows) == 0 {
		err := fmt.Errorf("journal %s holds no flows", j.Path())
		formatter.FormatError(err)
		return withExitCode(ExitInputError, err)
	}

	opts, err := recorderOptions(cfg, log)
	if err != nil {
		return err
	}
	recorder := proxy.NewRecorder(append(opts, proxy.WithPreserveSeq(true))...)

	return writeReport(recorder, log, formatter, "journal "+j.Path(), flows)
}

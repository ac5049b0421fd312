package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/locustgen/packages/core/config"
	"github.com/abdul-hamid-achik/locustgen/packages/flow"
	"github.com/abdul-hamid-achik/locustgen/packages/locust"
	"github.com/abdul-hamid-achik/locustgen/packages/logging"
	"github.com/abdul-hamid-achik/locustgen/packages/output"
	"github.com/abdul-hamid-achik/locustgen/packages/proxy"
)

// resolveConfig loads the config file and applies overrides on top of it.
// Only fields set in overrides win, so flags left at their defaults never
// mask values from the file.
func resolveConfig(cmd *cobra.Command, overrides *config.Config) (*config.Config, error) {
	fileConfig, err := config.LoadConfig(configFlag)
	if err != nil {
		return nil, withExitCode(ExitConfigError, fmt.Errorf("failed to load config: %w", err))
	}

	if overrides == nil {
		overrides = &config.Config{}
	}
	if cmd.Flags().Changed("verbose") {
		overrides.Verbose = config.BoolPtr(verboseFlag)
	}
	if cmd.Flags().Changed("no-color") {
		overrides.NoColor = config.BoolPtr(noColorFlag)
	}

	cfg := fileConfig.Merge(overrides)
	if err := cfg.Validate(); err != nil {
		return nil, withExitCode(ExitConfigError, fmt.Errorf("invalid config: %w", err))
	}
	return cfg, nil
}

func newRenderer(cfg *config.Config) (*locust.Renderer, error) {
	dialect, err := locust.ParseDialect(cfg.Dialect)
	if err != nil {
		return nil, withExitCode(ExitConfigError, err)
	}
	return locust.NewRenderer(
		locust.WithDialect(dialect),
		locust.WithWait(cfg.MinWait, cfg.MaxWait),
	), nil
}

func newLogger(cfg *config.Config) *logrus.Logger {
	return logging.New(cfg.GetVerbose(), cfg.GetNoColor())
}

func newFormatter(w io.Writer, cfg *config.Config, asJSON bool) output.Formatter {
	if asJSON {
		return output.NewJSONFormatter(output.WithJSONWriter(w))
	}
	return output.NewConsoleFormatter(
		output.WithWriter(w),
		output.WithVerbose(cfg.GetVerbose()),
		output.WithNoColor(cfg.GetNoColor()),
	)
}

// recorderOptions maps the config onto recorder options shared by every
// command that writes scripts.
func recorderOptions(cfg *config.Config, log logrus.FieldLogger) ([]proxy.Option, error) {
	renderer, err := newRenderer(cfg)
	if err != nil {
		return nil, err
	}
	return []proxy.Option{
		proxy.WithPrefix(cfg.FilenamePrefix),
		proxy.WithOutputDir(cfg.OutputDir),
		proxy.WithHosts(cfg.Hosts),
		proxy.WithExclude(cfg.Exclude),
		proxy.WithRenderer(renderer),
		proxy.WithLogger(log),
	}, nil
}

func stringOverride(cmd *cobra.Command, name, value string, dst *string) {
	if cmd.Flags().Changed(name) {
		*dst = value
	}
}

func sliceOverride(cmd *cobra.Command, name string, value []string, dst *[]string) {
	if cmd.Flags().Changed(name) {
		*dst = value
	}
}

// writeReport feeds flows through recorder, writes the scripts and prints
// the summary.
func writeReport(recorder *proxy.Recorder, log logrus.FieldLogger, formatter output.Formatter, source string, flows []*flow.Flow) error {
	for _, f := range flows {
		if err := recorder.Observe(f); err != nil && !errors.Is(err, proxy.ErrFiltered) {
			log.WithError(err).WithField("host", f.Host).Warn("skipping flow")
		}
	}

	files, err := recorder.Done()
	if err != nil {
		formatter.FormatError(err)
		return err
	}

	recorded, skipped := recorder.Stats()
	return formatter.FormatReport(&output.Report{
		Source:  source,
		Flows:   recorded,
		Skipped: skipped,
		Files:   files,
	})
}

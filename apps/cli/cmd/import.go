package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/locustgen/packages/core/config"
	"github.com/abdul-hamid-achik/locustgen/packages/flow"
	"github.com/abdul-hamid-achik/locustgen/packages/import/curl"
	"github.com/abdul-hamid-achik/locustgen/packages/import/har"
	"github.com/abdul-hamid-achik/locustgen/packages/output"
	"github.com/abdul-hamid-achik/locustgen/packages/proxy"
)

// WatchDebounceDelay is the debounce delay for file watch events
const WatchDebounceDelay = 300 * time.Millisecond

var (
	importPrefixFlag    string
	importOutputDirFlag string
	importHostsFlag     []string
	importExcludeFlag   []string
	importDialectFlag   string
	importMethodsFlag   []string
	importSchemeFlag    string
	importWatchFlag     bool
	importJSONFlag      bool
)

var importCmd = &cobra.Command{
	Use:   "import <format> <source>",
	Short: "Build scripts from exported traffic",
	Long: `Build Locust scripts from traffic exported by other tools.

Supported formats:
  har  - HTTP Archive 1.2 (browser dev tools, Charles, Fiddler)
  curl - Files of curl commands, one per line with \ continuations

Requests are numbered in file order.

Examples:
  locustgen import har session.har
  locustgen import har session.har --watch --prefix session
  locustgen import curl commands.sh --host api.example.com`,
}

var importHARCmd = &cobra.Command{
	Use:   "har <file.har>",
	Short: "Import from a HAR export",
	Args:  cobra.ExactArgs(1),
	RunE:  importHARCommand,
}

var importCurlCmd = &cobra.Command{
	Use:   "curl <file>",
	Short: "Import from a file of curl commands",
	Args:  cobra.ExactArgs(1),
	RunE:  importCurlCommand,
}

func init() {
	for _, c := range []*cobra.Command{importHARCmd, importCurlCmd} {
		c.Flags().StringVarP(&importPrefixFlag, "prefix", "p", "test", "Output filename prefix")
		c.Flags().StringVarP(&importOutputDirFlag, "output-dir", "o", ".", "Directory to write scripts to")
		c.Flags().StringSliceVar(&importHostsFlag, "host", nil, "Only include these hosts (repeatable, glob patterns)")
		c.Flags().StringSliceVar(&importExcludeFlag, "exclude", nil, "Skip paths containing these fragments (comma-separated)")
		c.Flags().StringVar(&importDialectFlag, "dialect", "modern", "Script dialect (modern, legacy)")
		c.Flags().BoolVarP(&importWatchFlag, "watch", "w", false, "Regenerate scripts whenever the source file changes")
		c.Flags().BoolVar(&importJSONFlag, "json", false, "Print the summary as JSON")
	}
	importHARCmd.Flags().StringSliceVar(&importMethodsFlag, "method", nil, "Only import these methods (comma-separated)")
	importCurlCmd.Flags().StringVar(&importSchemeFlag, "default-scheme", "http", "Scheme for URLs given without one")

	importCmd.AddCommand(importHARCmd)
	importCmd.AddCommand(importCurlCmd)
}

func importHARCommand(cmd *cobra.Command, args []string) error {
	converter := har.NewConverter(har.WithMethods(importMethodsFlag))
	return runImport(cmd, "har "+args[0], args[0], converter.ConvertFile)
}

func importCurlCommand(cmd *cobra.Command, args []string) error {
	converter := curl.NewConverter(curl.WithDefaultScheme(importSchemeFlag))
	return runImport(cmd, "curl "+args[0], args[0], converter.ConvertFile)
}

func runImport(cmd *cobra.Command, source, path string, load func(string) ([]*flow.Flow, error)) error {
	overrides := &config.Config{}
	stringOverride(cmd, "prefix", importPrefixFlag, &overrides.FilenamePrefix)
	stringOverride(cmd, "output-dir", importOutputDirFlag, &overrides.OutputDir)
	stringOverride(cmd, "dialect", importDialectFlag, &overrides.Dialect)
	sliceOverride(cmd, "host", importHostsFlag, &overrides.Hosts)
	sliceOverride(cmd, "exclude", importExcludeFlag, &overrides.Exclude)

	cfg, err := resolveConfig(cmd, overrides)
	if err != nil {
		return err
	}

	log := newLogger(cfg)
	formatter := newFormatter(cmd.OutOrStdout(), cfg, importJSONFlag)

	generate := func() error {
		flows, err := load(path)
		if err != nil {
			formatter.FormatError(err)
			return withExitCode(ExitInputError, err)
		}
		opts, err := recorderOptions(cfg, log)
		if err != nil {
			return err
		}
		return writeReport(proxy.NewRecorder(opts...), log, formatter, source, flows)
	}

	if err := generate(); err != nil && !importWatchFlag {
		return err
	}
	if !importWatchFlag {
		return nil
	}

	return watchFile(cmd, path, log, formatter, generate)
}

// watchFile reruns generate whenever path is written or replaced. Editors
// often save by renaming, so the parent directory is watched.
func watchFile(cmd *cobra.Command, path string, log logrus.FieldLogger, formatter output.Formatter, generate func() error) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nWatching %s for changes... (press Ctrl+C to stop)\n\n", path)

	// Debounce timer for rapid file changes
	var debounceTimer *time.Timer

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(WatchDebounceDelay, func() {
				log.WithField("file", path).Info("source changed, regenerating")
				if err := generate(); err != nil {
					log.WithError(err).Warn("regeneration failed")
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			formatter.FormatError(fmt.Errorf("watcher error: %w", err))
		}
	}
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/locustgen/packages/core/config"
	"github.com/abdul-hamid-achik/locustgen/packages/journal"
	"github.com/abdul-hamid-achik/locustgen/packages/output"
	"github.com/abdul-hamid-achik/locustgen/packages/proxy"
)

var (
	recordListenFlag    string
	recordPrefixFlag    string
	recordOutputDirFlag string
	recordHostsFlag     []string
	recordExcludeFlag   []string
	recordJournalFlag   string
	recordDialectFlag   string
	recordInsecureFlag  bool
	recordStreamFlag    int64
	recordJSONFlag      bool
)

var recordCmd = &cobra.Command{
	Use:   "record [prefix]",
	Short: "Run an intercepting proxy and write one Locust script per host",
	Long: `Start an intercepting HTTP(S) proxy. Every request that passes through
it becomes a task in the script of its destination host. Scripts are written
as <prefix>-<host>.py when the proxy stops (Ctrl+C).

Point your browser or client at the proxy and trust the generated CA
certificate (~/.mitmproxy/mitmproxy-ca-cert.pem) to capture HTTPS traffic.

The filename prefix can be given as argument or with --prefix (default "test").

Examples:
  locustgen record
  locustgen record checkout
  locustgen record --prefix checkout --listen :9090
  locustgen record --host api.example.com --host '*.cdn.example.com'
  locustgen record --exclude /static,/health --journal flows.db`,
	Args: cobra.MaximumNArgs(1),
	RunE: recordCommand,
}

func init() {
	recordCmd.Flags().StringVarP(&recordListenFlag, "listen", "l", ":8080", "Proxy listen address")
	recordCmd.Flags().StringVarP(&recordPrefixFlag, "prefix", "p", "test", "Output filename prefix")
	recordCmd.Flags().StringVarP(&recordOutputDirFlag, "output-dir", "o", ".", "Directory to write scripts to")
	recordCmd.Flags().StringSliceVar(&recordHostsFlag, "host", nil, "Only record these hosts (repeatable, glob patterns)")
	recordCmd.Flags().StringSliceVar(&recordExcludeFlag, "exclude", nil, "Skip paths containing these fragments (comma-separated)")
	recordCmd.Flags().StringVar(&recordJournalFlag, "journal", "", "SQLite journal to append every recorded flow to")
	recordCmd.Flags().StringVar(&recordDialectFlag, "dialect", "modern", "Script dialect (modern, legacy)")
	recordCmd.Flags().BoolVarP(&recordInsecureFlag, "insecure", "k", false, "Skip upstream TLS certificate verification")
	recordCmd.Flags().Int64Var(&recordStreamFlag, "stream-large-bodies", 5*1024*1024, "Stream bodies larger than this many bytes instead of recording them")
	recordCmd.Flags().BoolVar(&recordJSONFlag, "json", false, "Print the summary as JSON")
}

func recordCommand(cmd *cobra.Command, args []string) error {
	overrides := &config.Config{}
	if len(args) == 1 {
		if cmd.Flags().Changed("prefix") && args[0] != recordPrefixFlag {
			return withExitCode(ExitUsageError, fmt.Errorf("prefix given both as argument (%q) and --prefix (%q)", args[0], recordPrefixFlag))
		}
		overrides.FilenamePrefix = args[0]
	}
	stringOverride(cmd, "prefix", recordPrefixFlag, &overrides.FilenamePrefix)
	stringOverride(cmd, "listen", recordListenFlag, &overrides.Listen)
	stringOverride(cmd, "output-dir", recordOutputDirFlag, &overrides.OutputDir)
	stringOverride(cmd, "journal", recordJournalFlag, &overrides.Journal)
	stringOverride(cmd, "dialect", recordDialectFlag, &overrides.Dialect)
	sliceOverride(cmd, "host", recordHostsFlag, &overrides.Hosts)
	sliceOverride(cmd, "exclude", recordExcludeFlag, &overrides.Exclude)
	if cmd.Flags().Changed("insecure") {
		overrides.Insecure = config.BoolPtr(recordInsecureFlag)
	}
	if cmd.Flags().Changed("stream-large-bodies") {
		overrides.StreamLargeBodies = recordStreamFlag
	}

	cfg, err := resolveConfig(cmd, overrides)
	if err != nil {
		return err
	}

	log := newLogger(cfg)
	formatter := newFormatter(cmd.OutOrStdout(), cfg, recordJSONFlag)

	opts, err := recorderOptions(cfg, log)
	if err != nil {
		return err
	}
	opts = append(opts,
		proxy.WithListen(cfg.Listen),
		proxy.WithInsecure(cfg.GetInsecure()),
		proxy.WithStreamLargeBodies(cfg.StreamLargeBodies),
	)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Journal != "" {
		j, err := journal.Open(cfg.Journal)
		if err != nil {
			return withExitCode(ExitInputError, err)
		}
		defer j.Close()

		next, err := j.NextSeq(ctx)
		if err != nil {
			return withExitCode(ExitInputError, err)
		}
		opts = append(opts, proxy.WithJournal(j), proxy.WithStartSeq(next))
		log.WithField("journal", j.Path()).WithField("next_seq", next).Info("appending to journal")
	}

	recorder := proxy.NewRecorder(opts...)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(os.Stderr, "\nStopping proxy and writing scripts...")
			cancel()
		case <-ctx.Done():
		}
	}()

	files, err := recorder.Start(ctx)
	if err != nil {
		formatter.FormatError(err)
		if recorder.Registry().Len() == 0 {
			return withExitCode(ExitNetworkError, err)
		}
		return err
	}

	recorded, skipped := recorder.Stats()
	return formatter.FormatReport(&output.Report{
		Source:  "proxy " + cfg.Listen,
		Flows:   recorded,
		Skipped: skipped,
		Files:   files,
	})
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/ratings-cli/internal/config"
	"github.com/sells-group/ratings-cli/internal/extract"
	"github.com/sells-group/ratings-cli/internal/fetcher"
	"github.com/sells-group/ratings-cli/internal/model"
	"github.com/sells-group/ratings-cli/internal/reconcile"
	"github.com/sells-group/ratings-cli/internal/similarity"
	"github.com/sells-group/ratings-cli/internal/source"
	"github.com/sells-group/ratings-cli/pkg/google"
	"github.com/sells-group/ratings-cli/pkg/yandex"
)

var reconcileCmd = &cobra.Command{
	Use:       "reconcile <google|yandex|tabiturient>",
	Short:     "Fetch ratings from one source and write them to matching universities",
	Long:      "Looks every selected university up at the source (or, with --batch, downloads the whole leaderboard once and fuzzy-matches names) and updates that source's fields.",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"google", "yandex", "tabiturient"},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		src, err := model.ParseSource(args[0])
		if err != nil {
			return err
		}

		req, err := reconcileRequest(cmd, src)
		if err != nil {
			return err
		}
		if err := cfg.Validate(src); err != nil {
			return err
		}
		metric, err := similarity.ByName(cfg.Matching.Metric)
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		if err := checkFormat(format); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		runner := reconcile.NewRunner(st, buildFetcher(cfg, src), reconcile.WithMetric(metric))
		report, err := runner.Run(ctx, req)
		if source.IsConfigurationMissing(err) {
			zap.L().Warn("reconcile: source not configured, nothing to do", zap.String("source", string(src)))
			fmt.Fprintf(os.Stderr, "%s is not configured (set RATINGS_%s_KEY); skipping.\n", src, strings.ToUpper(string(src)))
			return nil
		}
		if err != nil {
			return err
		}

		return writeReport(os.Stdout, report, format)
	},
}

func init() {
	addReconcileFlags(reconcileCmd)
	rootCmd.AddCommand(reconcileCmd)
}

func addReconcileFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int("limit", 0, "max number of universities to process (0 = all)")
	f.Float64("delay", 0, "seconds between per-university fetches (default from config)")
	f.Int64("university-id", 0, "process a single university")
	f.Bool("batch", false, "download the whole dataset once and fuzzy-match names (tabiturient only)")
	f.Float64("threshold", 0, "batch match threshold in (0,1) (default from config)")
	f.String("metric", "", "similarity metric: ratio or jaro-winkler (default from config)")
	f.String("format", "table", "output format: table, json or yaml")
}

// reconcileRequest folds command flags over the configured defaults.
func reconcileRequest(cmd *cobra.Command, src model.Source) (reconcile.Request, error) {
	flags := cmd.Flags()

	if flags.Changed("threshold") {
		cfg.Matching.Threshold, _ = flags.GetFloat64("threshold")
	}
	if flags.Changed("metric") {
		cfg.Matching.Metric, _ = flags.GetString("metric")
	}

	delay := cfg.Reconcile.Delay(src)
	if flags.Changed("delay") {
		secs, _ := flags.GetFloat64("delay")
		if secs < 0 {
			return reconcile.Request{}, eris.New("--delay must not be negative")
		}
		delay = time.Duration(secs * float64(time.Second))
	}

	limit, _ := flags.GetInt("limit")
	id, _ := flags.GetInt64("university-id")
	batch, _ := flags.GetBool("batch")

	mode := model.ModePerEntity
	if batch {
		mode = model.ModeBatch
	}

	return reconcile.Request{
		Source:       src,
		Mode:         mode,
		Delay:        delay,
		Limit:        limit,
		UniversityID: id,
		Threshold:    cfg.Matching.Threshold,
	}, nil
}

// buildFetcher wires the source fetcher for src from configuration. Places
// sources without an API key get a nil client and report themselves
// unavailable.
func buildFetcher(c *config.Config, src model.Source) source.Fetcher {
	switch src {
	case model.SourceGoogle:
		var client google.Client
		if c.Google.Key != "" {
			client = google.NewClient(c.Google.Key, google.WithRateLimit(c.Google.RateLimit))
		}
		return source.NewGoogleFetcher(client)
	case model.SourceYandex:
		var client yandex.Client
		if c.Yandex.Key != "" {
			client = yandex.NewClient(c.Yandex.Key, yandex.WithRateLimit(c.Yandex.RateLimit))
		}
		return source.NewYandexFetcher(client)
	default:
		pages := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			UserAgent:  fetcher.BrowserUserAgent,
			Timeout:    c.Tabiturient.Timeout(),
			MaxRetries: c.Tabiturient.MaxRetries,
		})
		return source.NewLeaderboardFetcher(pages, source.LeaderboardOptions{
			URL: c.Tabiturient.URL,
			Extract: extract.LeaderboardOptions{
				MinRating: c.Tabiturient.MinRating,
				MaxRating: c.Tabiturient.MaxRating,
			},
		})
	}
}

func checkFormat(format string) error {
	switch format {
	case "table", "json", "yaml":
		return nil
	default:
		return eris.Errorf("unknown format %q (valid: table, json, yaml)", format)
	}
}

// writeReport renders a finished run in the requested format.
func writeReport(out io.Writer, report *reconcile.Report, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return eris.Wrap(err, "encode yaml")
		}
		return enc.Close()
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, o := range report.Outcomes {
		if o.Kind == model.OutcomeUpdated || o.Kind == model.OutcomeSkipped {
			continue
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", o.UniversityID, o.Name, o.Kind, o.Reason)
	}
	s := report.Summary
	_, _ = fmt.Fprintf(w, "\nRun %s (%s, %s)\n", truncateID(report.RunID), report.Source, report.Mode)
	_, _ = fmt.Fprintf(w, "Updated:\t%d\n", s.Updated)
	_, _ = fmt.Fprintf(w, "Not found:\t%d\n", s.NotFound)
	_, _ = fmt.Fprintf(w, "Skipped:\t%d\n", s.Skipped)
	_, _ = fmt.Fprintf(w, "Failed:\t%d\n", s.Failed)
	_, _ = fmt.Fprintf(w, "Total:\t%d\n", s.Total)
	_, _ = fmt.Fprintf(w, "Duration:\t%s\n", report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))
	return w.Flush()
}

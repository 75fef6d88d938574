package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/aretw0/collist/internal/platform"
	"github.com/aretw0/collist/pkg/adapters/fs"
	"github.com/aretw0/collist/pkg/adapters/metrics"
	"github.com/aretw0/collist/pkg/scenario"
)

var (
	replayJSON        bool
	replayVerify      bool
	replayWatch       bool
	replayOut         string
	replayMetricsAddr string
)

var replayCmd = &cobra.Command{
	Use:   "replay [file]",
	Short: "Replay a scenario and print the batches every collection publishes",
	Long: `Replay loads a scenario file, builds the root collection and its views, applies
the steps and prints one entry per published batch.

Without a file argument the nearest collist.yaml (or collist.yml, .collist.yaml) in
the current directory or its parents is used.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path, err := scenarioPath(args)
		if err != nil {
			fatal("Error locating scenario", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		logger := slog.Default()
		var m *metrics.Metrics
		if replayMetricsAddr != "" {
			reg := prometheus.NewRegistry()
			if m, err = metrics.New(reg); err != nil {
				fatal("Error registering metrics", err)
			}
			serveMetrics(ctx, reg, logger)
		}

		r := &replayer{path: path, logger: logger, metrics: m, out: os.Stdout}
		if !replayWatch {
			if err := r.once(ctx); err != nil {
				fatal("Error replaying scenario", err)
			}
			return
		}
		if err := r.watch(ctx); err != nil {
			fatal("Error watching scenario", err)
		}
	},
}

func init() {
	replayCmd.Flags().BoolVar(&replayJSON, "json", false, "Output the report as JSON")
	replayCmd.Flags().BoolVar(&replayVerify, "verify", false, "Check that every batch replays onto the previous state")
	replayCmd.Flags().BoolVarP(&replayWatch, "watch", "w", false, "Replay again whenever the scenario file changes")
	replayCmd.Flags().StringVarP(&replayOut, "out", "o", "", "Write the report to a file instead of stdout")
	replayCmd.Flags().StringVar(&replayMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	rootCmd.AddCommand(replayCmd)
}

func scenarioPath(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return platform.FindScenario(wd)
}

type replayer struct {
	path    string
	logger  *slog.Logger
	metrics *metrics.Metrics
	out     io.Writer
}

// once loads and replays the scenario. The report is written even when a step fails.
func (r *replayer) once(ctx context.Context) error {
	s, err := scenario.LoadFile(r.path)
	if err != nil {
		return err
	}
	report, runErr := scenario.Run(ctx, s, scenario.Options{
		Verify:  replayVerify,
		Logger:  r.logger,
		Metrics: r.metrics,
	})

	var buf strings.Builder
	if replayJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		buf.Write(data)
		buf.WriteByte('\n')
	} else {
		renderText(&buf, report)
	}

	if replayOut != "" {
		if err := fs.WriteFile(replayOut, []byte(buf.String()), 0o644); err != nil {
			return err
		}
	} else if _, err := io.WriteString(r.out, buf.String()); err != nil {
		return err
	}
	return runErr
}

// watch replays once, then again after every change of the scenario file, until ctx
// is cancelled.
func (r *replayer) watch(ctx context.Context) error {
	if err := r.once(ctx); err != nil {
		r.logger.Error("replay failed", "error", err)
	}

	w, err := fs.NewWatcher(r.path, r.logger)
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = w.Stop(stopCtx)
	}()

	r.logger.Info("watching scenario", "path", r.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-w.Events():
			if !ok {
				return nil
			}
			r.logger.Info("scenario changed, replaying", "event", e.String())
			if err := r.once(ctx); err != nil {
				r.logger.Error("replay failed", "error", err)
			}
		}
	}
}

func serveMetrics(ctx context.Context, reg *prometheus.Registry, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: replayMetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	lifecycle.Go(ctx, func(ctx context.Context) error {
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		logger.Info("serving metrics", "addr", replayMetricsAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}, lifecycle.WithErrorHandler(func(err error) {
		logger.Error("metrics server failed", "error", err)
	}))
}

func renderText(w io.Writer, report *scenario.Report) {
	if report.Name != "" {
		fmt.Fprintf(w, "scenario %s\n", report.Name)
	}
	for _, step := range report.Steps {
		fmt.Fprintf(w, "#%d %s\n", step.Index, step.Step)
		for _, e := range step.Emissions {
			if len(e.Records) == 0 {
				fmt.Fprintf(w, "  %s: (empty batch)\n", e.Collection)
				continue
			}
			fmt.Fprintf(w, "  %s:\n", e.Collection)
			for _, rec := range e.Records {
				fmt.Fprintf(w, "    %s\n", rec)
			}
		}
	}
	if len(report.Final) > 0 {
		fmt.Fprintln(w, "final")
	}
	for _, f := range report.Final {
		fmt.Fprintf(w, "  %s:", f.Collection)
		for _, s := range f.Sections {
			fmt.Fprintf(w, " %s%v", s.ID, s.Objects)
		}
		fmt.Fprintln(w)
	}
}

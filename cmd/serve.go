package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/cabcoat/cabcoat/internal/config"
	"github.com/cabcoat/cabcoat/internal/engines"
	"github.com/cabcoat/cabcoat/internal/handlers"
	"github.com/cabcoat/cabcoat/internal/history"
	"github.com/cabcoat/cabcoat/internal/metrics"
	"github.com/cabcoat/cabcoat/internal/session"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var port string
	var palettePath string
	var exportDir string
	var historyPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the design API server",
		Long: `Starts the CabCoat HTTP API on the specified port.

Browser front ends upload a kitchen photo, adjust the colour, sheen and hardware
selection, request generations and download annotated exports. Prometheus metrics
are served on /metrics.`,
		Example: `  # Start server on default port 8888
  cabcoat serve

  # Keep published exports in ./exports and a generation log in history.parquet
  cabcoat serve --export-dir exports --history history.parquet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := config.Load()
			if historyPath == "" {
				historyPath = cfg.History
			}

			eng, err := engines.New(cfg)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				slog.Warn("Engine configuration incomplete; collaborator calls will fail", "err", err)
			}

			cat, err := loadCatalog(palettePath)
			if err != nil {
				return err
			}

			gate, flags, err := openGate(ctx, cfg)
			if err != nil {
				return err
			}
			defer flags.Close()

			pub, err := newPublisher(ctx, cfg, exportDir)
			if err != nil {
				return err
			}

			recorder := metrics.New()
			observers := []session.Observer{recorder}
			if historyPath != "" {
				historyLog := history.NewLog(historyPath)
				observers = append(observers, historyLog)
				go historyLog.Run(ctx, time.Minute)
				defer func() {
					if err := historyLog.Flush(); err != nil {
						slog.Error("Failed to flush generation history", "err", err)
					}
				}()
			}

			handler := handlers.New(handlers.Config{
				Analyzer:    eng.Analyzer,
				Synthesizer: eng.Synthesizer,
				Gate:        gate,
				Catalog:     cat,
				Options:     sessionOptions(cfg, observers...),
				Counters:    recorder,
				Publisher:   pub,
			})

			// Set up routes
			mux := http.NewServeMux()
			handler.Routes(mux)
			mux.Handle("/metrics", recorder.Handler())
			mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
				if _, err := w.Write([]byte("OK")); err != nil {
					slog.Error("Unable to write healthcheck", "err", err)
				}
			})

			addr := ":" + port
			server := &http.Server{
				Addr:    addr,
				Handler: mux,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("CabCoat API available", "addr", addr, "url", "http://localhost"+addr,
					"analysis", eng.AnalysisProvider+"/"+eng.AnalysisModel,
					"synthesis", eng.SynthesisProvider+"/"+eng.SynthesisModel)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-ctx.Done():
				slog.Info("Shutting down server...")
				// Generations can take a while; give in-flight requests time to finish
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on")
	cmd.Flags().StringVar(&palettePath, "palette", "", "YAML palette replacing the built-in colours")
	cmd.Flags().StringVar(&exportDir, "export-dir", "", "Directory for published exports (ignored when CABCOAT_S3_BUCKET is set)")
	cmd.Flags().StringVar(&historyPath, "history", "", "Parquet file for the generation history (default $CABCOAT_HISTORY)")

	return cmd
}

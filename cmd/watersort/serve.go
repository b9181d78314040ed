package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	httpadapter "svw.info/watersort/internal/adapters/http"
	"svw.info/watersort/internal/domain"
	"svw.info/watersort/internal/generator"
	"svw.info/watersort/internal/ports"
	"svw.info/watersort/internal/solver"
	"svw.info/watersort/internal/usecase"
	"svw.info/watersort/internal/validator"
)

// statusWriter captures HTTP status and bytes written.
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// requestLogger logs method, path, status, bytes, and duration.
func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)
		logger.Info("http",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"bytes", sw.bytes,
			"dur", time.Since(start).Round(time.Millisecond),
		)
	})
}

func newServeCmd() *cobra.Command {
	var (
		addr     string
		budgetMs int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Expose generation, solving, and validation over a JSON API",
		RunE: func(cmd *cobra.Command, args []string) error {
			factory := func(p domain.Params, seed uint64) ports.Generator {
				opt := generator.DefaultOptions()
				opt.Seed = seed
				return generator.New(p, opt)
			}
			uc := usecase.NewService(
				solver.New(time.Duration(budgetMs)*time.Millisecond),
				factory,
				validator.New(),
				nil,
				slog.Default(),
			)

			mux := http.NewServeMux()
			httpadapter.New(uc).Register(mux)

			srv := &http.Server{
				Addr:              addr,
				Handler:           requestLogger(slog.Default(), mux),
				ReadHeaderTimeout: 5 * time.Second,
			}
			slog.Info("listening", "addr", addr, "budgetMs", budgetMs)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().IntVar(&budgetMs, "budget-ms", 2000, "default solver budget")
	return cmd
}

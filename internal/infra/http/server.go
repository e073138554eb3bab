package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xuri/excelize/v2"
)

// WorkbookBuilder produces the inventory export; wired from internal/report.
type WorkbookBuilder interface {
	BuildWorkbook(ctx context.Context) (*excelize.File, error)
}

type Server struct {
	srv *http.Server
}

func New(addr string, exposeMetrics bool, api *API, cat *CatalogAPI, export WorkbookBuilder, log *slog.Logger) *Server {
	mux := http.NewServeMux()

	if api != nil {
		api.register(mux)
	}
	if cat != nil {
		cat.register(mux)
	}

	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	if exposeMetrics {
		mux.Handle("/metrics", promhttp.Handler())
	}

	if export != nil {
		mux.HandleFunc("/export/inventory.xlsx", func(w http.ResponseWriter, r *http.Request) {
			f, err := export.BuildWorkbook(r.Context())
			if err != nil {
				log.Error("inventory export failed", "err", err)
				http.Error(w, "export failed", http.StatusInternalServerError)
				return
			}
			defer func() { _ = f.Close() }()

			name := fmt.Sprintf("inventory_%s.xlsx", time.Now().Format("20060102_150405"))
			w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
			w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
			if err := f.Write(w); err != nil {
				log.Error("inventory export write failed", "err", err)
			}
		})
	}

	return &Server{srv: &http.Server{Addr: addr, Handler: mux}}
}

func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

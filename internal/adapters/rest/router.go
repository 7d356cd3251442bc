// Package rest はフィードのアップロードと集計参照のための HTTP API を提供します。
package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ogurasousui/codex-employee-roster/internal/adapters/feed"
	"github.com/ogurasousui/codex-employee-roster/internal/core/company"
	"github.com/ogurasousui/codex-employee-roster/internal/core/employee"
	"github.com/ogurasousui/codex-employee-roster/internal/core/importer"
	"github.com/ogurasousui/codex-employee-roster/internal/platform/logging"
)

// Importer は取り込み行のバッチを処理します。importer.Pipeline が実装します。
type Importer interface {
	ImportBatch(ctx context.Context, lines []importer.Line) importer.Summary
}

// Pinger は依存先の疎通確認です。pgxpool.Pool が実装します。
type Pinger interface {
	Ping(ctx context.Context) error
}

// Limits は取り込みリクエストの上限です。
type Limits struct {
	MaxRecords   int
	MaxBodyBytes int64
}

// Handler は HTTP API のハンドラー群です。
type Handler struct {
	employees employee.UseCase
	stats     company.UseCase
	importer  Importer
	limits    Limits
	db        Pinger
}

// NewHandler は Handler を生成します。db が nil の場合、ヘルスチェックはデータベースを確認しません。
func NewHandler(employees employee.UseCase, stats company.UseCase, imp Importer, limits Limits, db Pinger) *Handler {
	return &Handler{
		employees: employees,
		stats:     stats,
		importer:  imp,
		limits:    limits,
		db:        db,
	}
}

// Router は chi のルーターを構築します。
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", h.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/imports", h.handleImport)
		r.Get("/imports/schema", h.handleImportSchema)

		r.Get("/employees/{email}", h.handleGetEmployee)

		r.Get("/companies/statistics", h.handleListStatistics)
		r.Get("/companies/{companyName}/statistics", h.handleGetStatistics)
	})

	return r
}

func (h *Handler) feedOptions() feed.Options {
	return feed.Options{MaxRecords: h.limits.MaxRecords}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logging.FromContext(r.Context()).Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

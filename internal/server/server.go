// Package server serves the lease-up dashboard over HTTP.
package server

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"

	"github.com/KaramelBytes/leaseup/internal/dataset"
	"github.com/KaramelBytes/leaseup/internal/insight"
	"github.com/KaramelBytes/leaseup/internal/plot"
	"github.com/KaramelBytes/leaseup/internal/stats"
)

//go:embed templates/*.html
var templateFS embed.FS

// InsightGenerator produces a narrative for a cluster summary.
type InsightGenerator interface {
	Generate(ctx context.Context, s stats.Summary) (*insight.Result, error)
	Model() string
}

type Options struct {
	Addr        string
	DatasetName string
	Logger      *slog.Logger
}

// Server holds the immutable base table. Every request derives its own filtered view.
type Server struct {
	opts   Options
	log    *slog.Logger
	table  *dataset.Table
	gen    InsightGenerator
	engine *gin.Engine
}

// New builds the router. gen may be nil, in which case insight requests answer 503.
func New(table *dataset.Table, gen InsightGenerator, opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = "127.0.0.1:8501"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if table == nil {
		table = dataset.NewTable(nil)
	}
	s := &Server{opts: opts, log: opts.Logger, table: table, gen: gen}
	s.engine = s.routes()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.SetHTMLTemplate(template.Must(template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")))

	r.GET("/", getP[ViewParams](s.index))
	r.GET("/chart", s.chartHTML)
	r.GET("/chart.png", s.chartPNG)

	api := r.Group("/api")
	api.GET("/seasons", get(s.seasons))
	api.GET("/clusters", getP[ViewParams](s.clusters))
	api.GET("/records", getP[ViewParams](s.records))
	api.GET("/summary", getP[ViewParams](s.summary))
	api.POST("/insight", s.insight)
	return r
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.opts.Addr, Handler: s.engine, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("dashboard listening", "addr", "http://"+s.opts.Addr, "rows", s.table.Len())
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("shutting down dashboard")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
		)
	}
}

var templateFuncs = template.FuncMap{
	"num": func(x float64) string { return stats.Number(x).String() },
	"comma": func(n int) string { return humanize.Comma(int64(n)) },
	"color": plot.ColorFor,
}

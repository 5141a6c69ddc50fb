// Package api serves the exploration dashboard: Plotly figure documents,
// region and date listings, and the static page that renders them.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/caseatlas/caseatlas/internal/config"
	"github.com/caseatlas/caseatlas/internal/dataset"
	"github.com/caseatlas/caseatlas/internal/geometry"
)

// Server wires dataset and geometry sources to the HTTP API.
type Server struct {
	data config.DataConfig
	geom config.GeometryConfig
}

// NewServer creates a Server over the configured sources.
func NewServer(cfg *config.Config) *Server {
	return &Server{data: cfg.Data, geom: cfg.Geometry}
}

// dataPath returns the CSV path for a level.
func (s *Server) dataPath(level dataset.Level) string {
	switch level {
	case dataset.LevelState:
		return s.data.StatePath()
	case dataset.LevelCounty:
		return s.data.CountyPath()
	default:
		return s.data.CountryPath()
	}
}

// geomPath returns the boundary GeoJSON path for a level. There is no
// boundary file at country granularity.
func (s *Server) geomPath(level dataset.Level) (string, error) {
	switch level {
	case dataset.LevelState:
		return s.geom.StatesPath(), nil
	case dataset.LevelCounty:
		return s.geom.CountiesPath(), nil
	default:
		return "", eris.Errorf("api: no boundary geometry at %s level", level)
	}
}

func (s *Server) table(level dataset.Level) (*dataset.Table, error) {
	return dataset.Open(s.dataPath(level), level)
}

func (s *Server) geometry(level dataset.Level) (*geometry.Collection, error) {
	path, err := s.geomPath(level)
	if err != nil {
		return nil, err
	}
	return geometry.Load(path)
}

// Warm eagerly loads every source in parallel. A source that fails to load
// is logged and left unavailable; the others still serve. Warm only returns
// an error when the context is cancelled.
func (s *Server) Warm(ctx context.Context) error {
	log := zap.L().With(zap.String("component", "api"))

	g, ctx := errgroup.WithContext(ctx)
	for _, level := range []dataset.Level{dataset.LevelCountry, dataset.LevelState, dataset.LevelCounty} {
		level := level
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, err := s.table(level); err != nil {
				log.Warn("data source unavailable", zap.String("level", string(level)), zap.Error(err))
			}
			return nil
		})
	}
	for _, level := range []dataset.Level{dataset.LevelState, dataset.LevelCounty} {
		level := level
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, err := s.geometry(level); err != nil {
				log.Warn("geometry source unavailable", zap.String("level", string(level)), zap.Error(err))
			}
			return nil
		})
	}
	return g.Wait()
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}))

	r.Get("/healthz", s.handleHealth)
	r.Get("/api/figure/choropleth", s.handleChoropleth)
	r.Get("/api/figure/line", s.handleLine)
	r.Get("/api/regions", s.handleRegions)
	r.Get("/api/dates", s.handleDates)
	r.Get("/", s.handleDashboard)

	return r
}

// ListenAndServe runs the server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server", zap.String("component", "api"))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	zap.L().Info("starting server", zap.String("component", "api"), zap.Int("port", port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "api: listen")
	}
	return nil
}

// requestLogger logs each request with its status and duration.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Debug("request",
			zap.String("component", "api"),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

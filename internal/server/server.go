// Package server exposes stored analyses over a read-only HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/ppiankov/credence/internal/model"
	"github.com/ppiankov/credence/internal/report"
	"github.com/ppiankov/credence/internal/store"
)

// GracefulShutdownTimeout bounds how long in-flight requests may finish
const GracefulShutdownTimeout = 10 * time.Second

// Store is what the API reads
type Store interface {
	report.Source
	GetAnalysis(ctx context.Context, postID int64) (*model.AnalysisResult, error)
	Ping(ctx context.Context) error
}

var _ Store = (store.Store)(nil)

// Server wraps the echo instance and its dependencies
type Server struct {
	Echo *echo.Echo

	addr  string
	store Store
	log   logrus.FieldLogger
}

// New creates a server with routes and middlewares installed
func New(st Store, cfg model.ServerConfig, log logrus.FieldLogger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(log)

	s := &Server{
		Echo:  e,
		addr:  cfg.Addr,
		store: st,
		log:   log,
	}

	s.setupMiddlewares()
	s.routes()

	return s
}

func (s *Server) setupMiddlewares() {
	s.Echo.Use(requestLogger(s.log))
	s.Echo.Use(middleware.Recover())
}

func (s *Server) routes() {
	s.Echo.GET("/health", s.health)
	s.Echo.GET("/analyses", s.listAnalyses)
	s.Echo.GET("/analyses/:postId", s.getAnalysis)
	s.Echo.GET("/report/summary", s.summary)
}

// Start serves until ctx is done, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.addr).Info("api listening")
		if err := s.Echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), GracefulShutdownTimeout)
	defer cancel()

	if err := s.Echo.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// requestLogger logs one line per request through logrus
func requestLogger(log logrus.FieldLogger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogLatency:  true,
		LogURI:      true,
		LogMethod:   true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			entry := log.WithFields(logrus.Fields{
				"method":  v.Method,
				"uri":     v.URI,
				"status":  v.Status,
				"latency": v.Latency.String(),
			})
			if v.Error != nil {
				entry.WithError(v.Error).Warn("request failed")
				return nil
			}
			entry.Debug("request")
			return nil
		},
	})
}

// errorHandler renders errors as {"error": "..."}
func errorHandler(log logrus.FieldLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		switch {
		case errors.As(err, &he):
			_ = c.JSON(he.Code, map[string]any{"error": he.Message})
		case errors.Is(err, model.ErrAnalysisNotFound), errors.Is(err, model.ErrPostNotFound):
			_ = c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
		default:
			log.WithError(err).Error("unhandled error")
			_ = c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
	}
}

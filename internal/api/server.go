// Package api exposes the study services over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/wowoyong/voca-app/internal/apperr"
	"github.com/wowoyong/voca-app/internal/logging"
	"github.com/wowoyong/voca-app/internal/metrics"
	"github.com/wowoyong/voca-app/internal/quiz"
	"github.com/wowoyong/voca-app/internal/study"
)

// DefaultLang is used when a request names no language domain.
const DefaultLang = "en"

// Domain bundles the services of one language domain.
type Domain struct {
	Study *study.Service
	Quiz  *quiz.Generator
	// Ping reports storage health. Optional.
	Ping func(ctx context.Context) error
}

// Options configures a Server.
type Options struct {
	Logger         *zap.Logger
	Metrics        *metrics.Metrics
	RateLimitRPS   float64
	RateLimitBurst int
}

// Server is the HTTP front of every language domain.
type Server struct {
	echo    *echo.Echo
	domains map[string]Domain
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// New creates a server and registers its routes.
func New(domains map[string]Domain, opts Options) *Server {
	s := &Server{
		echo:    echo.New(),
		domains: domains,
		logger:  logging.OrNop(opts.Logger),
		metrics: opts.Metrics,
	}

	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(s.requestLogger())

	e.GET("/health", s.health)
	if s.metrics != nil {
		e.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}

	v1 := e.Group("/api/v1")
	if opts.RateLimitRPS > 0 {
		v1.Use(rateLimit(NewRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst)))
	}
	v1.POST("/learning-record", s.rate)
	v1.GET("/learning-record", s.stats)
	v1.GET("/today", s.today)
	v1.GET("/flashcards", s.flashcards)
	v1.GET("/review", s.review)
	v1.POST("/daily-session/complete", s.completeActivity)
	v1.GET("/stats", s.calendar)
	v1.GET("/quiz", s.quiz)
	v1.POST("/quiz/attempts", s.quizAttempt)
	v1.GET("/settings/notification-time", s.notificationSettings)
	v1.POST("/settings/notification-time", s.updateNotificationSettings)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.logger.Info("http server listening", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func statusOf(code apperr.Code) int {
	switch code {
	case apperr.CodeInvalidArgument:
		return http.StatusBadRequest
	case apperr.CodeNotFound:
		return http.StatusNotFound
	case apperr.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		he     *echo.HTTPError
		ae     *apperr.Error
		status int
		body   errorResponse
	)
	switch {
	case errors.As(err, &ae):
		status = statusOf(ae.Code)
		body = errorResponse{Error: ae.Message, Code: string(ae.Code)}
	case errors.As(err, &he):
		status = he.Code
		body = errorResponse{Error: http.StatusText(he.Code)}
		if msg, ok := he.Message.(string); ok {
			body.Error = msg
		}
	default:
		status = http.StatusInternalServerError
		body = errorResponse{Error: "internal error", Code: string(apperr.CodeInternal)}
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("path", c.Path()),
			zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			zap.Error(err))
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		s.logger.Warn("failed to write error response", zap.Error(err))
	}
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURIPath:   true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("path", v.URIPath),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency.Round(time.Microsecond)),
				zap.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			s.logger.Debug("request", fields...)
			return nil
		},
	})
}

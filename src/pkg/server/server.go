// Package server exposes plate recognition and the gate over HTTP with Echo.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"condo-plates/src/pkg/access"
	echomw "condo-plates/src/pkg/echo-middleware"
	"condo-plates/src/pkg/recognize"
	"condo-plates/src/pkg/vehicle"
)

type PlateReader interface {
	Recognize(ctx context.Context, imageBytes []byte, regionID string) recognize.Result
	Status() recognize.Status
}

type GateChecker interface {
	Check(ctx context.Context, imageBytes []byte, notes string) (access.Decision, *xerr.Error)
}

type Registry interface {
	FindByPlate(ctx context.Context, rawPlate string) (vehicle.Vehicle, bool, *xerr.Error)
	RecentAccess(ctx context.Context, limit int) ([]vehicle.AccessRecord, *xerr.Error)
}

// Dependencies of the HTTP API. Gate and Registry may be nil, their routes then answer 503.
type Dependencies struct {
	Reader   PlateReader
	Gate     GateChecker
	Registry Registry
}

type Server struct {
	cfg  Config
	deps Dependencies
	echo *echo.Echo
}

func New(cfg Config, deps Dependencies) (server *Server, e *xerr.Error) {
	if deps.Reader == nil {
		return nil, xerr.NewError(errors.New("plate reader is required"), "create HTTP server", nil)
	}
	server = &Server{cfg: cfg, deps: deps, echo: echo.New()}
	server.echo.HideBanner = true
	server.echo.HidePort = true
	server.routes()
	return server, nil
}

// Handler is the Echo instance, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.echo }

func (s *Server) routes() {
	s.echo.Use(echomw.RouteAccessLoggerMiddleware)
	s.echo.GET("/healthz", s.handleHealth)

	api := s.echo.Group("/api/v1", echomw.NewRateLimiterFromConfig().Middleware, echomw.RequireBearerToken)
	api.POST("/plates/read", s.handleRead)
	api.POST("/plates/access", s.handleAccess)
	api.GET("/ocr/status", s.handleStatus)
	api.GET("/access/recent", s.handleRecentAccess)
}

/*
Run serves until ctx is cancelled, then shuts down gracefully, letting
in-flight recognitions finish within ShutdownTimeoutSeconds.
*/
func (s *Server) Run(ctx context.Context) (e *xerr.Error) {
	address := fmt.Sprintf("%s:%d", s.cfg.Address, s.cfg.Port)
	httpServer := &http.Server{
		Addr:         address,
		Handler:      s.echo,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeoutSeconds) * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		tl.Log(tl.Notice, palette.Green, "Plate API listening on '%s'", address)
		serveErr <- s.echo.StartServer(httpServer)
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return xerr.NewError(err, "serve HTTP", address)
		}
		return nil
	case <-ctx.Done():
	}

	tl.Log(tl.Notice, palette.Yellow, "Shutting down plate API on '%s'", address)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(s.cfg.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()
	err := s.echo.Shutdown(shutdownCtx)
	if err != nil {
		return xerr.NewError(err, "shut down HTTP server", address)
	}
	<-serveErr
	tl.Log(tl.Info, palette.Green, "Plate API %s", "stopped")
	return nil
}

var timeNow = time.Now

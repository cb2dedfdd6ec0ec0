package router

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"table-reservation-service/internal/infrastructure/auth"
	"table-reservation-service/internal/interface/gql"
	"table-reservation-service/internal/interface/rest"
	"table-reservation-service/internal/usecase"
	"table-reservation-service/pkg/logger"
)

// Options holds everything the HTTP router needs
type Options struct {
	Service     *usecase.ReservationService
	Guard       *auth.StaffGuard
	Logger      logger.Logger
	Gatherer    prometheus.Gatherer
	Version     string
	Development bool
}

// New builds the echo instance serving both reservation surfaces
func New(opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	mapper := rest.NewErrorMapper(opts.Development, opts.Logger)
	e.HTTPErrorHandler = mapper.HandleError

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []interface{}{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency.String(),
				"requestID", v.RequestID,
			}
			if v.Error != nil {
				opts.Logger.Warn("Request completed with error", append(fields, "error", v.Error)...)
				return nil
			}
			opts.Logger.Info("Request completed", fields...)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.Secure())

	e.GET("/", welcome(opts.Version))
	e.GET("/health", health(opts.Service))
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))

	rest.NewReservationHandler(opts.Service, opts.Guard, opts.Logger).
		Register(e.Group("/api/reservations"))

	resolver := gql.NewResolver(opts.Service, opts.Guard, mapper, opts.Logger)
	e.POST("/graphql", echo.WrapHandler(gql.NewHandler(resolver)))

	return e
}

func welcome(version string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"message": "Welcome to the Restaurant Reservation API",
			"version": version,
			"rest":    "/api/reservations",
			"graphql": "/graphql",
		})
	}
}

func health(service *usecase.ReservationService) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		if err := service.Ping(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
	}
}

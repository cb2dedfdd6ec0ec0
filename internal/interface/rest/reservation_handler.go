package rest

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"table-reservation-service/internal/infrastructure/auth"
	"table-reservation-service/internal/usecase"
	"table-reservation-service/pkg/logger"
)

// ReservationHandler serves the resource surface under /api/reservations
type ReservationHandler struct {
	service *usecase.ReservationService
	guard   *auth.StaffGuard
	logger  logger.Logger
}

// NewReservationHandler creates a new reservation handler. guard may be nil.
func NewReservationHandler(service *usecase.ReservationService, guard *auth.StaffGuard, logger logger.Logger) *ReservationHandler {
	return &ReservationHandler{
		service: service,
		guard:   guard,
		logger:  logger,
	}
}

// Register mounts every reservation route on g
func (h *ReservationHandler) Register(g *echo.Group) {
	g.POST("", h.Create)
	g.GET("", h.ListAll)
	g.GET("/date/:date", h.ListByDate)
	g.GET("/status/:status", h.ListByStatus)
	g.PUT("/employee/:id", h.UpdateAsStaff, h.requireStaff)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.UpdateAsGuest)
	g.DELETE("/:id", h.Cancel)
}

// Create handles POST /
func (h *ReservationHandler) Create(c echo.Context) error {
	draft, err := decodeCreate(c.Request().Body)
	if err != nil {
		return err
	}

	res, err := h.service.Create(c.Request().Context(), draft)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, NewReservationResponse(res))
}

// Get handles GET /:id
func (h *ReservationHandler) Get(c echo.Context) error {
	res, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewReservationResponse(res))
}

// UpdateAsGuest handles PUT /:id
func (h *ReservationHandler) UpdateAsGuest(c echo.Context) error {
	return h.update(c, usecase.RoleGuest)
}

// UpdateAsStaff handles PUT /employee/:id
func (h *ReservationHandler) UpdateAsStaff(c echo.Context) error {
	return h.update(c, usecase.RoleStaff)
}

func (h *ReservationHandler) update(c echo.Context, role usecase.Role) error {
	patch, keys, err := decodePatch(c.Request().Body)
	if err != nil {
		// an access denial outranks a malformed value
		if keys != nil {
			if denied := h.service.CheckFields(role, keys); denied != nil {
				return denied
			}
		}
		return err
	}

	res, err := h.service.Update(c.Request().Context(), role, c.Param("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewReservationResponse(res))
}

// Cancel handles DELETE /:id. Any body is ignored.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	res, err := h.service.Cancel(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewReservationResponse(res))
}

// ListAll handles GET /
func (h *ReservationHandler) ListAll(c echo.Context) error {
	list, err := h.service.ListAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewReservationListResponse(list))
}

// ListByDate handles GET /date/:date
func (h *ReservationHandler) ListByDate(c echo.Context) error {
	list, err := h.service.ListByDate(c.Request().Context(), c.Param("date"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewReservationListResponse(list))
}

// ListByStatus handles GET /status/:status
func (h *ReservationHandler) ListByStatus(c echo.Context) error {
	list, err := h.service.ListByStatus(c.Request().Context(), c.Param("status"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewReservationListResponse(list))
}

func (h *ReservationHandler) requireStaff(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, err := h.guard.Authorize(auth.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization)))
		if err != nil {
			h.logger.Warn("Staff route rejected", "uri", c.Request().RequestURI, "error", err)
			return err
		}
		if claims != nil {
			h.logger.Debug("Staff route authorized", "subject", claims.Subject)
		}
		return next(c)
	}
}

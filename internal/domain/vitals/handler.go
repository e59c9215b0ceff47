package vitals

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vitalbase/vitalbase/internal/platform/docstore"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group, protect ...echo.MiddlewareFunc) {
	g := api.Group("/vitals", protect...)
	g.GET("/:userId", h.Get)
	g.PUT("/:userId", h.Put)
}

// Get returns the user's vitals. An unknown user yields 204 rather than 404;
// clients of the original service depend on the empty-body response here,
// while Put keeps the stricter 404. Both behaviors are pinned by tests.
func (h *Handler) Get(c echo.Context) error {
	userID := c.Param("userId")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user id is required")
	}

	v, err := h.svc.Get(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return c.NoContent(http.StatusNoContent)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) Put(c echo.Context) error {
	userID := c.Param("userId")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user id is required")
	}

	var incoming Vitals
	if err := c.Bind(&incoming); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.svc.Append(c.Request().Context(), userID, &incoming); err != nil {
		switch {
		case errors.Is(err, docstore.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		case errors.Is(err, docstore.ErrVersionMismatch):
			return echo.NewHTTPError(http.StatusConflict, "concurrent update, retry")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.NoContent(http.StatusNoContent)
}

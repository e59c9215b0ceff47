package user

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vitalbase/vitalbase/internal/platform/auth"
	"github.com/vitalbase/vitalbase/internal/platform/docstore"
	"github.com/vitalbase/vitalbase/pkg/pagination"
)

type Handler struct {
	svc    *Service
	issuer *auth.TokenIssuer
}

// NewHandler creates the user HTTP handler. issuer may be nil, in which case
// login responses carry no token.
func NewHandler(svc *Service, issuer *auth.TokenIssuer) *Handler {
	return &Handler{svc: svc, issuer: issuer}
}

func (h *Handler) RegisterRoutes(api *echo.Group, protect ...echo.MiddlewareFunc) {
	g := api.Group("/user")

	// Registration and login are public by definition.
	g.POST("/auth/patient/register", h.RegisterPatient)
	g.POST("/auth/hcp/register", h.RegisterHCP)
	g.POST("/auth/patient/login", h.LogInPatient)
	g.POST("/auth/hcp/login", h.LogInHCP)

	g.GET("/patient/:email", h.GetPatient)
	g.GET("/hcp/:email", h.GetHCP)
	g.GET("/patients", h.ListPatients)
	g.GET("/hcps", h.ListHCPs)

	assoc := g.Group("/hcp/:hcpEmail/patients", protect...)
	assoc.GET("", h.GetPatients)
	assoc.PUT("/:patientEmail", h.AddPatient)
	assoc.DELETE("/:patientEmail", h.RemovePatient)
}

func (h *Handler) RegisterPatient(c echo.Context) error {
	return h.register(c, RolePatient)
}

func (h *Handler) RegisterHCP(c echo.Context) error {
	return h.register(c, RoleHCP)
}

func (h *Handler) register(c echo.Context, role string) error {
	var req RegisterUser
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	u, err := h.svc.Register(c.Request().Context(), role, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, u)
}

func (h *Handler) LogInPatient(c echo.Context) error {
	return h.logIn(c, RolePatient)
}

func (h *Handler) LogInHCP(c echo.Context) error {
	return h.logIn(c, RoleHCP)
}

func (h *Handler) logIn(c echo.Context, role string) error {
	var req LogInUser
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	u, err := h.svc.LogIn(c.Request().Context(), role, req)
	if err != nil {
		return httpError(err)
	}

	resp := LoginResponse{User: u}
	if h.issuer != nil {
		token, err := h.issuer.Mint(u.Email, u.Role)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		resp.Token = token
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetPatient(c echo.Context) error {
	u, err := h.svc.GetByRole(c.Request().Context(), RolePatient, c.Param("email"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) GetHCP(c echo.Context) error {
	u, err := h.svc.GetByRole(c.Request().Context(), RoleHCP, c.Param("email"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) ListPatients(c echo.Context) error {
	return h.list(c, RolePatient)
}

func (h *Handler) ListHCPs(c echo.Context) error {
	return h.list(c, RoleHCP)
}

func (h *Handler) list(c echo.Context, role string) error {
	pg := pagination.FromContext(c)
	users, total, err := h.svc.ListByRole(c.Request().Context(), role, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(users, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetPatients(c echo.Context) error {
	patients, err := h.svc.Patients(c.Request().Context(), c.Param("hcpEmail"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, patients)
}

func (h *Handler) AddPatient(c echo.Context) error {
	hcp, err := h.svc.AddPatient(c.Request().Context(), c.Param("hcpEmail"), c.Param("patientEmail"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, hcp)
}

func (h *Handler) RemovePatient(c echo.Context) error {
	hcp, err := h.svc.RemovePatient(c.Request().Context(), c.Param("hcpEmail"), c.Param("patientEmail"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, hcp)
}

// httpError maps domain and store errors to HTTP statuses.
func httpError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, docstore.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	case errors.Is(err, ErrUnauthorized):
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, docstore.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, "email already registered")
	case errors.Is(err, ErrAlreadyAssociated), errors.Is(err, ErrNotAssociated):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, docstore.ErrVersionMismatch):
		return echo.NewHTTPError(http.StatusConflict, "concurrent update, retry")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

package identity

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medreview/medreview/internal/platform/auth"
	"github.com/medreview/medreview/pkg/apperr"
	"github.com/medreview/medreview/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/users", h.CreateUser)
	api.GET("/users", h.ListUsers, auth.RequireRole(auth.RoleAdmin))
	api.GET("/users/:id", h.GetUser, auth.RequireSelf("id"))
	api.GET("/users/:id/profile", h.GetUserProfile, auth.RequireSelf("id"))

	api.POST("/profiles/:userId", h.CreateProfile, auth.RequireSelf("userId"))
	api.PUT("/profiles/:id", h.UpdateProfile)
	api.GET("/profiles/:id/medical", h.GetMedicalData)
	api.PUT("/profiles/:id/medical", h.UpdateMedicalData)
}

func parseID(c echo.Context, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

// httpError maps service errors to responses. notFoundMsg is used for
// ErrNotFound.
func httpError(err error, notFoundMsg string) error {
	switch {
	case apperr.IsValidation(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, notFoundMsg)
	case errors.Is(err, ErrProfileExists):
		return echo.NewHTTPError(http.StatusBadRequest, "Profile already exists for this user")
	case errors.Is(err, ErrDuplicateEmail):
		return echo.NewHTTPError(http.StatusConflict, "Email already registered")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

// ownedProfile loads a profile and checks that the caller may act for its
// user.
func (h *Handler) ownedProfile(c echo.Context) (*Profile, error) {
	id, err := parseID(c, "id")
	if err != nil {
		return nil, err
	}
	p, err := h.svc.GetProfile(c.Request().Context(), id)
	if err != nil {
		return nil, httpError(err, "Profile not found")
	}
	if !auth.CanActFor(c.Request().Context(), p.UserID.String()) {
		return nil, echo.NewHTTPError(http.StatusForbidden, "not permitted to act for this user")
	}
	return p, nil
}

// -- Users --

func (h *Handler) CreateUser(c echo.Context) error {
	var u User
	if err := c.Bind(&u); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateUser(c.Request().Context(), &u); err != nil {
		return httpError(err, "User not found")
	}
	return c.JSON(http.StatusCreated, u)
}

func (h *Handler) GetUser(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	u, err := h.svc.GetUser(c.Request().Context(), id)
	if err != nil {
		return httpError(err, "User not found")
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) ListUsers(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListUsers(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if items == nil {
		items = []*User{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

// -- Profiles --

func (h *Handler) CreateProfile(c echo.Context) error {
	userID, err := parseID(c, "userId")
	if err != nil {
		return err
	}
	var p Profile
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateProfile(c.Request().Context(), userID, &p); err != nil {
		return httpError(err, "User not found")
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetUserProfile(c echo.Context) error {
	userID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	p, err := h.svc.GetProfileByUserID(c.Request().Context(), userID)
	if err != nil {
		return httpError(err, "Profile not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdateProfile(c echo.Context) error {
	existing, err := h.ownedProfile(c)
	if err != nil {
		return err
	}
	var p Profile
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p.ID = existing.ID
	if err := h.svc.UpdateProfile(c.Request().Context(), &p); err != nil {
		return httpError(err, "Profile not found")
	}
	return c.JSON(http.StatusOK, p)
}

// -- Medical data --

func (h *Handler) GetMedicalData(c echo.Context) error {
	p, err := h.ownedProfile(c)
	if err != nil {
		return err
	}
	m, err := h.svc.GetMedicalData(c.Request().Context(), p.ID)
	if err != nil {
		return httpError(err, "Medical data not found")
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) UpdateMedicalData(c echo.Context) error {
	p, err := h.ownedProfile(c)
	if err != nil {
		return err
	}
	var m MedicalData
	if err := c.Bind(&m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	m.ProfileID = p.ID
	if err := h.svc.UpdateMedicalData(c.Request().Context(), &m); err != nil {
		return httpError(err, "Medical data not found")
	}
	return c.JSON(http.StatusOK, m)
}

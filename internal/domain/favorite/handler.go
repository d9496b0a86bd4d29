package favorite

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medreview/medreview/internal/platform/auth"
	"github.com/medreview/medreview/pkg/apperr"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/favorites", h.AddFavorite)
	api.GET("/favorites/user/:userId", h.ListByUser, auth.RequireSelf("userId"))
	api.DELETE("/favorites/:id", h.RemoveFavorite)
}

func httpError(err error) error {
	switch {
	case apperr.IsValidation(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Favorite not found")
	case errors.Is(err, ErrUserNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	case errors.Is(err, ErrMedicineNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Medicine not found")
	case errors.Is(err, ErrReferenceNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "User or Medicine not found")
	case errors.Is(err, ErrAlreadyFavorited):
		return echo.NewHTTPError(http.StatusConflict, "Medicine already in favorites")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) AddFavorite(c echo.Context) error {
	var f Favorite
	if err := c.Bind(&f); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if !auth.CanActFor(c.Request().Context(), f.UserID.String()) {
		return echo.NewHTTPError(http.StatusForbidden, "not permitted to act for this user")
	}
	if err := h.svc.AddFavorite(c.Request().Context(), &f); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, f)
}

func (h *Handler) ListByUser(c echo.Context) error {
	id, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	items, err := h.svc.ListForUser(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) RemoveFavorite(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ctx := c.Request().Context()
	f, err := h.svc.GetFavorite(ctx, id)
	if err != nil {
		return httpError(err)
	}
	if !auth.CanActFor(ctx, f.UserID.String()) {
		return echo.NewHTTPError(http.StatusForbidden, "not permitted to act for this user")
	}
	if err := h.svc.RemoveFavorite(ctx, id); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Favorite removed successfully"})
}

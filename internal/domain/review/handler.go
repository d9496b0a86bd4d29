package review

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
	api.GET("/reviews", h.ListReviews)
	api.GET("/reviews/:id", h.GetReview)
	api.GET("/reviews/medicine/:medicineId", h.ListByMedicine)
	api.GET("/reviews/user/:userId", h.ListByUser)
	api.POST("/reviews", h.CreateReview)
}

func httpError(err error) error {
	switch {
	case apperr.IsValidation(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Review not found")
	case errors.Is(err, ErrUserNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	case errors.Is(err, ErrMedicineNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Medicine not found")
	case errors.Is(err, ErrReferenceNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "User or Medicine not found")
	case errors.Is(err, ErrAlreadyReviewed):
		return echo.NewHTTPError(http.StatusConflict, "User has already reviewed this medicine")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) CreateReview(c echo.Context) error {
	var rv Review
	if err := c.Bind(&rv); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if !auth.CanActFor(c.Request().Context(), rv.UserID.String()) {
		return echo.NewHTTPError(http.StatusForbidden, "not permitted to act for this user")
	}
	if err := h.svc.CreateReview(c.Request().Context(), &rv); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, rv)
}

func (h *Handler) GetReview(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	rv, err := h.svc.GetReview(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, rv)
}

func (h *Handler) ListReviews(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListReviews(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	if items == nil {
		items = []*Review{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) ListByMedicine(c echo.Context) error {
	id, err := uuid.Parse(c.Param("medicineId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	items, err := h.svc.ListForMedicine(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
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

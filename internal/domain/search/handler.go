package search

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medreview/medreview/internal/platform/auth"
	"github.com/medreview/medreview/internal/platform/blobstore"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/users/:id/search", h.Search, auth.RequireSelf("id"))
	api.POST("/medicines/:userId/search/:query", h.SearchByPath, auth.RequireSelf("userId"))
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrPatientNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	case errors.Is(err, ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrExtractionFailed):
		return echo.NewHTTPError(http.StatusBadRequest, "Could not extract medicine name")
	case errors.Is(err, ErrLookupFailed):
		return echo.NewHTTPError(http.StatusNotFound, "Medicine not found")
	case errors.Is(err, ErrMedicineUpsertFailed):
		return echo.NewHTTPError(http.StatusInternalServerError, "Error processing medicine data")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error").SetInternal(err)
	}
}

type searchRequest struct {
	Query string `json:"query"`
}

// Search accepts {"query": "..."} or a multipart form with a query field
// and/or an image file.
func (h *Handler) Search(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var q Query
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		q.Text = c.FormValue("query")
		if q.Image, err = readImage(c); err != nil {
			return err
		}
	} else {
		var req searchRequest
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		q.Text = req.Query
	}

	res, err := h.svc.Search(c.Request().Context(), userID, q)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) SearchByPath(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	text := c.Param("query")
	if unescaped, err := url.PathUnescape(text); err == nil {
		text = unescaped
	}
	res, err := h.svc.Search(c.Request().Context(), userID, Query{Text: text})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}

func readImage(c echo.Context) ([]byte, error) {
	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if fh.Size > blobstore.MaxFileSize {
		return nil, echo.NewHTTPError(http.StatusRequestEntityTooLarge,
			fmt.Sprintf("image exceeds %d bytes", blobstore.MaxFileSize))
	}
	f, err := fh.Open()
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, blobstore.MaxFileSize+1))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return data, nil
}

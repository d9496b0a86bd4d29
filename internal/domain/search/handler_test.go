package search

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func expectHTTPError(t *testing.T, err error, code int) {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected HTTPError %d, got %v", code, err)
	}
	if he.Code != code {
		t.Errorf("expected %d, got %d (%v)", code, he.Code, he.Message)
	}
}

func pathSearch(e *echo.Echo, userID, query string) (echo.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)
	c.SetParamNames("userId", "query")
	c.SetParamValues(userID, query)
	return c, rec
}

func TestHandler_SearchByPath(t *testing.T) {
	svc, d := newTestService()
	h, e := NewHandler(svc), echo.New()

	c, rec := pathSearch(e, d.userID.String(), "Advil")
	if err := h.SearchByPath(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		Medicine struct {
			Name    string            `json:"name"`
			FDAID   string            `json:"fda_id"`
			Reviews []json.RawMessage `json:"reviews"`
		} `json:"medicine"`
		Safety   map[string]any `json:"safety"`
		RawLabel map[string]any `json:"raw_label"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Medicine.Name != "ibuprofen" || body.Medicine.FDAID != "123456" {
		t.Errorf("unexpected medicine %+v", body.Medicine)
	}
	if body.Medicine.Reviews == nil {
		t.Error("expected reviews list")
	}
	if _, ok := body.Safety["can_take"]; !ok {
		t.Error("expected safety.can_take")
	}
	if body.RawLabel["id"] != "123456" {
		t.Errorf("expected raw label, got %v", body.RawLabel)
	}
}

func TestHandler_SearchByPath_Errors(t *testing.T) {
	svc, d := newTestService()
	h, e := NewHandler(svc), echo.New()

	c, _ := pathSearch(e, uuid.NewString(), "Advil")
	expectHTTPError(t, h.SearchByPath(c), http.StatusNotFound)

	c, _ = pathSearch(e, d.userID.String(), "asdkjh")
	expectHTTPError(t, h.SearchByPath(c), http.StatusBadRequest)

	d.model.names["Panadol"] = "paracetamol"
	c, _ = pathSearch(e, d.userID.String(), "Panadol")
	expectHTTPError(t, h.SearchByPath(c), http.StatusNotFound)

	d.medicines.err = errors.New("db down")
	c, _ = pathSearch(e, d.userID.String(), "Advil")
	expectHTTPError(t, h.SearchByPath(c), http.StatusInternalServerError)

	c, _ = pathSearch(e, "999", "Advil")
	expectHTTPError(t, h.SearchByPath(c), http.StatusBadRequest)
}

func TestHandler_SearchByPath_StoreErrorNotExposed(t *testing.T) {
	svc, d := newTestService()
	h, e := NewHandler(svc), echo.New()
	storeErr := errors.New("pgx: conn closed: host=db.internal user=medreview")
	d.patients.err = storeErr

	c, _ := pathSearch(e, d.userID.String(), "Advil")
	err := h.SearchByPath(c)
	expectHTTPError(t, err, http.StatusInternalServerError)

	var he *echo.HTTPError
	errors.As(err, &he)
	if he.Message != "Internal server error" {
		t.Errorf("expected generic message, got %v", he.Message)
	}
	if !errors.Is(he.Internal, storeErr) {
		t.Errorf("expected store error kept as internal cause, got %v", he.Internal)
	}
}

func TestHandler_Search_JSON(t *testing.T) {
	svc, d := newTestService()
	h, e := NewHandler(svc), echo.New()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"query":"Advil"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(d.userID.String())

	if err := h.Search(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_Search_Multipart(t *testing.T) {
	svc, d := newTestService()
	d.model.names["<image>"] = "ibuprofen"
	h, e := NewHandler(svc), echo.New()

	newMultipart := func(image []byte) echo.Context {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		part, _ := w.CreateFormFile("image", "box.png")
		part.Write(image)
		w.Close()

		req := httptest.NewRequest(http.MethodPost, "/", &buf)
		req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
		c := e.NewContext(req, httptest.NewRecorder())
		c.SetParamNames("id")
		c.SetParamValues(d.userID.String())
		return c
	}

	if err := h.Search(newMultipart(pngBytes(t))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expectHTTPError(t, h.Search(newMultipart([]byte("garbage"))), http.StatusBadRequest)
}

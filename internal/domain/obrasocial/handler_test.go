package obrasocial

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func newTestHandler() (*Handler, *echo.Echo) {
	return NewHandler(NewService(newMockRepo())), echo.New()
}

func expectHTTPError(t *testing.T, err error, code int, msg string) {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %T (%v)", err, err)
	}
	if he.Code != code {
		t.Errorf("expected %d, got %d", code, he.Code)
	}
	if msg != "" && he.Message != msg {
		t.Errorf("expected message %q, got %v", msg, he.Message)
	}
}

func TestHandler_Create_MissingNombre(t *testing.T) {
	h, e := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/obras-sociales", strings.NewReader(`{"codigo":"1"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	expectHTTPError(t, h.Create(e.NewContext(req, httptest.NewRecorder())), http.StatusBadRequest, msgNombre)
}

func TestHandler_CreateAndList(t *testing.T) {
	h, e := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/obras-sociales", strings.NewReader(`{"nombre":"OSDE","activa":false}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	if err := h.Create(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/obras-sociales?activa=true", nil), rec)
	if err := h.List(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body struct {
		ObrasSociales []ObraSocial `json:"obrasSociales"`
		Count         int          `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Count != 0 || len(body.ObrasSociales) != 0 {
		t.Errorf("expected no active insurers, got %+v", body)
	}
}

func TestHandler_List_BadFilter(t *testing.T) {
	h, e := newTestHandler()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/obras-sociales?activa=maybe", nil), httptest.NewRecorder())
	expectHTTPError(t, h.List(c), http.StatusBadRequest, "")
}

func TestHandler_Update_NoFields(t *testing.T) {
	h, e := newTestHandler()
	o, _ := h.svc.Create(context.Background(), CreateRequest{Nombre: "OSDE"})

	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("obraSocialId")
	c.SetParamValues(o.ObraSocialID.String())

	expectHTTPError(t, h.Update(c), http.StatusBadRequest, msgNoFields)
}

func TestHandler_Delete_NotFound(t *testing.T) {
	h, e := newTestHandler()
	for _, id := range []string{"not-a-uuid", "1b4e28ba-2fa1-11d2-883f-0016d3cca427"} {
		c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), httptest.NewRecorder())
		c.SetParamNames("obraSocialId")
		c.SetParamValues(id)
		expectHTTPError(t, h.Delete(c), http.StatusNotFound, msgNotFound)
	}
}

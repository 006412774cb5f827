package availability

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Rehan0707/DocNear/internal/platform/auth"
)

func doctorContext(method, path string, doctorID uuid.UUID) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), doctorID.String(), "doctor", "sess-1"))
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandler_Toggle(t *testing.T) {
	svc, repo, _, _ := newTestService()
	h := NewHandler(svc)
	id := uuid.New()
	repo.flags[id] = false

	c, rec := doctorContext(http.MethodPost, "/api/v1/doctor/availability/toggle", id)
	if err := h.Toggle(c); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	var resp availabilityResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.IsAvailable || resp.DoctorID != id {
		t.Errorf("unexpected response %+v", resp)
	}

	c, rec = doctorContext(http.MethodGet, "/api/v1/doctor/availability", id)
	if err := h.Get(c); err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_ToggleUnknownDoctor(t *testing.T) {
	svc, _, _, _ := newTestService()
	h := NewHandler(svc)

	c, _ := doctorContext(http.MethodPost, "/api/v1/doctor/availability/toggle", uuid.New())
	err := h.Toggle(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}

func TestHandler_RequiresSession(t *testing.T) {
	svc, _, _, _ := newTestService()
	h := NewHandler(svc)
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	err := h.Get(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

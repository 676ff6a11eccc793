package user

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/cgmartin0310/careconnect/internal/platform/auth"
)

func newTestHandler() (*Handler, *echo.Echo) {
	svc, _ := newTestService()
	return NewHandler(svc), echo.New()
}

func TestRegisterHandler_Success(t *testing.T) {
	h, e := newTestHandler()
	body := `{"email":"nurse@example.org","password":"correct-horse","first_name":"May","last_name":"Lin","role":"care_team_member"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.Register(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var result authResponse
	json.Unmarshal(rec.Body.Bytes(), &result)
	if result.Token == "" {
		t.Error("expected token in response")
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Error("response must not leak password material")
	}
}

func TestLoginHandler_BadCredentials(t *testing.T) {
	h, e := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"nobody@example.org","password":"whatever1"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := h.Login(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestProfileHandler(t *testing.T) {
	h, e := newTestHandler()
	u, err := h.svc.Register(context.Background(), registerParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := context.WithValue(req.Context(), auth.UserIDKey, u.ID)
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.Profile(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	var result map[string]map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &result)
	if result["user"]["email"] != "nurse@example.org" {
		t.Errorf("unexpected profile: %s", rec.Body.String())
	}
}

func TestDirectoryHandler_ExcludesExternal(t *testing.T) {
	h, e := newTestHandler()
	ctx := context.Background()
	if _, err := h.svc.Register(ctx, registerParams()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := h.svc.FindOrCreateExternal(ctx, "5551234567", "Jo"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.Directory(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var result map[string][]map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &result)
	if len(result["users"]) != 1 {
		t.Errorf("expected directory of 1, got %s", rec.Body.String())
	}
}

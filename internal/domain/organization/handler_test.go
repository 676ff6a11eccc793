package organization

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func newTestHandler() (*Handler, *echo.Echo) {
	h := NewHandler(NewService(newMockRepo()))
	return h, echo.New()
}

func TestCreateOrganization_Success(t *testing.T) {
	h, e := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Coastal Care"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.CreateOrganization(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var result map[string]map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &result)
	if result["organization"]["name"] != "Coastal Care" {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestCreateOrganization_DuplicateName400(t *testing.T) {
	h, e := newTestHandler()
	for i, want := range []int{0, http.StatusBadRequest} {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Coastal Care"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		err := h.CreateOrganization(c)
		if i == 0 {
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			continue
		}
		httpErr, ok := err.(*echo.HTTPError)
		if !ok || httpErr.Code != want {
			t.Errorf("expected %d, got %v", want, err)
		}
	}
}

func TestGetOrganization_NotFound(t *testing.T) {
	h, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1b671a64-40d5-491e-99b0-da01ff1f3341")
	err := h.GetOrganization(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}

func TestListComplianceGroups_Success(t *testing.T) {
	h, e := newTestHandler()
	if err := h.svc.CreateGroup(nil, &ComplianceGroup{Name: "Interim", RequiresConsent: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.ListComplianceGroups(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	var result map[string][]map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &result)
	if len(result["compliance_groups"]) != 1 {
		t.Errorf("expected one group, got %s", rec.Body.String())
	}
}

package organization

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/cgmartin0310/careconnect/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	admin := auth.RequireRole(auth.RoleAdmin)

	api.POST("/organizations", h.CreateOrganization, admin)
	api.GET("/organizations", h.ListOrganizations)
	api.GET("/organizations/:id", h.GetOrganization)

	api.POST("/compliance-groups", h.CreateComplianceGroup, admin)
	api.GET("/compliance-groups", h.ListComplianceGroups)
}

type createOrganizationRequest struct {
	Name              string     `json:"name"`
	ComplianceGroupID *uuid.UUID `json:"compliance_group_id"`
}

func (h *Handler) CreateOrganization(c echo.Context) error {
	var req createOrganizationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	org, err := h.svc.CreateOrganization(c.Request().Context(), req.Name, req.ComplianceGroupID)
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicateName):
			return echo.NewHTTPError(http.StatusBadRequest, ErrDuplicateName.Error())
		case errors.Is(err, ErrGroupNotFound):
			return echo.NewHTTPError(http.StatusBadRequest, "compliance group not found")
		case errors.Is(err, ErrNameRequired):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to create organization")
		}
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{"organization": org})
}

func (h *Handler) ListOrganizations(c echo.Context) error {
	orgs, err := h.svc.ListOrganizations(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list organizations")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"organizations": orgs})
}

func (h *Handler) GetOrganization(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	org, err := h.svc.GetOrganization(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "organization not found")
	}
	members, err := h.svc.ListMembers(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list organization members")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"organization": org,
		"members":      members,
	})
}

func (h *Handler) CreateComplianceGroup(c echo.Context) error {
	var g ComplianceGroup
	if err := c.Bind(&g); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateGroup(c.Request().Context(), &g); err != nil {
		if errors.Is(err, ErrNameRequired) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create compliance group")
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{"compliance_group": g})
}

func (h *Handler) ListComplianceGroups(c echo.Context) error {
	groups, err := h.svc.ListGroups(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list compliance groups")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"compliance_groups": groups})
}

package compliance

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/cgmartin0310/careconnect/internal/platform/auth"
	"github.com/cgmartin0310/careconnect/internal/platform/blobstore"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	write := auth.RequireRole(auth.RolePeerSupport, auth.RoleAdmin)

	api.POST("/consents", h.CreateConsent, write)
	api.GET("/patients/:id/consents", h.GetPatientConsents)
	api.DELETE("/consents/:id", h.RevokeConsent, write)
	api.POST("/consents/:id/attachment", h.UploadAttachment, write)
	api.GET("/consents/:id/attachment", h.DownloadAttachment)
}

func (h *Handler) CreateConsent(c echo.Context) error {
	var params CreateConsentParams
	if err := c.Bind(&params); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	createdBy := auth.UserIDFromContext(c.Request().Context())
	consent, err := h.svc.CreateConsent(c.Request().Context(), createdBy, params)
	if err != nil {
		switch {
		case errors.Is(err, ErrPatientNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		case errors.Is(err, ErrOrganizationRequired),
			errors.Is(err, ErrConsentNotRequired),
			errors.Is(err, ErrSpecificOrgRequired),
			errors.Is(err, ErrInvalidOrganization),
			errors.Is(err, ErrConsentTypeRequired),
			errors.Is(err, ErrConsentDateRequired):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to create consent")
		}
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{"consent": consent})
}

func (h *Handler) GetPatientConsents(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	consents, err := h.svc.ListPatientConsents(c.Request().Context(), patientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get patient consents")
	}
	if consents == nil {
		consents = []*Consent{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"consents": consents})
}

func (h *Handler) RevokeConsent(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.RevokeConsent(c.Request().Context(), id); err != nil {
		if errors.Is(err, ErrConsentNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "consent not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to revoke consent")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Consent revoked successfully"})
}

func (h *Handler) UploadAttachment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	fileHeader, err := c.FormFile("attachment")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "no file uploaded")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read uploaded file")
	}
	defer file.Close()

	uploadedBy := auth.UserIDFromContext(c.Request().Context())
	meta, err := h.svc.AttachDocument(c.Request().Context(), id, uploadedBy,
		fileHeader.Filename, fileHeader.Header.Get("Content-Type"), file)
	if err != nil {
		switch {
		case errors.Is(err, ErrConsentNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "consent not found")
		case errors.Is(err, blobstore.ErrFileTooLarge),
			errors.Is(err, blobstore.ErrInvalidContentType),
			errors.Is(err, blobstore.ErrMissingFileName):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to upload attachment")
		}
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"attachment": meta,
		"message":    "File uploaded successfully",
	})
}

func (h *Handler) DownloadAttachment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	rc, meta, err := h.svc.OpenAttachment(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrConsentNotFound) || errors.Is(err, blobstore.ErrBlobNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "attachment not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to download attachment")
	}
	defer rc.Close()
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+meta.FileName+`"`)
	return c.Stream(http.StatusOK, meta.ContentType, rc)
}

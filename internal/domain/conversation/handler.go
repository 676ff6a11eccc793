package conversation

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/cgmartin0310/careconnect/internal/platform/auth"
	"github.com/cgmartin0310/careconnect/internal/platform/sendbird"
)

type Handler struct {
	svc *Service
	log zerolog.Logger
}

func NewHandler(svc *Service, log zerolog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	create := auth.RequireRole(auth.RolePeerSupport, auth.RoleCareTeamMember, auth.RoleAdmin)

	api.POST("/conversations", h.CreateConversation, create)
	api.GET("/conversations", h.ListConversations)
	api.GET("/conversations/:id", h.GetConversation)
	api.DELETE("/conversations/:id", h.DeleteConversation)
	api.POST("/conversations/send-message", h.SendMessage)
}

// RegisterPublicRoutes mounts the endpoints the messaging platform calls
// back into; they carry no session token.
func (h *Handler) RegisterPublicRoutes(e *echo.Echo) {
	e.POST("/webhooks/sendbird", h.SendbirdWebhook)
}

func (h *Handler) CreateConversation(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	creatorID := auth.UserIDFromContext(c.Request().Context())

	result, err := h.svc.CreateConversation(c.Request().Context(), creatorID, req)
	if err != nil {
		var noCompliant *NoCompliantMembersError
		var apiErr *sendbird.APIError
		switch {
		case errors.Is(err, ErrPatientNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		case errors.As(err, &noCompliant):
			return c.JSON(http.StatusBadRequest, map[string]interface{}{
				"error":               "No compliant members found. Conversation requires at least one compliant member.",
				"nonCompliantMembers": noCompliant.NonCompliant,
			})
		case errors.Is(err, sendbird.ErrAuthentication):
			return echo.NewHTTPError(http.StatusInternalServerError,
				"Sendbird API authentication failed. Check SENDBIRD_API_TOKEN configuration.")
		case errors.As(err, &apiErr):
			return echo.NewHTTPError(http.StatusInternalServerError,
				"messaging platform error: "+apiErr.Message)
		case errors.Is(err, ErrTitleRequired):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			h.log.Error().Err(err).Msg("failed to create conversation")
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to create conversation")
		}
	}
	return c.JSON(http.StatusCreated, result)
}

func (h *Handler) ListConversations(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	conversations, err := h.svc.ListConversations(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list conversations")
	}
	if conversations == nil {
		conversations = []Conversation{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"conversations": conversations})
}

func (h *Handler) GetConversation(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	userID := auth.UserIDFromContext(c.Request().Context())

	conv, members, err := h.svc.GetConversation(c.Request().Context(), id, userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrConversationNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "conversation not found")
		case errors.Is(err, ErrNotMember):
			return echo.NewHTTPError(http.StatusForbidden, "not a member of this conversation")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to get conversation")
		}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"conversation": conv,
		"members":      members,
	})
}

func (h *Handler) DeleteConversation(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ctx := c.Request().Context()
	userID := auth.UserIDFromContext(ctx)
	role := auth.RoleFromContext(ctx)

	if err := h.svc.DeleteConversation(ctx, id, userID, role); err != nil {
		switch {
		case errors.Is(err, ErrConversationNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "conversation not found")
		case errors.Is(err, ErrDeleteForbidden):
			return echo.NewHTTPError(http.StatusForbidden, "only the creator or an admin can delete this conversation")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete conversation")
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "conversation deleted"})
}

type sendMessageRequest struct {
	ChannelURL string `json:"channel_url"`
	Message    string `json:"message"`
}

func (h *Handler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.ChannelURL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "channel_url is required")
	}
	userID := auth.UserIDFromContext(c.Request().Context())

	if err := h.svc.SendMessage(c.Request().Context(), userID, req.ChannelURL, req.Message); err != nil {
		switch {
		case errors.Is(err, ErrConversationNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "conversation not found")
		case errors.Is(err, ErrNotMember):
			return echo.NewHTTPError(http.StatusForbidden, "not a member of this conversation")
		case errors.Is(err, sendbird.ErrAuthentication):
			return echo.NewHTTPError(http.StatusInternalServerError,
				"Sendbird API authentication failed. Check SENDBIRD_API_TOKEN configuration.")
		case errors.Is(err, ErrMessageRequired):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			h.log.Error().Err(err).Msg("failed to send message")
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to send message")
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "sent"})
}

// SendbirdWebhook acknowledges platform callbacks. Delivery receipts and
// SMS status updates arrive here; they are logged for the audit trail and
// always acknowledged so the platform does not retry.
func (h *Handler) SendbirdWebhook(c echo.Context) error {
	var payload map[string]interface{}
	if err := c.Bind(&payload); err != nil {
		h.log.Warn().Err(err).Msg("unreadable webhook payload")
		return c.String(http.StatusOK, "OK")
	}
	category, _ := payload["category"].(string)
	h.log.Info().Str("category", category).Msg("sendbird webhook received")
	return c.String(http.StatusOK, "OK")
}

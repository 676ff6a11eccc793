package sendbird

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// HTTPClient talks to the Sendbird platform REST API.
type HTTPClient struct {
	baseURL  string
	apiToken string
	client   *http.Client
}

// NewHTTPClient creates a client for the given API base URL
// (https://api-<app-id>.sendbird.com/v3) and API token.
func NewHTTPClient(baseURL, apiToken string) *HTTPClient {
	return &HTTPClient{
		baseURL:  baseURL,
		apiToken: apiToken,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

// errorBody is the platform's error envelope.
type errorBody struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
	IsError bool   `json:"error"`
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Api-Token", c.apiToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("sendbird request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return ErrAuthentication
	}

	if resp.StatusCode >= 400 {
		var eb errorBody
		_ = json.NewDecoder(resp.Body).Decode(&eb)
		return &APIError{StatusCode: resp.StatusCode, Code: eb.Code, Message: eb.Message}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// CreateOrUpdateUser creates the user, falling back to an update when the
// platform reports the id already exists. The operation is idempotent per
// user id.
func (c *HTTPClient) CreateOrUpdateUser(ctx context.Context, user User) error {
	err := c.do(ctx, http.MethodPost, "/users", user, nil)
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Code == codeUserAlreadyExists {
		return c.do(ctx, http.MethodPut, "/users/"+url.PathEscape(user.UserID), user, nil)
	}
	return err
}

// GetUser fetches a platform user by id.
func (c *HTTPClient) GetUser(ctx context.Context, userID string) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(userID), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateGroupChannel creates a group channel with the given members.
func (c *HTTPClient) CreateGroupChannel(ctx context.Context, params ChannelParams) (*Channel, error) {
	data := "{}"
	if params.Data != nil {
		encoded, err := json.Marshal(params.Data)
		if err != nil {
			return nil, fmt.Errorf("marshal channel data: %w", err)
		}
		data = string(encoded)
	}

	body := map[string]interface{}{
		"name":        params.Name,
		"user_ids":    params.UserIDs,
		"custom_type": params.CustomType,
		"data":        data,
		"is_distinct": params.IsDistinct,
		"is_public":   false,
		"is_super":    false,
	}

	var channel Channel
	if err := c.do(ctx, http.MethodPost, "/group_channels", body, &channel); err != nil {
		return nil, err
	}
	return &channel, nil
}

// SendMessage posts a text message into a channel on behalf of a user.
func (c *HTTPClient) SendMessage(ctx context.Context, params MessageParams) error {
	body := map[string]interface{}{
		"message_type": "MESG",
		"user_id":      params.UserID,
		"message":      params.Message,
	}
	if params.CustomType != "" {
		body["custom_type"] = params.CustomType
	}
	path := "/group_channels/" + url.PathEscape(params.ChannelURL) + "/messages"
	return c.do(ctx, http.MethodPost, path, body, nil)
}

// UpdateChannelData replaces the channel's data payload.
func (c *HTTPClient) UpdateChannelData(ctx context.Context, channelURL string, data map[string]interface{}) error {
	encoded, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal channel data: %w", err)
	}
	body := map[string]interface{}{"data": string(encoded)}
	return c.do(ctx, http.MethodPut, "/group_channels/"+url.PathEscape(channelURL), body, nil)
}

// DeleteChannel removes a channel from the platform.
func (c *HTTPClient) DeleteChannel(ctx context.Context, channelURL string) error {
	return c.do(ctx, http.MethodDelete, "/group_channels/"+url.PathEscape(channelURL), nil, nil)
}

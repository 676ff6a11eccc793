package sendbird

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestStaffUserID(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	if got := StaffUserID(id); got != "user_6ba7b810-9dad-11d1-80b4-00c04fd430c8" {
		t.Errorf("unexpected staff id: %s", got)
	}
}

func TestSMSUserID_StripsNonDigits(t *testing.T) {
	if got := SMSUserID("+1 (555) 123-4567"); got != "sms_15551234567" {
		t.Errorf("unexpected sms id: %s", got)
	}
}

func TestHTTPClient_CreateOrUpdateUser_FallsBackToUpdate(t *testing.T) {
	var creates, updates int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/users":
			creates++
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error": true, "code": 400202, "message": "user already exists",
			})
		case r.Method == http.MethodPut:
			updates++
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{}`))
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "token")
	err := c.CreateOrUpdateUser(context.Background(), User{UserID: "user_1", Nickname: "Test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if creates != 1 || updates != 1 {
		t.Errorf("expected 1 create and 1 update, got %d/%d", creates, updates)
	}
}

func TestHTTPClient_TranslatesAuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "bad-token")
	err := c.CreateOrUpdateUser(context.Background(), User{UserID: "user_1"})
	if !errors.Is(err, ErrAuthentication) {
		t.Errorf("expected ErrAuthentication, got %v", err)
	}
}

func TestHTTPClient_TranslatesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": true, "code": 500901, "message": "internal platform error",
		})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "token")
	_, err := c.CreateGroupChannel(context.Background(), ChannelParams{Name: "x"})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != 500901 || apiErr.Message != "internal platform error" {
		t.Errorf("unexpected APIError: %+v", apiErr)
	}
}

func TestHTTPClient_CreateGroupChannel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/group_channels" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		if body["is_distinct"] != false {
			t.Errorf("expected is_distinct false, got %v", body["is_distinct"])
		}
		if r.Header.Get("Api-Token") != "token" {
			t.Error("missing Api-Token header")
		}
		json.NewEncoder(w).Encode(map[string]string{"channel_url": "ch_1", "name": "care team"})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "token")
	ch, err := c.CreateGroupChannel(context.Background(), ChannelParams{
		Name:    "care team",
		UserIDs: []string{"user_a", "user_b"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ch.ChannelURL != "ch_1" {
		t.Errorf("unexpected channel url %s", ch.ChannelURL)
	}
}

func TestFakeClient_UserUpsertIdempotent(t *testing.T) {
	f := NewFakeClient()
	ctx := context.Background()
	user := User{UserID: "user_1", Nickname: "A"}

	if err := f.CreateOrUpdateUser(ctx, user); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	user.Nickname = "B"
	if err := f.CreateOrUpdateUser(ctx, user); err != nil {
		t.Fatalf("unexpected error on second upsert: %v", err)
	}
	if f.UserCount() != 1 {
		t.Errorf("expected exactly one account, got %d", f.UserCount())
	}
	got, err := f.GetUser(ctx, "user_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Nickname != "B" {
		t.Errorf("expected updated nickname, got %s", got.Nickname)
	}
}

func TestFakeClient_NonDistinctChannelsNeverCollapse(t *testing.T) {
	f := NewFakeClient()
	ctx := context.Background()
	params := ChannelParams{Name: "x", UserIDs: []string{"user_a", "user_b"}, IsDistinct: false}

	first, err := f.CreateGroupChannel(ctx, params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := f.CreateGroupChannel(ctx, params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.ChannelURL == second.ChannelURL {
		t.Error("expected distinct channel urls for repeated non-distinct creation")
	}
}

func TestFakeClient_DistinctChannelReused(t *testing.T) {
	f := NewFakeClient()
	ctx := context.Background()
	params := ChannelParams{Name: "x", UserIDs: []string{"a", "b"}, IsDistinct: true}

	first, _ := f.CreateGroupChannel(ctx, params)
	second, _ := f.CreateGroupChannel(ctx, params)
	if first.ChannelURL != second.ChannelURL {
		t.Error("expected distinct channel to be reused for same member set")
	}
}

func TestFakeClient_ErrPropagates(t *testing.T) {
	f := NewFakeClient()
	f.Err = ErrAuthentication
	if err := f.CreateOrUpdateUser(context.Background(), User{UserID: "u"}); !errors.Is(err, ErrAuthentication) {
		t.Errorf("expected ErrAuthentication, got %v", err)
	}
}

package sendbird

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// FakeClient is an in-memory Client for tests. It mirrors the platform's
// observable behavior: user upsert is idempotent, non-distinct channel
// creation always yields a fresh channel URL, and distinct creation reuses
// the channel shared by the same member set.
type FakeClient struct {
	mu       sync.Mutex
	users    map[string]User
	channels map[string]*fakeChannel
	messages map[string][]MessageParams
	seq      int

	// Err, when set, is returned by every call. Use ErrAuthentication to
	// simulate a bad token.
	Err error
}

type fakeChannel struct {
	Channel
	memberKey string
	distinct  bool
	data      map[string]interface{}
}

func NewFakeClient() *FakeClient {
	return &FakeClient{
		users:    make(map[string]User),
		channels: make(map[string]*fakeChannel),
		messages: make(map[string][]MessageParams),
	}
}

func memberKey(userIDs []string) string {
	sorted := append([]string(nil), userIDs...)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}

func (f *FakeClient) CreateOrUpdateUser(_ context.Context, user User) error {
	if f.Err != nil {
		return f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.UserID] = user
	return nil
}

func (f *FakeClient) GetUser(_ context.Context, userID string) (*User, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return nil, &APIError{StatusCode: 400, Code: 400201, Message: "user not found"}
	}
	return &user, nil
}

func (f *FakeClient) CreateGroupChannel(_ context.Context, params ChannelParams) (*Channel, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	key := memberKey(params.UserIDs)
	if params.IsDistinct {
		for _, ch := range f.channels {
			if ch.distinct && ch.memberKey == key {
				return &ch.Channel, nil
			}
		}
	}

	f.seq++
	ch := &fakeChannel{
		Channel:   Channel{ChannelURL: fmt.Sprintf("sendbird_group_channel_%d", f.seq), Name: params.Name},
		memberKey: key,
		distinct:  params.IsDistinct,
		data:      params.Data,
	}
	f.channels[ch.ChannelURL] = ch
	return &ch.Channel, nil
}

func (f *FakeClient) SendMessage(_ context.Context, params MessageParams) error {
	if f.Err != nil {
		return f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.channels[params.ChannelURL]; !ok {
		return &APIError{StatusCode: 400, Code: 400201, Message: "channel not found"}
	}
	f.messages[params.ChannelURL] = append(f.messages[params.ChannelURL], params)
	return nil
}

func (f *FakeClient) UpdateChannelData(_ context.Context, channelURL string, data map[string]interface{}) error {
	if f.Err != nil {
		return f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.channels[channelURL]
	if !ok {
		return &APIError{StatusCode: 400, Code: 400201, Message: "channel not found"}
	}
	ch.data = data
	return nil
}

func (f *FakeClient) DeleteChannel(_ context.Context, channelURL string) error {
	if f.Err != nil {
		return f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.channels[channelURL]; !ok {
		return &APIError{StatusCode: 400, Code: 400201, Message: "channel not found"}
	}
	delete(f.channels, channelURL)
	return nil
}

// -- Test inspection helpers --

// UserCount returns the number of registered users.
func (f *FakeClient) UserCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.users)
}

// HasUser reports whether the given user id is registered.
func (f *FakeClient) HasUser(userID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.users[userID]
	return ok
}

// ChannelMembers returns the sorted member ids of a channel, or nil when
// the channel does not exist.
func (f *FakeClient) ChannelMembers(channelURL string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.channels[channelURL]
	if !ok {
		return nil
	}
	if ch.memberKey == "" {
		return []string{}
	}
	return strings.Split(ch.memberKey, ",")
}

// ChannelData returns the data payload of a channel.
func (f *FakeClient) ChannelData(channelURL string) map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.channels[channelURL]
	if !ok {
		return nil
	}
	return ch.data
}

// HasChannel reports whether the channel still exists.
func (f *FakeClient) HasChannel(channelURL string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.channels[channelURL]
	return ok
}

// Messages returns the messages sent to a channel.
func (f *FakeClient) Messages(channelURL string) []MessageParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.messages[channelURL]
}

var _ Client = (*FakeClient)(nil)

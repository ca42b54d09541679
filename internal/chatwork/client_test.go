package chatwork

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(Config{
		APIToken:    "token",
		BaseURL:     server.URL,
		MinInterval: time.Millisecond,
		RateWait:    time.Millisecond,
	}, slog.New(slog.DiscardHandler))
	return client, server
}

func TestSendMessageSuccess(t *testing.T) {
	var gotPath, gotToken, gotBody string
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotToken = r.Header.Get("X-ChatWorkToken")
		require.NoError(t, r.ParseForm())
		gotBody = r.PostForm.Get("body")
		w.Write([]byte(`{"message_id":"1"}`))
	}))

	err := client.SendMessage(context.Background(), "111", "hello")
	require.NoError(t, err)
	assert.Equal(t, "/rooms/111/messages", gotPath)
	assert.Equal(t, "token", gotToken)
	assert.Equal(t, "hello", gotBody)
}

func TestSendMessageRetriesOnceAfterRateLimit(t *testing.T) {
	var calls int
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	err := client.SendMessage(context.Background(), "111", "hello")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestSendMessageSecondRateLimitFails(t *testing.T) {
	var calls int
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	err := client.SendMessage(context.Background(), "111", "hello")
	assert.Equal(t, 2, calls)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.Status)
}

func TestSendMessageNonSuccessStatus(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"errors":["bad token"]}`))
	}))

	err := client.SendMessage(context.Background(), "111", "hello")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Contains(t, apiErr.Body, "bad token")
}

func TestSendMessageMissingToken(t *testing.T) {
	var calls int
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	client.config.APIToken = ""

	err := client.SendMessage(context.Background(), "111", "hello")
	assert.ErrorIs(t, err, ErrNoToken)
	assert.Zero(t, calls, "no network call without a token")
}

func TestSendMessageThrottlesRequests(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	client.config.MinInterval = 50 * time.Millisecond

	start := time.Now()
	require.NoError(t, client.SendMessage(context.Background(), "111", "a"))
	require.NoError(t, client.SendMessage(context.Background(), "111", "b"))
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestGetRooms(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rooms", r.URL.Path)
		w.Write([]byte(`[{"room_id":123,"name":"ops","type":"group"}]`))
	}))

	rooms, err := client.GetRooms(context.Background())
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, int64(123), rooms[0].RoomID)
	assert.Equal(t, "ops", rooms[0].Name)
}

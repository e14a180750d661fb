package gpt

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hammamikhairi/souschef/internal/logger"
)

func testLog() *logger.Logger { return logger.New(logger.LevelOff, nil) }

func TestClientChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "secret", r.Header.Get("api-key"))
		assert.Empty(t, r.Header.Get("Authorization"))

		var body completionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Messages, 2)
		assert.Equal(t, RoleSystem, body.Messages[0].Role)
		assert.Equal(t, "hello", body.Messages[1].Content)
		assert.Equal(t, 123, body.MaxTokens)
		assert.Empty(t, body.Model)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":" Hi there.\n"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", testLog(), WithMaxTokens(123))
	got, err := c.Chat(context.Background(), []Message{
		TextMessage(RoleSystem, "be brief"),
		TextMessage(RoleUser, "hello"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Hi there.", got)
}

func TestClientBearerAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Empty(t, r.Header.Get("api-key"))

		var body completionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o", body.Model)
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk-test", testLog(), WithBearerAuth(), WithModel("gpt-4o"))
	got, err := c.Chat(context.Background(), []Message{TextMessage(RoleUser, "ping")})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}

func TestClientErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"api error message", http.StatusBadRequest, `{"error":{"message":"bad prompt"}}`, "400 Bad Request: bad prompt"},
		{"plain error body", http.StatusUnauthorized, `denied`, "401 Unauthorized: denied"},
		{"bad json", http.StatusOK, `not json`, "decode reply"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(srv.URL, "k", testLog())
			_, err := c.Chat(context.Background(), []Message{TextMessage(RoleUser, "x")})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestClientEmptyReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "k", testLog()).Chat(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyReply)
}

func TestClientRetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"second time lucky"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", testLog(), WithRetries(2, time.Millisecond))
	got, err := c.Chat(context.Background(), []Message{TextMessage(RoleUser, "x")})
	require.NoError(t, err)
	assert.Equal(t, "second time lucky", got)
	assert.EqualValues(t, 2, calls.Load())
}

func TestClientGivesUpOnPersistentFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", testLog(), WithRetries(1, time.Millisecond))
	_, err := c.Chat(context.Background(), []Message{TextMessage(RoleUser, "x")})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.EqualValues(t, 2, calls.Load())
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", testLog(), WithRetries(3, time.Millisecond))
	_, err := c.Chat(context.Background(), []Message{TextMessage(RoleUser, "x")})
	require.Error(t, err)
	assert.EqualValues(t, 1, calls.Load())
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	s := strings.Repeat("é", 300)
	got := truncate(s, 200)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, 200, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, "short", truncate("short", 200))
}

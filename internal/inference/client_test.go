package inference

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sseServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func writeChunk(w http.ResponseWriter, f http.Flusher, token string) {
	fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", token)
	f.Flush()
}

func TestStreamAccumulatesTokens(t *testing.T) {
	var gotAuth, gotPath string
	srv := sseServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		f := w.(http.Flusher)
		w.Header().Set("Content-Type", "text/event-stream")
		writeChunk(w, f, "Hi")
		writeChunk(w, f, " there")
		fmt.Fprint(w, "data: [DONE]\n\n")
		f.Flush()
	})

	client := NewClient(srv.URL, 0)
	var tokens []string
	full, err := client.Stream(context.Background(), ModelConfig{
		Provider: ProviderKindOpenAI,
		Model:    "gpt-4o",
		APIKey:   "sk-test",
	}, []Message{{Role: "user", Content: "Hello"}}, func(token string) {
		tokens = append(tokens, token)
	})

	require.NoError(t, err)
	assert.Equal(t, "Hi there", full)
	assert.Equal(t, []string{"Hi", " there"}, tokens)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "/chat/completions", gotPath)
}

func TestStreamStopsOnFinishReason(t *testing.T) {
	srv := sseServer(t, func(w http.ResponseWriter, r *http.Request) {
		f := w.(http.Flusher)
		writeChunk(w, f, "done")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{},\"finish_reason\":\"stop\"}]}\n\n")
		f.Flush()
		// Anything after finish_reason must be ignored.
		writeChunk(w, f, "stray")
	})

	client := NewClient(srv.URL, 0)
	full, err := client.Stream(context.Background(), ModelConfig{Provider: ProviderKindOpenAI, Model: "m"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "done", full)
}

func TestStreamRejectsUnknownProviderKind(t *testing.T) {
	client := NewClient("http://unused", 0)
	_, err := client.Stream(context.Background(), ModelConfig{Provider: "anthropic", Model: "m"}, nil, nil)
	assert.ErrorIs(t, err, ErrUnsupportedProvider)
}

func TestStreamSkipsMalformedAndCommentLines(t *testing.T) {
	srv := sseServer(t, func(w http.ResponseWriter, r *http.Request) {
		f := w.(http.Flusher)
		fmt.Fprint(w, ": keepalive\n\n")
		fmt.Fprint(w, "data: {not json}\n\n")
		f.Flush()
		writeChunk(w, f, "ok")
		fmt.Fprint(w, "data: [DONE]\n\n")
		f.Flush()
	})

	client := NewClient(srv.URL, 0)
	full, err := client.Stream(context.Background(), ModelConfig{Provider: ProviderKindOpenAI, Model: "m"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", full)
}

func TestStreamReturnsPartialOnCancel(t *testing.T) {
	release := make(chan struct{})
	srv := sseServer(t, func(w http.ResponseWriter, r *http.Request) {
		f := w.(http.Flusher)
		writeChunk(w, f, "partial")
		<-release
	})
	t.Cleanup(func() { close(release) })

	ctx, cancel := context.WithCancel(context.Background())
	client := NewClient(srv.URL, 0)

	got := make(chan struct{})
	var full string
	var err error
	go func() {
		full, err = client.Stream(ctx, ModelConfig{Provider: ProviderKindOpenAI, Model: "m"}, nil, func(string) {
			cancel()
		})
		close(got)
	}()

	select {
	case <-got:
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not return after cancellation")
	}

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "partial", full)
}

func TestStreamIdleTimeoutAbortsStalledStream(t *testing.T) {
	release := make(chan struct{})
	srv := sseServer(t, func(w http.ResponseWriter, r *http.Request) {
		f := w.(http.Flusher)
		writeChunk(w, f, "slow")
		<-release
	})
	t.Cleanup(func() { close(release) })

	client := NewClient(srv.URL, 100*time.Millisecond)
	start := time.Now()
	full, err := client.Stream(context.Background(), ModelConfig{Provider: ProviderKindOpenAI, Model: "m"}, nil, nil)

	require.Error(t, err)
	assert.Equal(t, "slow", full)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestStreamNonSuccessStatus(t *testing.T) {
	srv := sseServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	client := NewClient(srv.URL, 0)
	_, err := client.Stream(context.Background(), ModelConfig{Provider: ProviderKindOpenAI, Model: "m"}, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestEndpointURL(t *testing.T) {
	client := NewClient("https://api.openai.com/v1", 0)

	cases := []struct {
		base string
		want string
	}{
		{"", "https://api.openai.com/v1/chat/completions"},
		{"https://proxy.local/v1", "https://proxy.local/v1/chat/completions"},
		{"https://proxy.local/v1/", "https://proxy.local/v1/chat/completions"},
		{"https://proxy.local/v1/chat/completions", "https://proxy.local/v1/chat/completions"},
	}
	for _, tc := range cases {
		got, err := client.endpointURL(ModelConfig{BaseURL: tc.base})
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "base %q", tc.base)
	}
}

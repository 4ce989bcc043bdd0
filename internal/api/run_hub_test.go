package api

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/phish-metrics/internal/domain"
	"github.com/ignite/phish-metrics/internal/pipeline"
)

// readEvent reads one SSE event and returns its event name and data.
func readEvent(t *testing.T, r *bufio.Reader) (string, string) {
	t.Helper()
	var name, data string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if data != "" {
				return name, data
			}
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestRunHub_StreamsRefreshes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewRunHub()
	hub.Start(ctx)

	fetcher := &fakeFetcher{campaigns: sampleCampaigns()}
	pipe := pipeline.New(pipeline.NewGophishSource(fetcher, 1), pipeline.WithNotifier(hub.Publish))
	h := NewHandlers(pipe, nil)
	h.SetRunHub(hub)
	server := httptest.NewServer(SetupRoutes(h, NewHealthChecker(pipe, nil, nil), nil))
	defer server.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	refresh, err := http.Post(server.URL+"/api/refresh", "application/json", nil)
	require.NoError(t, err)
	refresh.Body.Close()
	require.Equal(t, http.StatusOK, refresh.StatusCode)

	name, data := readEvent(t, bufio.NewReader(resp.Body))
	assert.Equal(t, "run", name)

	var run domain.Run
	require.NoError(t, json.Unmarshal([]byte(data), &run))
	current, err := pipe.Current()
	require.NoError(t, err)
	assert.Equal(t, current.Run.ID, run.ID)
	assert.Equal(t, 4, run.Results)
}

func TestRunHub_DropsInvalidPayloads(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewRunHub()
	hub.Start(ctx)
	server := httptest.NewServer(http.HandlerFunc(hub.HandleSSE))
	defer server.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.send([]byte("not json"))
	hub.Publish(domain.Run{Source: "snapshot", Results: 3})

	_, data := readEvent(t, bufio.NewReader(resp.Body))
	assert.Contains(t, data, `"source":"snapshot"`)
}

func TestRunHub_OutlivesWriteTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewRunHub()
	hub.Start(ctx)
	server := httptest.NewUnstartedServer(http.HandlerFunc(hub.HandleSSE))
	server.Config.WriteTimeout = 100 * time.Millisecond
	server.Start()
	defer server.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	hub.Publish(domain.Run{Source: "gophish", Results: 2})

	name, data := readEvent(t, bufio.NewReader(resp.Body))
	assert.Equal(t, "run", name)
	assert.Contains(t, data, `"source":"gophish"`)
}

func TestRunHub_RouteOnlyWhenEnabled(t *testing.T) {
	env := setupTestServer(t, true)
	w := env.do(t, http.MethodGet, "/api/stream")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRunHub_ClientRemovedOnDisconnect(t *testing.T) {
	hub := NewRunHub()
	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/stream", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		hub.HandleSSE(w, req)
		close(done)
	}()
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	<-done
	assert.Equal(t, 0, hub.ClientCount())
}

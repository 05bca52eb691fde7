package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herald0/herald/internal/agent"
	"github.com/herald0/herald/internal/chat"
	"github.com/herald0/herald/internal/provider"
	"github.com/herald0/herald/internal/runner"
	"github.com/herald0/herald/internal/session"
)

const testWaitTimeout = 2 * time.Second

// scriptedInvoker echoes the last user message back, optionally failing,
// and can block until released to exercise concurrent turns.
type scriptedInvoker struct {
	fail      bool
	blockCh   chan struct{} // nil means respond immediately
	startOnce sync.Once
	started   chan struct{} // closed when the first invocation begins
}

func (s *scriptedInvoker) RunAsync(_ context.Context, _ *agent.Definition, messages []session.Message, _ agent.RunConfig) <-chan runner.Outcome {
	ch := make(chan runner.Outcome, 1)
	go func() {
		if s.started != nil {
			s.startOnce.Do(func() { close(s.started) })
		}
		if s.blockCh != nil {
			<-s.blockCh
		}
		if s.fail {
			ch <- runner.Outcome{Err: fmt.Errorf("%w: upstream", runner.ErrRemoteInvocation)}
			return
		}
		last := messages[len(messages)-1]
		ch <- runner.Outcome{Result: &runner.Result{FinalOutput: "echo: " + last.Content}}
	}()
	return ch
}

func newTestServer(t *testing.T, inv chat.Invoker) *httptest.Server {
	t.Helper()

	binding, err := provider.New("test-key", "https://generativelanguage.googleapis.com/v1beta/openai/")
	require.NoError(t, err)
	model, err := provider.NewModel(binding, "gemini-2.5-flash")
	require.NoError(t, err)
	ag, err := agent.New("assistant", "You are a helpful assistant that can answer user questions.", model)
	require.NoError(t, err)

	svc, err := chat.New(chat.Config{
		Store:   session.NewStore(),
		Invoker: inv,
		Agent:   ag,
		Run:     agent.RunConfig{Model: model},
	})
	require.NoError(t, err)

	srv, err := NewServer(ServerConfig{Chat: svc, RateBurst: 1000})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func createSession(t *testing.T, ts *httptest.Server) string {
	t.Helper()

	resp, err := http.Post(ts.URL+"/api/v1/sessions", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body struct {
		SessionID string `json:"sessionId"`
		Greeting  string `json:"greeting"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, chat.Greeting, body.Greeting)
	require.NotEmpty(t, body.SessionID)
	return body.SessionID
}

func postMessage(t *testing.T, ts *httptest.Server, id, text string) *http.Response {
	t.Helper()

	payload, _ := json.Marshal(map[string]string{"message": text})
	resp, err := http.Post(
		ts.URL+"/api/v1/sessions/"+id+"/messages",
		"application/json",
		bytes.NewReader(payload),
	)
	require.NoError(t, err)
	return resp
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, &scriptedInvoker{})

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSessionLifecycle(t *testing.T) {
	ts := newTestServer(t, &scriptedInvoker{})
	id := createSession(t, ts)

	resp := postMessage(t, ts, id, "hello")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var reply struct {
		Reply string `json:"reply"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&reply))
	assert.Equal(t, "echo: hello", reply.Reply)

	// History shows both turns.
	histResp, err := http.Get(ts.URL + "/api/v1/sessions/" + id + "/messages")
	require.NoError(t, err)
	defer histResp.Body.Close()
	require.Equal(t, http.StatusOK, histResp.StatusCode)

	var hist struct {
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	require.NoError(t, json.NewDecoder(histResp.Body).Decode(&hist))
	require.Len(t, hist.Messages, 2)
	assert.Equal(t, "user", hist.Messages[0].Role)
	assert.Equal(t, "assistant", hist.Messages[1].Role)

	// Delete, then the session is gone.
	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/sessions/"+id, nil)
	delResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	delResp.Body.Close()
	assert.Equal(t, http.StatusNoContent, delResp.StatusCode)

	gone := postMessage(t, ts, id, "anyone there?")
	defer gone.Body.Close()
	assert.Equal(t, http.StatusNotFound, gone.StatusCode)
}

func TestSendMessageUnknownSession(t *testing.T) {
	ts := newTestServer(t, &scriptedInvoker{})

	resp := postMessage(t, ts, "no-such-session", "hello")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSendMessageRemoteFailure(t *testing.T) {
	ts := newTestServer(t, &scriptedInvoker{fail: true})
	id := createSession(t, ts)

	resp := postMessage(t, ts, id, "hello")
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "remote_invocation_failed", body.Error)

	// The failed user turn stays in the history.
	histResp, err := http.Get(ts.URL + "/api/v1/sessions/" + id + "/messages")
	require.NoError(t, err)
	defer histResp.Body.Close()

	var hist struct {
		Messages []struct {
			Role string `json:"role"`
		} `json:"messages"`
	}
	require.NoError(t, json.NewDecoder(histResp.Body).Decode(&hist))
	require.Len(t, hist.Messages, 1)
	assert.Equal(t, "user", hist.Messages[0].Role)
}

func TestSendMessageValidation(t *testing.T) {
	ts := newTestServer(t, &scriptedInvoker{})
	id := createSession(t, ts)

	for name, payload := range map[string]string{
		"empty message": `{"message":"   "}`,
		"not json":      `{oops`,
	} {
		t.Run(name, func(t *testing.T) {
			resp, err := http.Post(
				ts.URL+"/api/v1/sessions/"+id+"/messages",
				"application/json",
				bytes.NewReader([]byte(payload)),
			)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestSendMessageConflictWhileInFlight(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	ts := newTestServer(t, &scriptedInvoker{blockCh: release, started: started})
	id := createSession(t, ts)

	var wg sync.WaitGroup
	wg.Add(1)
	firstStatus := make(chan int, 1)
	go func() {
		defer wg.Done()
		payload, _ := json.Marshal(map[string]string{"message": "slow one"})
		resp, err := http.Post(ts.URL+"/api/v1/sessions/"+id+"/messages", "application/json", bytes.NewReader(payload))
		if err != nil {
			firstStatus <- 0
			return
		}
		resp.Body.Close()
		firstStatus <- resp.StatusCode
	}()

	// Once the first turn holds the session, a second message conflicts.
	select {
	case <-started:
	case <-time.After(testWaitTimeout):
		t.Fatal("first turn never started")
	}

	resp := postMessage(t, ts, id, "impatient")
	status := resp.StatusCode
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, status)

	close(release)
	wg.Wait()
	assert.Equal(t, http.StatusOK, <-firstStatus)
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t, &scriptedInvoker{})

	resp, err := http.Get(ts.URL + "/api/v1/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNewServerRequiresChat(t *testing.T) {
	_, err := NewServer(ServerConfig{})
	assert.Error(t, err)
}

func TestRateLimit(t *testing.T) {
	binding, err := provider.New("test-key", "https://generativelanguage.googleapis.com/v1beta/openai/")
	require.NoError(t, err)
	model, err := provider.NewModel(binding, "gemini-2.5-flash")
	require.NoError(t, err)
	ag, err := agent.New("assistant", "instructions", model)
	require.NoError(t, err)

	svc, err := chat.New(chat.Config{
		Store:   session.NewStore(),
		Invoker: &scriptedInvoker{},
		Agent:   ag,
		Run:     agent.RunConfig{Model: model},
	})
	require.NoError(t, err)

	srv, err := NewServer(ServerConfig{Chat: svc, RateBurst: 2})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	var limited bool
	for i := 0; i < 5; i++ {
		resp, err := http.Post(ts.URL+"/api/v1/sessions", "application/json", nil)
		require.NoError(t, err)
		resp.Body.Close()
		if resp.StatusCode == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	assert.True(t, limited, "burst of 2 should throttle 5 rapid requests")
}

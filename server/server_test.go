package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skritek/switchboard/agent"
	"github.com/skritek/switchboard/core"
	"github.com/skritek/switchboard/dispatch"
	"github.com/skritek/switchboard/model"
	"github.com/skritek/switchboard/store"
)

func newTestServer(t *testing.T, gateway model.Gateway) (*Server, *store.InMemoryContextStore) {
	t.Helper()

	registry := agent.NewRegistry()
	registry.Register(func() (agent.Agent, error) {
		return agent.NewFuncAgent(
			"Echo",
			"Echo the request",
			map[string]any{
				"type": "object",
				"properties": map[string]any{
					"action":  map[string]any{"type": "string"},
					"request": map[string]any{"type": "string"},
				},
			},
			func(args map[string]any) (string, error) { return "echoed", nil },
		), nil
	})
	registry.Load()

	contexts := store.NewInMemoryContextStore()
	memory := store.NewInMemoryMemoryStore()
	dispatcher := dispatch.New(registry, contexts, memory, func(o *dispatch.Options) {
		o.Gateway = gateway
	})

	return New(dispatcher, registry, contexts), contexts
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestAgentsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/agents")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Agents []agent.Descriptor `json:"agents"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Agents, 1)
	assert.Equal(t, "Echo", body.Agents[0].ID)
}

func TestProcessEndpoint(t *testing.T) {
	gw := model.NewMockGateway()
	gw.EnqueueText("hello back")
	srv, _ := newTestServer(t, gw)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/process", "application/json",
		strings.NewReader(`{"user_input":"hello"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body core.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "hello back", body.Response)
	assert.NotEmpty(t, body.SessionGUID)
	assert.Equal(t, core.DefaultGUID, body.ContextGUID)
}

func TestProcessEndpointValidation(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	// Missing user_input
	resp, err := http.Post(ts.URL+"/api/process", "application/json",
		strings.NewReader(`{}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Malformed JSON
	resp, err = http.Post(ts.URL+"/api/process", "application/json",
		strings.NewReader(`{nope`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateContextEndpoint(t *testing.T) {
	srv, contexts := newTestServer(t, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/contexts", "application/json",
		strings.NewReader(`{"name":"Work","agents":["Echo"],"system_prompt":"Work prompt"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body CreateContextResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Work", body.Name)
	assert.NotEmpty(t, body.GUID)

	stored := contexts.Get(body.GUID)
	assert.Equal(t, []string{"Echo"}, stored.Agents)
	assert.Equal(t, "Work prompt", stored.SystemPrompt)
}

func TestCreateContextDefaults(t *testing.T) {
	srv, contexts := newTestServer(t, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/contexts", "application/json",
		strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	var body CreateContextResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "New Context", body.Name)

	stored := contexts.Get(body.GUID)
	assert.True(t, stored.AllowsAllAgents())
}

func TestContextsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/contexts")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Contexts []core.ContextSummary `json:"contexts"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Contexts, 1)
	assert.Equal(t, core.DefaultGUID, body.Contexts[0].GUID)
}

func TestReloadEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/reload")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/process", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

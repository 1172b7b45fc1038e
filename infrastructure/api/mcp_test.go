package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixml/careerpath"
	"github.com/helixml/careerpath/domain/career"
	"github.com/helixml/careerpath/infrastructure/api"
	"github.com/helixml/careerpath/internal/testmodels"
)

func newTestClient(t *testing.T) *careerpath.Client {
	t.Helper()
	client, err := careerpath.New(careerpath.WithConfig(testmodels.Config(t)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func mcpRequest(t *testing.T, method string, id int, params map[string]any) []byte {
	t.Helper()
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  method,
	}
	if params != nil {
		msg["params"] = params
	}
	b, err := json.Marshal(msg)
	require.NoError(t, err)
	return b
}

func postMCP(t *testing.T, handler http.Handler, body []byte, sessionID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.Header.Set("Mcp-Session-Id", sessionID)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func initializeRequest(t *testing.T) []byte {
	t.Helper()
	return mcpRequest(t, "initialize", 1, map[string]any{
		"protocolVersion": "2025-06-18",
		"capabilities":    map[string]any{},
		"clientInfo":      map[string]any{"name": "test", "version": "0.0.1"},
	})
}

// initMCPSession sends an initialize request and returns the session ID.
func initMCPSession(t *testing.T, handler http.Handler) string {
	t.Helper()
	w := postMCP(t, handler, initializeRequest(t), "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	sessionID := w.Header().Get("Mcp-Session-Id")
	require.NotEmpty(t, sessionID, "initialize did not return a session ID")
	return sessionID
}

// toolResultText decodes the JSON-RPC response from a tools/call and returns
// the text content and whether the tool reported an error.
func toolResultText(t *testing.T, w *httptest.ResponseRecorder) (string, bool) {
	t.Helper()
	var resp struct {
		Result struct {
			Content []struct {
				Text string `json:"text"`
			} `json:"content"`
			IsError bool `json:"isError"`
		} `json:"result"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	if len(resp.Result.Content) == 0 {
		return "", resp.Result.IsError
	}
	return resp.Result.Content[0].Text, resp.Result.IsError
}

func TestMCPEndpoint_Initialize(t *testing.T) {
	handler := api.NewAPIServer(newTestClient(t), nil).Handler()

	w := postMCP(t, handler, initializeRequest(t), "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Result struct {
			ServerInfo struct {
				Name string `json:"name"`
			} `json:"serverInfo"`
			Capabilities struct {
				Tools json.RawMessage `json:"tools"`
			} `json:"capabilities"`
		} `json:"result"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "careerpath", resp.Result.ServerInfo.Name)
	assert.NotNil(t, resp.Result.Capabilities.Tools)
}

func TestMCPEndpoint_ListTools(t *testing.T) {
	handler := api.NewAPIServer(newTestClient(t), nil).Handler()
	sessionID := initMCPSession(t, handler)

	w := postMCP(t, handler, mcpRequest(t, "tools/list", 2, nil), sessionID)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))

	var names []string
	for _, tool := range resp.Result.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"recommend_careers", "infer_traits", "get_user_traits", "get_version"}, names)
}

func TestMCPEndpoint_RejectsInvalidContentType(t *testing.T) {
	handler := api.NewAPIServer(newTestClient(t), nil).Handler()

	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewReader([]byte("{}")))
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMCPEndpoint_RecommendCareers(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	_, err := client.Catalog.Index(ctx, []career.Career{
		{ID: "chef", Title: "Chef", Description: "Prepares food in restaurants"},
		{ID: "pilot", Title: "Pilot", Description: "Flies aircraft"},
	}, false)
	require.NoError(t, err)
	_, _, err = client.Traits.SaveEssay(ctx, 21, "I love cooking for friends and trying new recipes.", "en")
	require.NoError(t, err)

	handler := api.NewAPIServer(client, nil).Handler()
	sessionID := initMCPSession(t, handler)

	w := postMCP(t, handler, mcpRequest(t, "tools/call", 2, map[string]any{
		"name":      "recommend_careers",
		"arguments": map[string]any{"user_id": 21, "top_k": 2},
	}), sessionID)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	text, isError := toolResultText(t, w)
	require.False(t, isError, text)

	var items []struct {
		CareerID string `json:"career_id"`
		Title    string `json:"title"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &items))
	require.Len(t, items, 2)
	for _, it := range items {
		assert.NotEmpty(t, it.Title, "title resolved from the catalog for %s", it.CareerID)
	}
}

// TestMCPEndpoint_ServerMiddlewareStack verifies that MCP works through the
// full server middleware stack as built by ListenAndServe. chi's Timeout
// middleware must not wrap the streamable server's ResponseWriter.
func TestMCPEndpoint_ServerMiddlewareStack(t *testing.T) {
	apiServer := api.NewAPIServer(newTestClient(t), nil)
	apiServer.MountRoutes()

	srv := api.NewServer("", nil)
	srv.Router().Mount("/", apiServer.Router())
	handler := srv.Router()

	sessionID := initMCPSession(t, handler)

	w := postMCP(t, handler, mcpRequest(t, "tools/list", 2, nil), sessionID)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = postMCP(t, handler, mcpRequest(t, "tools/call", 3, map[string]any{
		"name":      "get_version",
		"arguments": map[string]any{},
	}), sessionID)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	text, isError := toolResultText(t, w)
	require.False(t, isError, text)
	assert.Equal(t, api.Version, text)
}

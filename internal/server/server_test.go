// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/wsf-plugins/internal/wsf"
	"github.com/pdiddy/wsf-plugins/pkg/types"
)

// echoPlugin returns one row per call, or the error in its "fail" param.
type echoPlugin struct{}

func (echoPlugin) Name() string                         { return "echo" }
func (echoPlugin) RequiredParameterNames() []string     { return []string{"text"} }
func (echoPlugin) Columns(wsf.Request) ([]string, error) { return []string{"text", "len"}, nil }
func (echoPlugin) ValidateParameters(wsf.Request) error { return nil }

func (echoPlugin) Execute(_ context.Context, req wsf.Request, resp wsf.Response) (int, error) {
	switch req.Param("fail") {
	case "delayed":
		return 0, fmt.Errorf("polling: %w", wsf.ErrDelayedResult)
	case "large":
		return 0, &wsf.ResultTooLargeError{Msg: "too big"}
	case "model":
		return 0, wsf.Modelf("broken config")
	case "user":
		return 0, wsf.Userf("bad input")
	}
	text := req.Param("text")
	resp.SetMessage("done")
	return 3, resp.AddRow([]string{text, fmt.Sprint(len(text))})
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestInvoke(t *testing.T) {
	h := New([]wsf.Plugin{echoPlugin{}}, types.ServerConfig{}, nil).Handler()

	w := post(t, h, "/plugins/echo", `{"params":{"text":"ACGT"}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, Result{Signal: 3, Message: "done", Columns: []string{"text", "len"}, Rows: [][]string{{"ACGT", "4"}}}, got)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestInvoke_StatusMapping(t *testing.T) {
	h := New([]wsf.Plugin{echoPlugin{}}, types.ServerConfig{}, nil).Handler()
	tests := []struct {
		name string
		body string
		path string
		want int
	}{
		{name: "delayed", body: `{"params":{"text":"x","fail":"delayed"}}`, want: http.StatusAccepted},
		{name: "too large", body: `{"params":{"text":"x","fail":"large"}}`, want: http.StatusRequestEntityTooLarge},
		{name: "user error", body: `{"params":{"text":"x","fail":"user"}}`, want: http.StatusBadRequest},
		{name: "model error", body: `{"params":{"text":"x","fail":"model"}}`, want: http.StatusInternalServerError},
		{name: "missing param", body: `{"params":{}}`, want: http.StatusBadRequest},
		{name: "bad json", body: `{`, want: http.StatusBadRequest},
		{name: "unknown plugin", body: `{}`, path: "/plugins/nope", want: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.path
			if path == "" {
				path = "/plugins/echo"
			}
			w := post(t, h, path, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestInvoke_DelayedBody(t *testing.T) {
	h := New([]wsf.Plugin{echoPlugin{}}, types.ServerConfig{}, nil).Handler()
	w := post(t, h, "/plugins/echo", `{"params":{"text":"x","fail":"delayed"}}`)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "delayed", body["status"])
}

func TestRateLimit(t *testing.T) {
	h := New([]wsf.Plugin{echoPlugin{}}, types.ServerConfig{RateLimitRPS: 0.001, RateBurst: 1}, nil).Handler()

	assert.Equal(t, http.StatusOK, post(t, h, "/plugins/echo", `{"params":{"text":"a"}}`).Code)
	assert.Equal(t, http.StatusTooManyRequests, post(t, h, "/plugins/echo", `{"params":{"text":"b"}}`).Code)
}

func TestHealthAndList(t *testing.T) {
	h := New([]wsf.Plugin{echoPlugin{}}, types.ServerConfig{}, nil).Handler()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/plugins", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var infos []PluginInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &infos))
	assert.Equal(t, []PluginInfo{{Name: "echo", RequiredParameters: []string{"text"}, Columns: []string{"text", "len"}}}, infos)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errors.New("plain")))
	assert.Equal(t, http.StatusBadRequest, StatusFor(fmt.Errorf("wrapped: %w", wsf.Userf("x"))))
}

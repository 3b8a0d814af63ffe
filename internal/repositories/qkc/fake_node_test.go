package qkc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Lumerin-protocol/posw-router/internal/interfaces"
	"github.com/Lumerin-protocol/posw-router/internal/lib"
	"github.com/stretchr/testify/require"
)

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Version string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type nodeHandler func(method string, params []json.RawMessage) (interface{}, error)

// nullResult makes the fake node answer with an explicit JSON null
type nullResult struct{}

func (nullResult) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

func newFakeNode(t *testing.T, handler nodeHandler) *Client {
	return newFakeNodeWithLog(t, handler, &lib.LoggerMock{})
}

func newFakeNodeWithLog(t *testing.T, handler nodeHandler, log interfaces.ILogger) *Client {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		res := rpcResponse{Version: "2.0", ID: req.ID}
		result, err := handler(req.Method, req.Params)
		if err != nil {
			res.Error = &rpcError{Code: -32000, Message: err.Error()}
		} else {
			res.Result = result
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(res)
	}))
	t.Cleanup(srv.Close)

	client, err := DialContext(context.Background(), srv.URL, 5*time.Second, log)
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return client
}

package mockserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const serverKey = "secret"

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(serverKey, newMemoryStore(), nil))
	t.Cleanup(srv.Close)
	return srv
}

func doRequest(t *testing.T, srv *httptest.Server, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("x-api-key", serverKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestRejectsMissingAPIKey(t *testing.T) {
	srv := newServer(t)

	resp, err := http.Get(srv.URL + "/record/foo")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body, "error")
}

func TestSetGetDeleteFlow(t *testing.T) {
	srv := newServer(t)

	resp, body := doRequest(t, srv, http.MethodPost, "/record", map[string]any{
		"key": "foo", "value": "bar", "partialUpdate": false,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	resp, body = doRequest(t, srv, http.MethodGet, "/record/foo", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "foo", body["key"])
	assert.Equal(t, "bar", body["value"])

	resp, body = doRequest(t, srv, http.MethodDelete, "/record/foo", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	resp, body = doRequest(t, srv, http.MethodGet, "/record/foo", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Record not found", body["error"])
}

func TestEscapedKeysRoundTrip(t *testing.T) {
	srv := newServer(t)

	// Clients escape keys in the body; the stored key is the unescaped form.
	resp, _ := doRequest(t, srv, http.MethodPost, "/record", map[string]any{
		"key": "hello%20world", "value": "v",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := doRequest(t, srv, http.MethodGet, "/record/hello%20world", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "hello world", body["key"])
}

func TestPartialUpdateMergesObjects(t *testing.T) {
	srv := newServer(t)

	doRequest(t, srv, http.MethodPost, "/record", map[string]any{
		"key": "user", "value": `{"name":"test","age":42}`,
	})
	doRequest(t, srv, http.MethodPost, "/record", map[string]any{
		"key": "user", "value": `{"age":43}`, "partialUpdate": true,
	})

	_, body := doRequest(t, srv, http.MethodGet, "/record/user", nil)
	var stored map[string]any
	require.NoError(t, json.Unmarshal([]byte(body["value"].(string)), &stored))
	assert.Equal(t, "test", stored["name"])
	assert.Equal(t, float64(43), stored["age"])
}

func TestPartialUpdateFallsBackToReplace(t *testing.T) {
	srv := newServer(t)

	doRequest(t, srv, http.MethodPost, "/record", map[string]any{
		"key": "plain", "value": "not json",
	})
	doRequest(t, srv, http.MethodPost, "/record", map[string]any{
		"key": "plain", "value": "replacement", "partialUpdate": true,
	})

	_, body := doRequest(t, srv, http.MethodGet, "/record/plain", nil)
	assert.Equal(t, "replacement", body["value"])
}

func TestIncrementCreatesAndApplies(t *testing.T) {
	srv := newServer(t)

	resp, body := doRequest(t, srv, http.MethodPost, "/record/atomic", map[string]any{
		"key": "counter", "increment": 5,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(5), body["result"])

	_, body = doRequest(t, srv, http.MethodPost, "/record/atomic", map[string]any{
		"key": "counter", "increment": -2,
	})
	assert.Equal(t, float64(3), body["result"])
}

func TestIncrementRejectsNonNumericRecord(t *testing.T) {
	srv := newServer(t)

	doRequest(t, srv, http.MethodPost, "/record", map[string]any{
		"key": "text", "value": "abc",
	})
	resp, body := doRequest(t, srv, http.MethodPost, "/record/atomic", map[string]any{
		"key": "text", "increment": 1,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "error")
}

func TestQueryRangeAndTruncation(t *testing.T) {
	srv := newServer(t)

	for _, key := range []string{"a", "b", "c", "d"} {
		doRequest(t, srv, http.MethodPost, "/record", map[string]any{
			"key": key, "value": "v",
		})
	}

	resp, body := doRequest(t, srv, http.MethodGet, "/records?startKey=a&endKey=c&limit=10", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(3), body["count"])
	assert.Equal(t, false, body["truncated"])

	_, body = doRequest(t, srv, http.MethodGet, "/records?startKey=a&endKey=d&limit=2", nil)
	assert.Equal(t, float64(2), body["count"])
	assert.Equal(t, true, body["truncated"])
	records := body["records"].([]any)
	require.Len(t, records, 2)
	first := records[0].(map[string]any)
	assert.Equal(t, "a", first["key"])
}

func TestRejectsMalformedRequests(t *testing.T) {
	srv := newServer(t)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/record", bytes.NewReader([]byte("not json")))
	require.NoError(t, err)
	req.Header.Set("x-api-key", serverKey)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	respEmpty, body := doRequest(t, srv, http.MethodPost, "/record", map[string]any{
		"key": "", "value": "v",
	})
	assert.Equal(t, http.StatusBadRequest, respEmpty.StatusCode)
	assert.Contains(t, body, "error")

	respLimit, _ := doRequest(t, srv, http.MethodGet, "/records?startKey=a&endKey=b&limit=zero", nil)
	assert.Equal(t, http.StatusBadRequest, respLimit.StatusCode)
}

func TestUnknownRouteIs404(t *testing.T) {
	srv := newServer(t)
	resp, body := doRequest(t, srv, http.MethodGet, "/unknown", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "error")
}

package stubapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/stubrouter/pkg/stub"
	"github.com/getmockd/stubrouter/pkg/stubstore"
)

func newTestServer(t *testing.T, opts ...Option) (*httptest.Server, stubstore.Storage) {
	t.Helper()
	store := stubstore.NewMemoryStorage()
	ts := httptest.NewServer(New(store, opts...).Handler())
	t.Cleanup(ts.Close)
	return ts, store
}

func apiURL(ts *httptest.Server, target, path string) string {
	q := url.Values{}
	if target != "" {
		q.Set("target", target)
	}
	if path != "" {
		q.Set("path", path)
	}
	return ts.URL + APIPath + "?" + q.Encode()
}

func doRequest(t *testing.T, method, u, body string) (*http.Response, string) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, u, r)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(data)
}

func errorCode(t *testing.T, body string) string {
	t.Helper()
	var er ErrorResponse
	require.NoError(t, json.Unmarshal([]byte(body), &er), body)
	return er.Error
}

func TestServer_ListTarget(t *testing.T) {
	ts, store := newTestServer(t)
	ctx := context.Background()

	resp, body := doRequest(t, http.MethodGet, apiURL(ts, "svcA", ""), "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.JSONEq(t, `{}`, body)

	require.NoError(t, store.Save(ctx, "svcA", stub.Record{Path: "/z", Stub: stub.Stub{Code: 200}}))
	require.NoError(t, store.Save(ctx, "svcA", stub.Record{Path: "/a", Stub: stub.Stub{Code: 404}}))

	_, body = doRequest(t, http.MethodGet, apiURL(ts, "svcA", ""), "")
	var set stub.Set
	require.NoError(t, json.Unmarshal([]byte(body), &set))
	assert.Equal(t, []string{"/z", "/a"}, set.Paths())
	assert.Less(t, strings.Index(body, `"/z"`), strings.Index(body, `"/a"`), "wire order follows insertion order")
}

func TestServer_SaveGetDelete(t *testing.T) {
	ts, _ := newTestServer(t)
	u := apiURL(ts, "svcA", "/ping")

	resp, body := doRequest(t, http.MethodPost, u,
		`{"path":"/ping","code":"200","headers":"{\"Content-Type\":\"text/plain\"}","data":"pong","timeout":""}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.JSONEq(t, `{"status":"ok"}`, body)

	resp, body = doRequest(t, http.MethodGet, u, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got stub.Stub
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	assert.Equal(t, 200, got.Code)
	assert.Equal(t, "pong", got.Data)
	assert.Equal(t, 0, got.Timeout)
	assert.Equal(t, map[string]string{"Content-Type": "text/plain"}, got.Headers)

	resp, body = doRequest(t, http.MethodDelete, u, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, body)

	resp, body = doRequest(t, http.MethodDelete, u, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, ErrCodeNotFound, errorCode(t, body))

	resp, _ = doRequest(t, http.MethodGet, u, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_PathComesFromQuery(t *testing.T) {
	ts, store := newTestServer(t)

	resp, _ := doRequest(t, http.MethodPost, apiURL(ts, "svcA", "/from-query"), `{"path":"/from-body","code":201}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	set, err := store.List(context.Background(), "svcA")
	require.NoError(t, err)
	assert.Equal(t, []string{"/from-query"}, set.Paths())
}

func TestServer_BadRequests(t *testing.T) {
	ts, _ := newTestServer(t)

	tests := []struct {
		name   string
		method string
		url    string
		body   string
		status int
		code   string
	}{
		{"list without target", http.MethodGet, ts.URL + APIPath, "", http.StatusBadRequest, ErrCodeMissingTarget},
		{"empty target", http.MethodGet, ts.URL + APIPath + "?target=", "", http.StatusBadRequest, ErrCodeMissingTarget},
		{"get without target", http.MethodGet, apiURL(ts, "", "/ping"), "", http.StatusBadRequest, ErrCodeMissingTarget},
		{"post without path", http.MethodPost, apiURL(ts, "svcA", ""), `{"code":200}`, http.StatusBadRequest, ErrCodeMissingPath},
		{"delete without path", http.MethodDelete, apiURL(ts, "svcA", ""), "", http.StatusBadRequest, ErrCodeMissingPath},
		{"empty code", http.MethodPost, apiURL(ts, "svcA", "/p"), `{"code":"","data":"x"}`, http.StatusBadRequest, ErrCodeInvalidPayload},
		{"bad json", http.MethodPost, apiURL(ts, "svcA", "/p"), `{`, http.StatusBadRequest, ErrCodeInvalidPayload},
		{"put", http.MethodPut, apiURL(ts, "svcA", "/p"), `{}`, http.StatusMethodNotAllowed, ErrCodeMethod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doRequest(t, tt.method, tt.url, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.code, errorCode(t, body))
		})
	}
}

type failingStorage struct {
	stubstore.Storage
}

func (failingStorage) List(context.Context, string) (stub.Set, error) {
	return nil, errors.New("disk on fire")
}

func (failingStorage) Save(context.Context, string, stub.Record) error {
	return errors.New("disk on fire")
}

func (failingStorage) Remove(context.Context, string, string) error {
	return errors.New("disk on fire")
}

func TestServer_StorageFailure(t *testing.T) {
	ts := httptest.NewServer(New(failingStorage{}).Handler())
	t.Cleanup(ts.Close)

	resp, body := doRequest(t, http.MethodGet, apiURL(ts, "svcA", ""), "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, ErrCodeStorage, errorCode(t, body))
	assert.NotContains(t, body, "disk on fire")

	resp, _ = doRequest(t, http.MethodPost, apiURL(ts, "svcA", "/p"), `{"code":200}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	resp, _ = doRequest(t, http.MethodDelete, apiURL(ts, "svcA", "/p"), "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

type panicStorage struct {
	stubstore.Storage
}

func (panicStorage) List(context.Context, string) (stub.Set, error) {
	panic("boom")
}

func TestServer_RecoversPanics(t *testing.T) {
	ts := httptest.NewServer(New(panicStorage{}).Handler())
	t.Cleanup(ts.Close)

	resp, body := doRequest(t, http.MethodGet, apiURL(ts, "svcA", ""), "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, ErrCodeInternal, errorCode(t, body))
}

type request struct {
	method string
	status int
}

type fakeRecorder struct {
	mu   sync.Mutex
	reqs []request
}

func (f *fakeRecorder) ObserveAPIRequest(method string, status int, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, request{method, status})
}

func TestServer_RecordsRequests(t *testing.T) {
	rec := &fakeRecorder{}
	ts, _ := newTestServer(t, WithRecorder(rec))

	doRequest(t, http.MethodGet, apiURL(ts, "svcA", ""), "")
	doRequest(t, http.MethodDelete, apiURL(ts, "svcA", "/nope"), "")

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.reqs, 2)
	assert.Equal(t, request{http.MethodGet, http.StatusOK}, rec.reqs[0])
	assert.Equal(t, request{http.MethodDelete, http.StatusNotFound}, rec.reqs[1])
}

package webui

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/stubrouter/pkg/form"
	"github.com/getmockd/stubrouter/pkg/stub"
	"github.com/getmockd/stubrouter/pkg/stubapi"
	"github.com/getmockd/stubrouter/pkg/stubclient"
	"github.com/getmockd/stubrouter/pkg/stubstore"
)

// countingStore counts calls reaching the store client.
type countingStore struct {
	*stubclient.Client
	calls   atomic.Int32
	deletes atomic.Int32
}

func (c *countingStore) ListStubs(ctx context.Context, target string) (stub.Set, error) {
	c.calls.Add(1)
	return c.Client.ListStubs(ctx, target)
}

func (c *countingStore) SaveStub(ctx context.Context, target, path string, v form.Values) error {
	c.calls.Add(1)
	return c.Client.SaveStub(ctx, target, path, v)
}

func (c *countingStore) DeleteStub(ctx context.Context, target, path string) error {
	c.calls.Add(1)
	c.deletes.Add(1)
	return c.Client.DeleteStub(ctx, target, path)
}

type fixture struct {
	ts      *httptest.Server
	storage stubstore.Storage
	store   *countingStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{storage: stubstore.NewMemoryStorage()}

	r := mux.NewRouter()
	stubapi.New(f.storage).Register(r)
	f.ts = httptest.NewServer(r)
	t.Cleanup(f.ts.Close)

	f.store = &countingStore{Client: stubclient.New(f.ts.URL)}
	New(f.store, WithTargets("svcA", "svc B")).Register(r)
	return f
}

func browser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func get(t *testing.T, c *http.Client, u string) string {
	t.Helper()
	resp, err := c.Get(u)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func post(t *testing.T, c *http.Client, u string, v url.Values) string {
	t.Helper()
	resp, err := c.PostForm(u, v)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode, "redirect lands on the editor page")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

var entryID = regexp.MustCompile(`id="stub-([0-9a-f-]+)"`)

func ids(page string) []string {
	var out []string
	for _, m := range entryID.FindAllStringSubmatch(page, -1) {
		out = append(out, m[1])
	}
	return out
}

func (f *fixture) action(path, target, id string) string {
	return f.ts.URL + actionURL(path, target, id)
}

func TestIndex_ListsTargetsWithoutStoreCalls(t *testing.T) {
	f := newFixture(t)

	page := get(t, browser(t), f.ts.URL+"/")

	assert.Contains(t, page, `href="/stubs?target=svcA"`)
	assert.Contains(t, page, `href="/stubs?target=svc%20B"`)
	assert.NotContains(t, page, `<ul class="stubs">`)
	assert.Equal(t, int32(0), f.store.calls.Load())
}

func TestEditorPage_LoadsStoreOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.storage.Save(ctx, "svcA", stub.Record{Path: "/z", Stub: stub.Stub{Code: 200}}))
	require.NoError(t, f.storage.Save(ctx, "svcA", stub.Record{Path: "/a", Stub: stub.Stub{Code: 404}}))

	page := get(t, browser(t), f.ts.URL+EditorPath+"?target=svcA")

	assert.Contains(t, page, "<h1>svcA</h1>")
	assert.Less(t, strings.Index(page, `readonly value="/z"`), strings.Index(page, `readonly value="/a"`))
	assert.Len(t, ids(page), 2)
}

func TestEditorPage_AddSaveRemove(t *testing.T) {
	f := newFixture(t)
	c := browser(t)

	page := post(t, c, f.action(AddPath, "svcA", ""), nil)
	require.Len(t, ids(page), 1)
	id := ids(page)[0]
	assert.Contains(t, page, `data-isnew="true"`)

	page = post(t, c, f.action(SavePath, "svcA", id), form.Values{
		Path: "/ping", Code: "200", Data: "pong",
	}.Encode())
	assert.Contains(t, page, `readonly value="/ping"`)
	assert.NotContains(t, page, `class="flash"`)
	require.Len(t, ids(page), 1)
	id = ids(page)[0]

	got, err := f.storage.Get(context.Background(), "svcA", "/ping")
	require.NoError(t, err)
	assert.Equal(t, 200, got.Code)
	assert.Equal(t, "pong", got.Data)

	page = post(t, c, f.action(RemovePath, "svcA", id), nil)
	assert.Empty(t, ids(page))
	_, err = f.storage.Get(context.Background(), "svcA", "/ping")
	assert.ErrorIs(t, err, stubstore.ErrNotFound)
}

func TestEditorPage_RejectedSaveShowsMessage(t *testing.T) {
	f := newFixture(t)
	c := browser(t)

	page := post(t, c, f.action(AddPath, "svcA", ""), nil)
	id := ids(page)[0]

	page = post(t, c, f.action(SavePath, "svcA", id), form.Values{Path: "/ping", Data: "no code"}.Encode())

	assert.Contains(t, page, `class="flash"`)
	assert.Contains(t, page, "rejected")
	assert.Contains(t, page, `data-isnew="true"`)
	assert.Contains(t, page, `value="/ping"`, "input survives the failed save")

	page = get(t, c, f.ts.URL+EditorPath+"?target=svcA")
	assert.NotContains(t, page, `class="flash"`, "message shown once")
}

func TestEditorPage_RemoveNewEntryMakesNoCall(t *testing.T) {
	f := newFixture(t)
	c := browser(t)

	page := post(t, c, f.action(AddPath, "svcA", ""), nil)
	id := ids(page)[0]

	page = post(t, c, f.action(RemovePath, "svcA", id), nil)

	assert.Empty(t, ids(page))
	assert.Equal(t, int32(0), f.store.deletes.Load())
}

func TestEditorPage_SessionsAreSeparate(t *testing.T) {
	f := newFixture(t)
	alice, bob := browser(t), browser(t)

	page := post(t, alice, f.action(AddPath, "svcA", ""), nil)
	require.Len(t, ids(page), 1)

	page = get(t, bob, f.ts.URL+EditorPath+"?target=svcA")
	assert.Empty(t, ids(page), "unsaved entries stay in their session")
}

func TestEditorPage_LoadShowsExternalChanges(t *testing.T) {
	f := newFixture(t)
	c := browser(t)
	get(t, c, f.ts.URL+EditorPath+"?target=svcA")

	require.NoError(t, f.storage.Save(context.Background(), "svcA", stub.Record{Path: "/new", Stub: stub.Stub{Code: 200}}))
	page := get(t, c, f.ts.URL+EditorPath+"?target=svcA")
	assert.Contains(t, page, `readonly value="/new"`)
}

func TestEditorPage_LoadKeepsUnsavedEntries(t *testing.T) {
	f := newFixture(t)
	c := browser(t)
	post(t, c, f.action(AddPath, "svcA", ""), nil)

	require.NoError(t, f.storage.Save(context.Background(), "svcA", stub.Record{Path: "/new", Stub: stub.Stub{Code: 200}}))
	page := get(t, c, f.ts.URL+EditorPath+"?target=svcA")
	assert.Contains(t, page, `data-isnew="true"`)
	assert.NotContains(t, page, `value="/new"`)

	page = post(t, c, f.action(ReloadPath, "svcA", ""), nil)
	assert.Contains(t, page, `readonly value="/new"`)
	assert.NotContains(t, page, `data-isnew="true"`, "reload drops unsaved entries")
}

func TestAction_UnknownEntry(t *testing.T) {
	f := newFixture(t)

	page := post(t, browser(t), f.action(SavePath, "svcA", "nope"), form.Values{Path: "/x", Code: "200"}.Encode())

	assert.Contains(t, page, "no longer on this page")
}

func TestAction_WithoutTargetGoesHome(t *testing.T) {
	f := newFixture(t)

	page := post(t, browser(t), f.ts.URL+AddPath, nil)

	assert.Contains(t, page, "Choose a target")
	assert.Equal(t, int32(0), f.store.calls.Load())
}

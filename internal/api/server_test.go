package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qyliu/paperdeck/internal/backend"
	"github.com/qyliu/paperdeck/internal/config"
	"github.com/qyliu/paperdeck/internal/document"
	"github.com/qyliu/paperdeck/internal/docview"
	"github.com/qyliu/paperdeck/internal/parsing"
	"github.com/qyliu/paperdeck/internal/session"
)

// fakePlatform stands in for the external backend with just enough state
// for handler tests.
type fakePlatform struct {
	mu        sync.Mutex
	saved     *document.Document
	positions map[string]backend.ReadingPosition
	parses    int
}

func (f *fakePlatform) handler(t *testing.T) http.Handler {
	t.Helper()
	mux := http.NewServeMux()

	ok := func(w http.ResponseWriter, data string) {
		fmt.Fprintf(w, `{"code":0,"data":%s}`, data)
	}

	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["username"] != "ada" || body["password"] != "secret" {
			fmt.Fprint(w, `{"code":40001,"message":"bad credentials"}`)
			return
		}
		ok(w, `{"token":"t1","user":{"id":"u1","username":"ada"}}`)
	})
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		ok(w, `null`)
	})

	mux.HandleFunc("GET /papers/p1/document", func(w http.ResponseWriter, r *http.Request) {
		ok(w, `{
			"paperId":"p1",
			"title":{"en":[{"type":"text","content":"A Paper"}]},
			"sections":[{
				"id":"s1",
				"title":{"en":[{"type":"text","content":"Intro"}]},
				"content":[
					{"type":"paragraph","id":"b1","content":{"en":[{"type":"text","content":"first"}]}},
					{"type":"figure","id":"f1","src":"a.png"}
				]
			}]
		}`)
	})
	mux.HandleFunc("PUT /papers/p1/document", func(w http.ResponseWriter, r *http.Request) {
		var doc document.Document
		if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
			t.Errorf("decode saved document: %v", err)
		}
		f.mu.Lock()
		f.saved = &doc
		f.mu.Unlock()
		ok(w, `null`)
	})
	mux.HandleFunc("PUT /papers/p1/position", func(w http.ResponseWriter, r *http.Request) {
		var pos backend.ReadingPosition
		json.NewDecoder(r.Body).Decode(&pos)
		f.mu.Lock()
		f.positions["p1"] = pos
		f.mu.Unlock()
		ok(w, `null`)
	})

	mux.HandleFunc("POST /parse", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.parses++
		n := f.parses
		f.mu.Unlock()
		ok(w, fmt.Sprintf(`{"sessionId":"bsess-%d"}`, n))
	})
	mux.HandleFunc("POST /parse/{id}/translate", func(w http.ResponseWriter, r *http.Request) {
		ok(w, `{"blocks":[
			{"type":"paragraph","id":"new-p","content":{"en":[{"type":"text","content":"parsed"}]}}
		]}`)
	})

	mux.HandleFunc("POST /upload", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse upload form: %v", err)
		}
		ok(w, `{"url":"https://cdn.example.org/u/x","key":"u/x","size":10,"contentType":"text/plain"}`)
	})

	mux.HandleFunc("GET /notes/admin/p1", func(w http.ResponseWriter, r *http.Request) {
		ok(w, `{"notes":[{"id":"n1","blockId":"b1","content":"**bold** note"}]}`)
	})

	return mux
}

type testEnv struct {
	api      *httptest.Server
	platform *fakePlatform
	views    *docview.Store
	sess     *session.Session
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	platform := &fakePlatform{positions: make(map[string]backend.ReadingPosition)}
	backendSrv := httptest.NewServer(platform.handler(t))
	t.Cleanup(backendSrv.Close)

	client := backend.NewClient(backendSrv.URL, 5*time.Second)
	sess := session.New(client, session.NewMemoryStore(), log)
	client.SetTokenSource(sess)

	views, err := docview.NewStore(client, 8, log)
	require.NoError(t, err)
	parses := parsing.NewManager(client, log, 5*time.Second, time.Hour)

	cfg := config.Config{
		MaxUploadBytes:    1 << 20,
		NotePreviewLength: 80,
	}
	apiSrv := httptest.NewServer(NewServer(views, parses, sess, client, log, cfg))
	t.Cleanup(apiSrv.Close)

	return &testEnv{api: apiSrv, platform: platform, views: views, sess: sess}
}

func (e *testEnv) signIn(t *testing.T) {
	t.Helper()
	resp := e.postJSON(t, "/api/auth/login", `{"username":"ada","password":"secret"}`)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func (e *testEnv) do(t *testing.T, method, path string, body io.Reader) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, e.api.URL+path, body)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) postJSON(t *testing.T, path, body string) *http.Response {
	return e.do(t, http.MethodPost, path, strings.NewReader(body))
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealthIsPublic(t *testing.T) {
	e := newTestEnv(t)
	resp, err := http.Get(e.api.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthenticatedRoutesRejectSignedOut(t *testing.T) {
	e := newTestEnv(t)
	resp := e.do(t, http.MethodGet, "/api/papers/p1/document", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLoginBadCredentials(t *testing.T) {
	e := newTestEnv(t)
	resp := e.postJSON(t, "/api/auth/login", `{"username":"ada","password":"wrong"}`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLoginAndMe(t *testing.T) {
	e := newTestEnv(t)
	e.signIn(t)

	resp := e.do(t, http.MethodGet, "/api/auth/me", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[map[string]backend.User](t, resp)
	assert.Equal(t, "ada", body["user"].Username)
}

func TestGetDocumentAssignsNumbers(t *testing.T) {
	e := newTestEnv(t)
	e.signIn(t)

	resp := e.do(t, http.MethodGet, "/api/papers/p1/document", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	doc := decodeBody[document.Document](t, resp)
	require.Len(t, doc.Sections, 1)
	require.Len(t, doc.Sections[0].Content, 2)

	fig, ok := doc.Sections[0].Content[1].(*document.Figure)
	require.True(t, ok)
	assert.Equal(t, 1, fig.Number)
}

func TestInsertDeleteReplaceBlocks(t *testing.T) {
	e := newTestEnv(t)
	e.signIn(t)
	e.do(t, http.MethodGet, "/api/papers/p1/document", nil).Body.Close()

	// Insert after b1.
	resp := e.postJSON(t, "/api/papers/p1/blocks", `{
		"afterBlockId":"b1",
		"blocks":[{"type":"quote","id":"q1","content":{"en":[{"type":"text","content":"quoted"}]}}]
	}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc := decodeBody[document.Document](t, resp)
	require.Len(t, doc.Sections[0].Content, 3)
	assert.Equal(t, "q1", doc.Sections[0].Content[1].BlockID())

	// Replace q1 with two dividers.
	resp = e.postJSON(t, "/api/papers/p1/blocks/q1/replace", `{
		"blocks":[{"type":"divider","id":"d1"},{"type":"divider","id":"d2"}]
	}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc = decodeBody[document.Document](t, resp)
	require.Len(t, doc.Sections[0].Content, 4)
	assert.Equal(t, "d1", doc.Sections[0].Content[1].BlockID())
	assert.Equal(t, "d2", doc.Sections[0].Content[2].BlockID())

	// Delete one of them.
	resp = e.do(t, http.MethodDelete, "/api/papers/p1/blocks/d2", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc = decodeBody[document.Document](t, resp)
	require.Len(t, doc.Sections[0].Content, 3)

	// Unknown block is a 404.
	resp = e.do(t, http.MethodDelete, "/api/papers/p1/blocks/ghost", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEditsRequireOpenPaper(t *testing.T) {
	e := newTestEnv(t)
	e.signIn(t)

	resp := e.do(t, http.MethodDelete, "/api/papers/p1/blocks/b1", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSaveDocumentRoundTrip(t *testing.T) {
	e := newTestEnv(t)
	e.signIn(t)
	e.do(t, http.MethodGet, "/api/papers/p1/document", nil).Body.Close()

	resp := e.do(t, http.MethodDelete, "/api/papers/p1/blocks/b1", nil)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = e.do(t, http.MethodPut, "/api/papers/p1/document", nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	e.platform.mu.Lock()
	saved := e.platform.saved
	e.platform.mu.Unlock()
	require.NotNil(t, saved)
	_, found := saved.FindBlock("b1")
	assert.False(t, found)
}

func TestParseLifecycleOverHTTP(t *testing.T) {
	e := newTestEnv(t)
	e.signIn(t)
	e.do(t, http.MethodGet, "/api/papers/p1/document", nil).Body.Close()

	resp := e.postJSON(t, "/api/papers/p1/parse", `{"afterBlockId":"b1","text":"raw paragraph"}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	snap := decodeBody[parsing.Snapshot](t, resp)
	require.NotEmpty(t, snap.ParseID)

	statusPath := "/api/papers/p1/parse/" + snap.ParseID
	require.Eventually(t, func() bool {
		resp := e.do(t, http.MethodGet, statusPath, nil)
		cur := decodeBody[parsing.Snapshot](t, resp)
		return cur.Stage == document.StagePendingConfirmation
	}, 3*time.Second, 20*time.Millisecond)

	resp = e.postJSON(t, statusPath+"/confirm", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc := decodeBody[document.Document](t, resp)

	loc, found := doc.FindBlock("new-p")
	require.True(t, found)
	assert.Equal(t, 1, loc.BlockIndex)

	// No placeholder remains.
	for _, b := range doc.Sections[0].Content {
		assert.NotEqual(t, document.BlockParsing, b.BlockType())
	}
}

func TestParseEventsWebsocket(t *testing.T) {
	e := newTestEnv(t)
	e.signIn(t)
	e.do(t, http.MethodGet, "/api/papers/p1/document", nil).Body.Close()

	resp := e.postJSON(t, "/api/papers/p1/parse", `{"afterBlockId":"b1","text":"raw paragraph"}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	snap := decodeBody[parsing.Snapshot](t, resp)

	wsURL := "ws" + strings.TrimPrefix(e.api.URL, "http") + "/api/papers/p1/parse/" + snap.ParseID + "/events"
	conn, wsResp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if wsResp != nil {
		wsResp.Body.Close()
	}
	defer conn.Close()

	var stages []document.ParseStage
	deadline := time.Now().Add(5 * time.Second)
	for {
		conn.SetReadDeadline(deadline)
		var ev parsing.Event
		if err := conn.ReadJSON(&ev); err != nil {
			break
		}
		stages = append(stages, ev.Stage)
		if ev.Stage == document.StagePendingConfirmation {
			break
		}
	}
	assert.Contains(t, stages, document.StagePendingConfirmation)
}

func TestParseStatusUnknownID(t *testing.T) {
	e := newTestEnv(t)
	e.signIn(t)
	e.do(t, http.MethodGet, "/api/papers/p1/document", nil).Body.Close()

	resp := e.do(t, http.MethodGet, "/api/papers/p1/parse/nope", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUploadProxyWithExtract(t *testing.T) {
	e := newTestEnv(t)
	e.signIn(t)

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	part.Write([]byte("Para one.\n\nPara two."))
	form.WriteField("paper_id", "p1")
	require.NoError(t, form.Close())

	req, err := http.NewRequest(http.MethodPost, e.api.URL+"/api/upload", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", form.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[map[string]map[string]any](t, resp)
	assert.Equal(t, "https://cdn.example.org/u/x", body["upload"]["url"])
	assert.Equal(t, "Para one.\n\nPara two.", body["extract"]["text"])
	assert.Equal(t, "notes", body["extract"]["title"])
}

func TestImportFeedsParsePipeline(t *testing.T) {
	e := newTestEnv(t)
	e.signIn(t)
	e.do(t, http.MethodGet, "/api/papers/p1/document", nil).Body.Close()

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", "extra.md")
	require.NoError(t, err)
	part.Write([]byte("# Appendix\n\nMore material."))
	form.WriteField("paper_id", "p1")
	form.WriteField("after_block_id", "f1")
	require.NoError(t, form.Close())

	req, err := http.NewRequest(http.MethodPost, e.api.URL+"/api/import", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", form.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var body struct {
		Parse parsing.Snapshot `json:"parse"`
		Title string           `json:"title"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	assert.Equal(t, "Appendix", body.Title)
	assert.NotEmpty(t, body.Parse.ParseID)

	// The placeholder is already in the open document.
	view, found := e.views.Get("p1")
	require.True(t, found)
	loc, ok := view.Snapshot().FindBlock(body.Parse.TempBlockID)
	require.True(t, ok)
	assert.Equal(t, 2, loc.BlockIndex)
}

func TestNotesListRendersMarkdown(t *testing.T) {
	e := newTestEnv(t)
	e.signIn(t)

	resp := e.do(t, http.MethodGet, "/api/notes/admin/p1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Notes []struct {
			ID      string `json:"id"`
			HTML    string `json:"html"`
			Preview string `json:"preview"`
		} `json:"notes"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()

	require.Len(t, body.Notes, 1)
	assert.Contains(t, body.Notes[0].HTML, "<strong>bold</strong>")
	assert.Equal(t, "bold note", body.Notes[0].Preview)
}

func TestNotePreview(t *testing.T) {
	e := newTestEnv(t)
	e.signIn(t)

	resp := e.postJSON(t, "/api/notes/preview", `{"content":"_em_ text"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[map[string]string](t, resp)
	assert.Contains(t, body["html"], "<em>em</em>")
	assert.Equal(t, "em text", body["plain"])
}

func TestPositionAndViewTeardown(t *testing.T) {
	e := newTestEnv(t)
	e.signIn(t)
	e.do(t, http.MethodGet, "/api/papers/p1/document", nil).Body.Close()

	resp := e.do(t, http.MethodPut, "/api/papers/p1/position", strings.NewReader(`{"blockId":"f1","offset":0.3}`))
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = e.do(t, http.MethodDelete, "/api/papers/p1/view", nil)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	e.platform.mu.Lock()
	pos := e.platform.positions["p1"]
	e.platform.mu.Unlock()
	assert.Equal(t, "f1", pos.BlockID)

	// Closing again is a 404.
	resp = e.do(t, http.MethodDelete, "/api/papers/p1/view", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

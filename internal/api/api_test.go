package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Faultbox/webray-editor/internal/editor"
	"github.com/Faultbox/webray-editor/internal/render"
	"github.com/Faultbox/webray-editor/internal/scene"
	"github.com/Faultbox/webray-editor/internal/storage/memory"
)

const testOrigin = "http://127.0.0.1:5173"

func newTestServer(t *testing.T, opts Options) (*httptest.Server, *editor.Editor) {
	t.Helper()
	dir := t.TempDir()
	ed := editor.New(editor.Config{
		Engine: render.EngineFunc(func(ctx context.Context, doc *scene.Scene) (render.Output, error) {
			return render.Output{Image: []byte("\x89PNG"), ContentType: "image/png"}, nil
		}),
		Library:      memory.NewLibrary(),
		SaveFile:     filepath.Join(dir, "scene.json"),
		DownloadFile: filepath.Join(dir, "render.png"),
	})
	t.Cleanup(ed.Close)

	s := NewServer(ed, opts, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)
	t.Cleanup(cancel)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts, ed
}

func do(t *testing.T, method, url, body string) (*http.Response, string) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, r)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(data)
}

func TestSchemaAndScene(t *testing.T) {
	ts, _ := newTestServer(t, Options{})

	resp, body := do(t, http.MethodGet, ts.URL+"/api/v1/schema", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"w_scene"`)

	resp, body = do(t, http.MethodGet, ts.URL+"/api/v1/scene", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "0", resp.Header.Get("X-Scene-Version"))

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(body), &doc))
	assert.Contains(t, doc, "camera")
	assert.Contains(t, doc, "objects")
}

func TestPutScene(t *testing.T) {
	ts, ed := newTestServer(t, Options{})

	_, body := do(t, http.MethodGet, ts.URL+"/api/v1/scene", "")

	resp, out := do(t, http.MethodPut, ts.URL+"/api/v1/scene", body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"version":1}`, out)

	resp, _ = do(t, http.MethodPut, ts.URL+"/api/v1/scene", `{"camera":{}}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, uint64(1), ed.Store.Version(), "a rejected document is not applied")

	notes := ed.Notifier.Drain()
	require.Len(t, notes, 1)
	assert.Equal(t, editor.MsgInvalidScene, notes[0].Message)
}

func TestListItems(t *testing.T) {
	ts, ed := newTestServer(t, Options{})

	resp, body := do(t, http.MethodPost, ts.URL+"/api/v1/scene/objects", "")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.JSONEq(t, `{"id":6}`, body)

	resp, body = do(t, http.MethodDelete, ts.URL+"/api/v1/scene/objects/2", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"removed":true}`, body)
	assert.Equal(t, 5, ed.Store.Current().Len(scene.Objects))

	_, body = do(t, http.MethodDelete, ts.URL+"/api/v1/scene/objects/42", "")
	assert.JSONEq(t, `{"removed":false}`, body)

	resp, _ = do(t, http.MethodPost, ts.URL+"/api/v1/scene/camera", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, ts.URL+"/api/v1/scene/lights", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBindings(t *testing.T) {
	ts, ed := newTestServer(t, Options{})
	url := ts.URL + "/api/v1/bind?path=webray:scene:camera&property=v_fov"

	resp, body := do(t, http.MethodGet, url, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"value":20,"defined":true}`, body)

	resp, body = do(t, http.MethodPut, url, `{"set":35}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"value":35,"defined":true}`, body)
	assert.Equal(t, float32(35), ed.Store.Current().Camera.VFov)

	resp, _ = do(t, http.MethodPut, url, `{"set":"wide"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, http.MethodPut, url, `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	_, body = do(t, http.MethodGet, ts.URL+"/api/v1/bind?path=webray:scene:materials[9]&property=name", "")
	assert.JSONEq(t, `{"value":null,"defined":false}`, body)

	resp, _ = do(t, http.MethodGet, ts.URL+"/api/v1/bind?path=webray:editor:camera&property=v_fov", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRenderFlow(t *testing.T) {
	ts, ed := newTestServer(t, Options{})

	resp, _ := do(t, http.MethodGet, ts.URL+"/api/v1/output", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body := do(t, http.MethodGet, ts.URL+"/api/v1/kernel", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"state":"INITIAL","view":"windowed"}`, body)

	resp, _ = do(t, http.MethodPost, ts.URL+"/api/v1/actions/a_render", `{"wait":true}`)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, render.Done, ed.Kernel.State())

	_, body = do(t, http.MethodGet, ts.URL+"/api/v1/kernel", "")
	var st struct {
		State string `json:"state"`
		Job   string `json:"job"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &st))
	assert.Equal(t, "DONE", st.State)
	assert.NotEmpty(t, st.Job)

	resp, body = do(t, http.MethodGet, ts.URL+"/api/v1/output", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Equal(t, "\x89PNG", body)

	resp, body = do(t, http.MethodGet, ts.URL+"/api/v1/notifications", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, editor.MsgRenderFirst)
}

func TestInvokeAction(t *testing.T) {
	ts, ed := newTestServer(t, Options{})

	resp, _ := do(t, http.MethodPost, ts.URL+"/api/v1/actions/a_fullscreen_enter", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, editor.Fullscreen, ed.View())

	resp, _ = do(t, http.MethodPost, ts.URL+"/api/v1/actions/a_missing", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, ts.URL+"/api/v1/actions/a_render", `{broken`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, ts.URL+"/api/v1/actions/a_add_list_item", `{"binding":"webray:scene:camera"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLibrary(t *testing.T) {
	ts, _ := newTestServer(t, Options{})

	_, body := do(t, http.MethodGet, ts.URL+"/api/v1/library", "")
	assert.JSONEq(t, `[]`, body)

	_, doc := do(t, http.MethodGet, ts.URL+"/api/v1/scene", "")
	resp, _ := do(t, http.MethodPut, ts.URL+"/api/v1/library/spheres", doc)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	_, body = do(t, http.MethodGet, ts.URL+"/api/v1/library", "")
	assert.JSONEq(t, `["spheres"]`, body)

	resp, body = do(t, http.MethodGet, ts.URL+"/api/v1/library/spheres", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, doc, body)

	resp, _ = do(t, http.MethodGet, ts.URL+"/api/v1/library/missing", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, http.MethodPut, ts.URL+"/api/v1/library/broken", `{"objects":[]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, http.MethodPut, ts.URL+"/api/v1/library/.hidden", doc)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLibraryDisabled(t *testing.T) {
	ed := editor.New(editor.Config{})
	t.Cleanup(ed.Close)
	ts := httptest.NewServer(NewServer(ed, Options{}, nil).Handler())
	t.Cleanup(ts.Close)

	resp, _ := do(t, http.MethodGet, ts.URL+"/api/v1/library", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestCORS(t *testing.T) {
	ts, _ := newTestServer(t, Options{CORSOrigin: testOrigin})

	resp, _ := do(t, http.MethodOptions, ts.URL+"/api/v1/scene", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, testOrigin, resp.Header.Get("Access-Control-Allow-Origin"))

	resp, _ = do(t, http.MethodGet, ts.URL+"/api/v1/schema", "")
	assert.Equal(t, testOrigin, resp.Header.Get("Access-Control-Allow-Origin"))
}

func signToken(t *testing.T, secret string, expires time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "tester",
		ExpiresAt: jwt.NewNumericDate(expires),
	})
	s, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestAuth(t *testing.T) {
	const secret = "s3cret"
	ts, _ := newTestServer(t, Options{JWTSecret: secret})
	url := ts.URL + "/api/v1/schema"

	get := func(token string) int {
		req, err := http.NewRequest(http.MethodGet, url, nil)
		require.NoError(t, err)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusUnauthorized, get(""))
	assert.Equal(t, http.StatusUnauthorized, get("not-a-token"))
	assert.Equal(t, http.StatusUnauthorized, get(signToken(t, "other", time.Now().Add(time.Hour))))
	assert.Equal(t, http.StatusUnauthorized, get(signToken(t, secret, time.Now().Add(-time.Hour))))
	assert.Equal(t, http.StatusOK, get(signToken(t, secret, time.Now().Add(time.Hour))))

	resp, _ := do(t, http.MethodGet, url+"?access_token="+signToken(t, secret, time.Now().Add(time.Hour)), "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSubject(t *testing.T) {
	const secret = "s3cret"
	var got string
	h := Auth([]byte(secret), zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = Subject(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, secret, time.Now().Add(time.Hour)))
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "tester", got)
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/annel0/voxel-engine/internal/auth"
	"github.com/annel0/voxel-engine/internal/world"
	"github.com/annel0/voxel-engine/internal/world/block"
	"github.com/annel0/voxel-engine/internal/world/chunkpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	srv    *RestServer
	engine *world.Engine
	path   string
}

func newTestServer(t *testing.T, password string) *testServer {
	t.Helper()

	op := auth.Operator{Name: "admin"}
	if password != "" {
		hash, err := auth.HashPassword(password)
		require.NoError(t, err)
		op.PasswordHash = hash
	}
	tokens, err := auth.NewTokenManager("", time.Hour)
	require.NoError(t, err)

	engine := world.NewEngine(world.Options{Radius: 1, Seed: 77})
	path := filepath.Join(t.TempDir(), "world.txt")
	srv, err := NewRestServer(Config{
		Engine:    engine,
		Tokens:    tokens,
		Operator:  op,
		WorldPath: path,
		Registry:  prometheus.NewRegistry(),
	})
	require.NoError(t, err)
	return &testServer{srv: srv, engine: engine, path: path}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}, token string) (*httptest.ResponseRecorder, GenericResponse) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	ts.srv.Handler().ServeHTTP(w, req)

	var resp GenericResponse
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "" {
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
	}
	return w, resp
}

func (ts *testServer) login(t *testing.T, password string) string {
	t.Helper()
	w, resp := ts.do(t, http.MethodPost, "/api/auth/login", LoginRequest{Username: "admin", Password: password}, "")
	require.Equal(t, http.StatusOK, w.Code)
	data := resp.Data.(map[string]interface{})
	return data["token"].(string)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, "")
	w, _ := ts.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestSetBlockRequiresToken(t *testing.T) {
	ts := newTestServer(t, "hunter2")

	w, _ := ts.do(t, http.MethodPut, "/api/blocks/10/5/10", blockID(3), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = ts.do(t, http.MethodPut, "/api/blocks/10/5/10", blockID(3), "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = ts.do(t, http.MethodPost, "/api/auth/login", LoginRequest{Username: "admin", Password: "nope"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := ts.login(t, "hunter2")
	w, resp := ts.do(t, http.MethodPut, "/api/blocks/10/5/10", blockID(3), token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, block.GrassBlockID, ts.engine.BlockAt(vecAt(10, 5, 10)).ID())
}

func TestBlockReadAndWrite(t *testing.T) {
	ts := newTestServer(t, "")

	w, resp := ts.do(t, http.MethodPut, "/api/blocks/10/5/10", blockID(0), "")
	require.Equal(t, http.StatusOK, w.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "user", data["layer"])
	assert.Equal(t, float64(0), data["id"])

	w, resp = ts.do(t, http.MethodGet, "/api/blocks/10/5/10", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	data = resp.Data.(map[string]interface{})
	assert.Equal(t, "Air", data["name"])
	assert.Equal(t, false, data["collides"])

	w, _ = ts.do(t, http.MethodGet, "/api/blocks/1/128/1", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = ts.do(t, http.MethodGet, "/api/blocks/a/1/1", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = ts.do(t, http.MethodPut, "/api/blocks/1/1/1", blockID(9999), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = ts.do(t, http.MethodPut, "/api/blocks/1/1/1", BlockRequest{}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestViewerAndRender(t *testing.T) {
	ts := newTestServer(t, "")

	w, _ := ts.do(t, http.MethodGet, "/api/viewers/alice", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, resp := ts.do(t, http.MethodPut, "/api/viewers/alice", ViewerRequest{X: 2, Z: -1}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(9), resp.Data.(map[string]interface{})["moved"])

	w, resp = ts.do(t, http.MethodGet, "/api/viewers/alice", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), resp.Data.(map[string]interface{})["x"])

	ts.engine.DrainAll(context.Background())
	ts.engine.DrainReady(nil, 0)

	w, resp = ts.do(t, http.MethodGet, "/api/render", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(25), data["slots"])
	assert.Len(t, data["used"], 9)

	w, _ = ts.do(t, http.MethodDelete, "/api/viewers/alice", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = ts.do(t, http.MethodDelete, "/api/viewers/alice", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSaveResetAndGenerate(t *testing.T) {
	ts := newTestServer(t, "")

	w, resp := ts.do(t, http.MethodPost, "/api/chunks/4/4/generate", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp.Data.(map[string]interface{})["fresh"])
	_, resp = ts.do(t, http.MethodPost, "/api/chunks/4/4/generate", nil, "")
	assert.Equal(t, false, resp.Data.(map[string]interface{})["fresh"])

	w, _ = ts.do(t, http.MethodPost, "/api/world/save", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.FileExists(t, ts.path)

	w, _ = ts.do(t, http.MethodPost, "/api/world/reset", map[string]interface{}{"seed": 5, "planet": "hostile"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(5), ts.engine.Seed())
	assert.False(t, ts.engine.IsGenerated(vecChunk(4, 4)))

	w, _ = ts.do(t, http.MethodPost, "/api/world/reset", map[string]interface{}{"planet": "gas"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResetRejectsHugeRadius(t *testing.T) {
	ts := newTestServer(t, "")
	slots := ts.engine.Pool().Len()

	for _, radius := range []int{-1, chunkpool.MaxRadius + 1, 100000} {
		w, _ := ts.do(t, http.MethodPost, "/api/world/reset", map[string]interface{}{"radius": radius}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, "радиус %d", radius)
	}
	assert.Equal(t, slots, ts.engine.Pool().Len(), "пул не пересоздан")

	w, _ := ts.do(t, http.MethodPost, "/api/world/reset", map[string]interface{}{"radius": 2}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, chunkpool.Size(2), ts.engine.Pool().Len())
}

func TestPlacePrefab(t *testing.T) {
	ts := newTestServer(t, "")

	w, resp := ts.do(t, http.MethodPost, "/api/prefabs/boulder/place", PlaceRequest{X: 7, Y: 90, Z: 7}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(10), resp.Data.(map[string]interface{})["written"])
	assert.Equal(t, block.CobblestoneBlockID, ts.engine.BlockAt(vecAt(7, 90, 7)).ID())

	w, _ = ts.do(t, http.MethodPost, "/api/prefabs/castle/place", PlaceRequest{X: 7, Y: 90, Z: 7}, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = ts.do(t, http.MethodPost, "/api/prefabs/boulder/place", PlaceRequest{X: 7, Y: 500, Z: 7}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatsAndPrefabs(t *testing.T) {
	ts := newTestServer(t, "")

	w, resp := ts.do(t, http.MethodGet, "/api/stats", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	engine := resp.Data.(map[string]interface{})["engine"].(map[string]interface{})
	assert.Equal(t, float64(77), engine["seed"])
	assert.Equal(t, float64(25), engine["slots"])

	w, resp = ts.do(t, http.MethodGet, "/api/prefabs", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, resp.Data, "oak")

	w, _ = ts.do(t, http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSpawnLandsOnSolidBlock(t *testing.T) {
	ts := newTestServer(t, "")

	w, resp := ts.do(t, http.MethodGet, "/api/spawn/3/-7", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	data := resp.Data.(map[string]interface{})
	y := int(data["y"].(float64))
	assert.True(t, ts.engine.Collides(vecAt(3, y-1, -7)), "под ногами твёрдый блок")
	assert.False(t, ts.engine.Collides(vecAt(3, y, -7)))
}

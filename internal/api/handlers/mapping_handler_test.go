package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ViktorAgafonov/ForecastOrder/internal/domain"
	"github.com/ViktorAgafonov/ForecastOrder/internal/mapping"
)

func newMappingRouter(t *testing.T) (*gin.Engine, *mapping.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := mapping.Open(filepath.Join(t.TempDir(), "mapping.json"))
	require.NoError(t, err)

	h := NewMappingHandler(store)
	router := gin.New()
	group := router.Group("/api/v1/mapping/groups")
	{
		group.GET("", h.List)
		group.GET("/:id", h.Get)
		group.PUT("/:id", h.Rename)
		group.POST("/merge", h.Merge)
		group.POST("/:id/members", h.AddMember)
		group.DELETE("/:id/members", h.RemoveMember)
	}
	return router, store
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestMappingListAndGet(t *testing.T) {
	router, store := newMappingRouter(t)
	require.NoError(t, store.AddMember("art_A100", "Bolt M6", "A100"))

	w := doJSON(router, http.MethodGet, "/api/v1/mapping/groups", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var listResp struct {
		Groups []domain.Group `json:"groups"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listResp))
	require.Len(t, listResp.Groups, 1)
	assert.Equal(t, "art_A100", listResp.Groups[0].ID)

	w = doJSON(router, http.MethodGet, "/api/v1/mapping/groups/art_A100", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodGet, "/api/v1/mapping/groups/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMappingRename(t *testing.T) {
	router, store := newMappingRouter(t)
	require.NoError(t, store.AddMember("g1", "Bolt", "A1"))

	w := doJSON(router, http.MethodPut, "/api/v1/mapping/groups/g1", gin.H{"name": "Крепёж"})
	assert.Equal(t, http.StatusOK, w.Code)

	group, _ := store.Group("g1")
	assert.Equal(t, "Крепёж", group.Name)

	w = doJSON(router, http.MethodPut, "/api/v1/mapping/groups/missing", gin.H{"name": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(router, http.MethodPut, "/api/v1/mapping/groups/g1", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMappingMerge(t *testing.T) {
	router, store := newMappingRouter(t)
	require.NoError(t, store.AddMember("g1", "Bolt", "A1"))
	require.NoError(t, store.AddMember("g2", "Bolt M6", "A2"))

	w := doJSON(router, http.MethodPost, "/api/v1/mapping/groups/merge", gin.H{
		"source_id": "g2",
		"target_id": "g1",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	_, ok := store.Group("g2")
	assert.False(t, ok)
	group, _ := store.Group("g1")
	assert.Len(t, group.Items, 2)
}

func TestMappingMembers(t *testing.T) {
	router, store := newMappingRouter(t)

	w := doJSON(router, http.MethodPost, "/api/v1/mapping/groups/g1/members", gin.H{
		"name": "Bolt",
		"code": "A1",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	// Same pair again conflicts.
	w = doJSON(router, http.MethodPost, "/api/v1/mapping/groups/g1/members", gin.H{
		"name": "Bolt",
		"code": "A1",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(router, http.MethodDelete, "/api/v1/mapping/groups/g1/members", gin.H{
		"name": "Bolt",
		"code": "A1",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, store.Len())

	w = doJSON(router, http.MethodDelete, "/api/v1/mapping/groups/g1/members", gin.H{
		"name": "Bolt",
		"code": "A1",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

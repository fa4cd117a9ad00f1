package job

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_Create(t *testing.T) {
	t.Run("Created", func(t *testing.T) {
		h := NewHandler(NewService(&stubRepo{}))

		body := bytes.NewBufferString(`{"creator_id":"creator-1","video_ids":["v1","v2"],"metadata":{"source":"dashboard"}}`)
		req := httptest.NewRequest(http.MethodPost, "/jobs", body)
		rr := httptest.NewRecorder()

		h.Create(rr, req)

		require.Equal(t, http.StatusCreated, rr.Code)

		var resp struct {
			Data Job `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "job-1", resp.Data.ID)
		assert.Equal(t, StatusPending, resp.Data.Status)
		assert.Equal(t, []string{"v1", "v2"}, resp.Data.VideoIDs)
	})

	t.Run("Invalid JSON", func(t *testing.T) {
		h := NewHandler(NewService(&stubRepo{}))

		req := httptest.NewRequest(http.MethodPost, "/jobs", bytes.NewBufferString("{not json"))
		rr := httptest.NewRecorder()

		h.Create(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "BAD_REQUEST")
	})

	t.Run("Missing Creator", func(t *testing.T) {
		h := NewHandler(NewService(&stubRepo{}))

		req := httptest.NewRequest(http.MethodPost, "/jobs", bytes.NewBufferString(`{"video_ids":["v1"]}`))
		rr := httptest.NewRecorder()

		h.Create(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), ErrCreatorRequired.Error())
	})

	t.Run("No Videos", func(t *testing.T) {
		h := NewHandler(NewService(&stubRepo{}))

		req := httptest.NewRequest(http.MethodPost, "/jobs", bytes.NewBufferString(`{"creator_id":"creator-1","video_ids":[]}`))
		rr := httptest.NewRecorder()

		h.Create(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), ErrNoVideos.Error())
	})

	t.Run("Repo Error", func(t *testing.T) {
		h := NewHandler(NewService(&stubRepo{createErr: errors.New("db down")}))

		req := httptest.NewRequest(http.MethodPost, "/jobs", bytes.NewBufferString(`{"creator_id":"creator-1","video_ids":["v1"]}`))
		rr := httptest.NewRecorder()

		h.Create(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Contains(t, rr.Body.String(), "INTERNAL_ERROR")
	})
}

func TestHandler_Get(t *testing.T) {
	newRequest := func(id string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/jobs/"+id, nil)
		req.SetPathValue("id", id)
		return req
	}

	t.Run("Found", func(t *testing.T) {
		repo := &stubRepo{getJob: &Job{ID: "job-1", CreatorID: "creator-1", Status: StatusCompleted, Progress: 100}}
		h := NewHandler(NewService(repo))

		rr := httptest.NewRecorder()
		h.Get(rr, newRequest("job-1"))

		require.Equal(t, http.StatusOK, rr.Code)

		var resp struct {
			Data Job `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, StatusCompleted, resp.Data.Status)
		assert.Equal(t, 100, resp.Data.Progress)
	})

	t.Run("Not Found", func(t *testing.T) {
		h := NewHandler(NewService(&stubRepo{getErr: sql.ErrNoRows}))

		rr := httptest.NewRecorder()
		h.Get(rr, newRequest("missing"))

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Contains(t, rr.Body.String(), "NOT_FOUND")
	})

	t.Run("Repo Error", func(t *testing.T) {
		h := NewHandler(NewService(&stubRepo{getErr: errors.New("db down")}))

		rr := httptest.NewRecorder()
		h.Get(rr, newRequest("job-1"))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

package syncqueue

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestWebService(t *testing.T) {

	t.Run("Enqueue via json", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		c, router, s := setupWeb(t, ctrl)

		// when
		request, err := http.NewRequest(http.MethodPost, "/api/sync/queue",
			strings.NewReader(`{"url":"/api/todos","method":"POST","body":{"title":"Buy Milk"},"headers":{"X-Client":"web"}}`))
		assert.NoError(t, err)
		request.Header.Set("Content-Type", "application/json")
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)
		got := response.Body.String()
		assert.Contains(t, got, `"uid": "uid-1"`)
		assert.Contains(t, got, `"url": "/api/todos"`)

		pending, err := s.Pending(c)
		assert.NoError(t, err)
		assert.Len(t, pending, 1)
		assert.Equal(t, "web", pending[0].Headers["X-Client"])
	})

	t.Run("Enqueue via form", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		c, router, s := setupWeb(t, ctrl)

		// when
		request, err := http.NewRequest(http.MethodPost, "/api/sync/queue",
			strings.NewReader(`url=/api/todos/1&method=put&body={"done":true}`))
		assert.NoError(t, err)
		request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)

		pending, err := s.Pending(c)
		assert.NoError(t, err)
		assert.Len(t, pending, 1)
		assert.Equal(t, http.MethodPut, pending[0].Method)
		assert.JSONEq(t, `{"done":true}`, string(pending[0].Body))
	})

	t.Run("Enqueue without url fails", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _ := setupWeb(t, ctrl)

		// when
		request, err := http.NewRequest(http.MethodPost, "/api/sync/queue", strings.NewReader(`{"method":"POST"}`))
		assert.NoError(t, err)
		request.Header.Set("Content-Type", "application/json")
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 400, response.Code)
	})

	t.Run("List pending queue", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		c, router, s := setupWeb(t, ctrl)

		// given
		_, err := s.Enqueue(c, EnqueueRequest{URL: "/api/todos"})
		assert.NoError(t, err)

		// when
		request, err := http.NewRequest(http.MethodGet, "/api/sync/queue", nil)
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)
		assert.Contains(t, response.Body.String(), `"url": "/api/todos"`)
	})

	t.Run("Status reports syncing and online", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _ := setupWeb(t, ctrl)

		// when
		request, err := http.NewRequest(http.MethodGet, "/api/sync/status", nil)
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)
		got := response.Body.String()
		assert.Contains(t, got, `"syncing": false`)
		assert.Contains(t, got, `"online": false`)
	})
}

func setupWeb(t *testing.T, ctrl *gomock.Controller) (context.Context, *mux.Router, *Service) {
	c, s, _, _, _, _ := setup(t, ctrl, false)

	router := mux.NewRouter()
	NewWebService(s).RegisterEndpoints(c, router)

	return c, router, s
}

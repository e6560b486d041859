package postsvc_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/instalite/internal/domain"
	http_ "github.com/mkrupp/instalite/internal/infra/transport/http"

	. "github.com/mkrupp/instalite/internal/svc/postsvc"
)

func newTestRouter(t *testing.T) (http.Handler, *mockImageService) {
	t.Helper()

	svc, imageSvc := setupTestService(t)

	transport := NewHTTPTransport(svc, imageSvc, HTTPTransportConfig{
		MultipartFileNames:     []string{"imageFile", "image"},
		MultipartFormMaxMemory: 1 << 16,
		MaxRequestSize:         1 << 16,
	})

	return http_.NewRouter(http_.Route{Prefix: RoutePrefix, Transport: transport}), imageSvc
}

func multipartRequest(t *testing.T, fields map[string]string, fileField, filename string, data []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer

	mw := multipart.NewWriter(&body)

	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}

	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, filename)
		require.NoError(t, err)

		_, err = fw.Write(data)
		require.NoError(t, err)
	}

	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, RoutePrefix, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return req
}

func TestHTTPCreatePost(t *testing.T) {
	t.Parallel()

	router, imageSvc := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, multipartRequest(t,
		map[string]string{"title": "sunset", "description": "red sky", "userId": "3"},
		"imageFile", "sunset.JPG", []byte("jpg")))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, RoutePrefix+"/1", rec.Header().Get("Location"))

	var created domain.PostResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, "sunset", created.Title)
	assert.Equal(t, "red sky", created.Description)
	assert.Equal(t, "image-1.jpg", created.Image)
	assert.Equal(t, int64(3), created.UserID)

	// the file is also accepted as "image", userId defaults
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, multipartRequest(t, map[string]string{"title": "cat"}, "image", "cat.png", []byte("png")))

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "image-2.png", created.Image)
	assert.Equal(t, int64(1), created.UserID)

	// url encoded forms carry no image
	form := url.Values{"title": {"plain"}, "description": {"text"}}
	req := httptest.NewRequest(http.MethodPost, RoutePrefix, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Empty(t, created.Image)

	assert.Equal(t, 2, imageSvc.count())
}

func TestHTTPCreatePostRejected(t *testing.T) {
	t.Parallel()

	router, imageSvc := newTestRouter(t)

	tests := []struct {
		name     string
		req      *http.Request
		wantBody string
	}{
		{
			name:     "unsupported extension",
			req:      multipartRequest(t, map[string]string{"title": "doc"}, "imageFile", "doc.gif", []byte("gif")),
			wantBody: `{"error":"Invalid file format. Supported formats: jpg, jpeg, png."}`,
		},
		{
			name:     "too large",
			req:      multipartRequest(t, map[string]string{"title": "big"}, "imageFile", "big.png", bytes.Repeat([]byte("x"), 2048)),
			wantBody: `{"error":"Image is too large."}`,
		},
		{
			name:     "invalid user id",
			req:      multipartRequest(t, map[string]string{"title": "t", "userId": "abc"}, "", "", nil),
			wantBody: `{"error":"userId must be an integer."}`,
		},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, tt.req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, tt.name)
		assert.JSONEq(t, tt.wantBody, rec.Body.String(), tt.name)
	}

	assert.Zero(t, imageSvc.count())
}

func TestHTTPGetListDeletePost(t *testing.T) {
	t.Parallel()

	router, imageSvc := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, multipartRequest(t, map[string]string{"title": "sunset"}, "imageFile", "a.png", []byte("png")))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, RoutePrefix, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var posts []domain.PostResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &posts))
	require.Len(t, posts, 1)
	assert.Equal(t, "sunset", posts[0].Title)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, RoutePrefix+"/1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"title":"sunset"`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, RoutePrefix+"/1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"image":"image-1.png"`)
	assert.Zero(t, imageSvc.count())

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(method, RoutePrefix+"/1", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, method)
		assert.JSONEq(t, `{"error":"Post not found."}`, rec.Body.String(), method)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, RoutePrefix+"/x", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

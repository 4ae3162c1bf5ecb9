package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vivahsetu/vivahsetu-backend/pkg/storage"
)

type MockAttachmentStore struct {
	mock.Mock
}

func (m *MockAttachmentStore) Upload(ctx context.Context, key, name string, body io.Reader, contentType string, size int64) (*storage.UploadResult, error) {
	args := m.Called(ctx, key, name, body, contentType, size)
	if r := args.Get(0); r != nil {
		return r.(*storage.UploadResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func uploadRequest(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/chat/attachments", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func serveUpload(h *AttachmentHandler, req *http.Request) (*httptest.ResponseRecorder, apiEnvelope) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/chat/attachments", func(c *gin.Context) {
		c.Set("userID", "u1")
		c.Next()
	}, h.Upload)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	var body apiEnvelope
	json.Unmarshal(w.Body.Bytes(), &body) //nolint:errcheck
	return w, body
}

func TestAttachmentHandler_Upload(t *testing.T) {
	store := &MockAttachmentStore{}
	store.On("Upload", mock.Anything,
		mock.MatchedBy(func(key string) bool { return strings.HasPrefix(key, "attachments/u1/") && strings.HasSuffix(key, ".pdf") }),
		"biodata.pdf", mock.Anything, mock.Anything, int64(5),
	).Return(&storage.UploadResult{Key: "chat/attachments/u1/x.pdf", URL: "https://cdn.example/x.pdf", Name: "biodata.pdf", Size: 5}, nil)

	w, body := serveUpload(NewAttachmentHandler(store, 1), uploadRequest(t, "biodata.pdf", []byte("%PDF-")))
	require.Equal(t, http.StatusOK, w.Code)

	var result storage.UploadResult
	require.NoError(t, json.Unmarshal(body.Data, &result))
	assert.Equal(t, "https://cdn.example/x.pdf", result.URL)
	store.AssertExpectations(t)
}

func TestAttachmentHandler_TooLarge(t *testing.T) {
	store := &MockAttachmentStore{}
	big := bytes.Repeat([]byte("a"), 1024*1024+1)

	w, body := serveUpload(NewAttachmentHandler(store, 1), uploadRequest(t, "photo.jpg", big))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
	store.AssertNotCalled(t, "Upload")
}

func TestAttachmentHandler_MissingFile(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/chat/attachments", nil)
	w, _ := serveUpload(NewAttachmentHandler(&MockAttachmentStore{}, 1), req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAttachmentHandler_StorageFailures(t *testing.T) {
	w, body := serveUpload(NewAttachmentHandler(nil, 1), uploadRequest(t, "a.png", []byte("png")))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "STORE_UNAVAILABLE", body.Error.Code)

	store := &MockAttachmentStore{}
	store.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("bucket gone"))
	w, body = serveUpload(NewAttachmentHandler(store, 1), uploadRequest(t, "a.png", []byte("png")))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Empty(t, body.Error.Details)
}

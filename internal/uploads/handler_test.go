package uploads

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"picture-analysis/internal/pictures"
)

func newRouter(t *testing.T) (*gin.Engine, *Handler) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := pictures.NewService(pictures.NewMemoryRepo(), nil)
	h := NewHandler(svc, t.TempDir())
	h.NewID = func() string { return "gen-1" }
	r := gin.New()
	h.RegisterRoutes(r.Group("/api/v1"))
	return r, h
}

func multipartBody(t *testing.T, filename string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, w.FormDataContentType()
}

func post(r *gin.Engine, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestUploadStoresAndRegisters(t *testing.T) {
	r, h := newRouter(t)
	body, ct := multipartBody(t, "frame.png", []byte("png-bytes"), map[string]string{"groupId": "g1", "snapId": "s1"})

	resp := post(r, body, ct)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d %s", resp.Code, resp.Body.String())
	}
	var pic pictures.Picture
	if err := json.Unmarshal(resp.Body.Bytes(), &pic); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := filepath.Join(h.Dir, "gen-1-frame.png")
	if pic.ID != "gen-1" || pic.URI != want || pic.GroupID != "g1" || pic.SnapID != "s1" || pic.Source != pictures.SourceImport {
		t.Fatalf("unexpected picture %+v", pic)
	}
	if data, err := os.ReadFile(want); err != nil || string(data) != "png-bytes" {
		t.Fatalf("stored file mismatch: %q %v", data, err)
	}
}

func TestUploadRejectsUnknownExtension(t *testing.T) {
	r, _ := newRouter(t)
	body, ct := multipartBody(t, "notes.pdf", []byte("%PDF"), nil)

	if resp := post(r, body, ct); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestUploadRequiresFile(t *testing.T) {
	r, _ := newRouter(t)
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	_ = w.WriteField("id", "x")
	_ = w.Close()

	if resp := post(r, body, w.FormDataContentType()); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestUploadDuplicateIDConflicts(t *testing.T) {
	r, h := newRouter(t)
	fields := map[string]string{"id": "pic-1"}

	body, ct := multipartBody(t, "a.png", []byte("one"), fields)
	if resp := post(r, body, ct); resp.Code != http.StatusCreated {
		t.Fatalf("first upload: %d", resp.Code)
	}
	body, ct = multipartBody(t, "b.png", []byte("two"), fields)
	if resp := post(r, body, ct); resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.Code)
	}
	if _, err := os.Stat(filepath.Join(h.Dir, "pic-1-b.png")); !os.IsNotExist(err) {
		t.Fatalf("rejected upload should be removed, stat err=%v", err)
	}
}

func TestUploadTooLarge(t *testing.T) {
	r, h := newRouter(t)
	h.MaxBytes = 4
	body, ct := multipartBody(t, "big.png", []byte("0123456789"), nil)

	if resp := post(r, body, ct); resp.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", resp.Code)
	}
}

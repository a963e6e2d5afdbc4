package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"bezirk_scanner/internal/extraction"
	"bezirk_scanner/internal/scan/service"
	"bezirk_scanner/internal/scan/transport"
	"bezirk_scanner/internal/session"
	"bezirk_scanner/platform/httpkit"
	"bezirk_scanner/platform/validator"

	"github.com/gin-gonic/gin"
)

type stubExtractor struct {
	result extraction.Extraction
	err    error
	calls  int
}

func (s *stubExtractor) Available() bool { return true }

func (s *stubExtractor) Extract(ctx context.Context, img extraction.Image) (extraction.Extraction, error) {
	s.calls++
	return s.result, s.err
}

const jpegDataURL = "data:image/jpeg;base64,/9j/4A=="

func newTestRouter(ext extraction.Extractor) *gin.Engine {
	gin.SetMode(gin.TestMode)

	svc := service.New(service.Deps{
		Sessions:  session.NewStore(time.Hour),
		Extractor: ext,
		Provider:  "stub",
		Config:    service.Config{MaxImageSize: 1 << 20, MaxTableSize: 1 << 10},
	})
	h := New(svc, validator.New(), 1<<20, 1<<10)

	r := gin.New()
	v1 := r.Group("/api/v1")
	v1.GET("/status", h.Status)
	v1.POST("/resolve", h.Resolve)
	v1.POST("/sessions", h.CreateSession)
	v1.GET("/sessions/:id", h.GetSession)
	v1.DELETE("/sessions/:id", h.DeleteSession)
	v1.POST("/sessions/:id/camera", h.OpenCamera)
	v1.POST("/sessions/:id/scan", h.Scan)
	v1.POST("/sessions/:id/lookup-table", h.ImportTable)
	v1.DELETE("/sessions/:id/lookup-table", h.ClearTable)
	return r
}

func do(r *gin.Engine, method, path, contentType string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func createSession(t *testing.T, r *gin.Engine) string {
	t.Helper()
	rec := do(r, http.MethodPost, "/api/v1/sessions", "", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var resp transport.SessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if resp.State != "IDLE" {
		t.Fatalf("expected IDLE, got %q", resp.State)
	}
	return resp.ID
}

func multipartBody(t *testing.T, field, filename, contentType string, data []byte, fields map[string]string) (string, []byte) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return w.FormDataContentType(), buf.Bytes()
}

func TestScanJSONDataURL(t *testing.T) {
	ext := &stubExtractor{result: extraction.Extraction{Street: "Gereonstr.", Number: "2b"}}
	r := newTestRouter(ext)
	id := createSession(t, r)

	body, _ := json.Marshal(map[string]string{"image": jpegDataURL})
	rec := do(r, http.MethodPost, "/api/v1/sessions/"+id+"/scan", "application/json", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp transport.ScanResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Result.Name != "Gereonstraße" || resp.Result.District != "Bezirk 1" {
		t.Fatalf("unexpected result %+v", resp.Result)
	}
	if resp.Speech == nil || resp.Speech.Text != "Bezirk 1" || resp.Speech.Lang != "de-DE" {
		t.Fatalf("unexpected speech %+v", resp.Speech)
	}
	if resp.ArchiveKey != "" || resp.ArchiveURL != "" {
		t.Fatalf("expected no archive without storage, got %q %q", resp.ArchiveKey, resp.ArchiveURL)
	}

	rec = do(r, http.MethodGet, "/api/v1/sessions/"+id, "", nil)
	var st transport.SessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.State != "RESULT" || st.LastResult == nil {
		t.Fatalf("expected RESULT with last result, got %+v", st)
	}
}

func TestScanMultipartDetectsType(t *testing.T) {
	ext := &stubExtractor{result: extraction.Extraction{Street: "Hauptstraße", Number: "1"}}
	r := newTestRouter(ext)
	id := createSession(t, r)

	ct, body := multipartBody(t, "image", "sign.jpg", "application/octet-stream", []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10}, nil)
	rec := do(r, http.MethodPost, "/api/v1/sessions/"+id+"/scan", ct, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp transport.ScanResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Result.District != "Unbekannter Bezirk" {
		t.Fatalf("expected table miss, got %+v", resp.Result)
	}
}

func TestScanErrors(t *testing.T) {
	tests := []struct {
		name       string
		ext        *stubExtractor
		body       func(t *testing.T) (string, []byte)
		wantStatus int
		wantCode   string
	}{
		{
			name: "no sign",
			ext:  &stubExtractor{result: extraction.Extraction{Street: extraction.Unknown}},
			body: func(t *testing.T) (string, []byte) {
				b, _ := json.Marshal(map[string]string{"image": jpegDataURL})
				return "application/json", b
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   service.CodeNoSignDetected,
		},
		{
			name: "model failure",
			ext:  &stubExtractor{err: &extraction.ExtractionError{Err: context.DeadlineExceeded}},
			body: func(t *testing.T) (string, []byte) {
				b, _ := json.Marshal(map[string]string{"image": jpegDataURL})
				return "application/json", b
			},
			wantStatus: http.StatusBadGateway,
			wantCode:   service.CodeExtractionFailed,
		},
		{
			name: "missing image",
			ext:  &stubExtractor{},
			body: func(t *testing.T) (string, []byte) {
				return "application/json", []byte(`{}`)
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   service.CodeInvalidImage,
		},
		{
			name: "bad data url",
			ext:  &stubExtractor{},
			body: func(t *testing.T) (string, []byte) {
				return "application/json", []byte(`{"image":"data:image/jpeg;base64,***"}`)
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   service.CodeInvalidImage,
		},
		{
			name: "unsupported upload",
			ext:  &stubExtractor{},
			body: func(t *testing.T) (string, []byte) {
				return multipartBody(t, "image", "sign.gif", "image/gif", []byte("GIF89a"), nil)
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   service.CodeInvalidImage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(tt.ext)
			id := createSession(t, r)
			ct, body := tt.body(t)

			rec := do(r, http.MethodPost, "/api/v1/sessions/"+id+"/scan", ct, body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			var resp httpkit.ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Code != tt.wantCode {
				t.Fatalf("expected code %q, got %q", tt.wantCode, resp.Code)
			}
		})
	}
}

func TestScanUnknownSession(t *testing.T) {
	r := newTestRouter(&stubExtractor{})
	body, _ := json.Marshal(map[string]string{"image": jpegDataURL})

	rec := do(r, http.MethodPost, "/api/v1/sessions/missing/scan", "application/json", body)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestImportTableThenScan(t *testing.T) {
	ext := &stubExtractor{result: extraction.Extraction{Street: "Hauptstraße", Number: "12"}}
	r := newTestRouter(ext)
	id := createSession(t, r)

	table := []byte("Straße;Bezirk\nHauptstraße;Bezirk Nord\n")
	ct, body := multipartBody(t, "file", "bezirke.csv", "text/csv", table, map[string]string{"skipHeader": "true"})
	rec := do(r, http.MethodPost, "/api/v1/sessions/"+id+"/lookup-table", ct, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var imported transport.ImportTableResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &imported); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if imported.Entries != 1 || imported.Message != "1 Straßen erfolgreich geladen." {
		t.Fatalf("unexpected import response %+v", imported)
	}

	scanBody, _ := json.Marshal(map[string]string{"image": jpegDataURL})
	rec = do(r, http.MethodPost, "/api/v1/sessions/"+id+"/scan", "application/json", scanBody)
	var resp transport.ScanResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Result.District != "Bezirk Nord" || resp.Result.Source != "table" {
		t.Fatalf("expected table hit, got %+v", resp.Result)
	}

	rec = do(r, http.MethodDelete, "/api/v1/sessions/"+id+"/lookup-table", "", nil)
	var st transport.SessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.TableSize != 0 {
		t.Fatalf("expected cleared table, got %d entries", st.TableSize)
	}
}

func TestImportTableRejects(t *testing.T) {
	r := newTestRouter(&stubExtractor{})
	id := createSession(t, r)

	tests := []struct {
		name string
		ct   string
		body []byte
	}{
		{"no file", "application/json", []byte(`{}`)},
		{"wrong type", "", nil},
		{"too large", "", nil},
	}
	tests[1].ct, tests[1].body = multipartBody(t, "file", "table.png", "image/png", []byte("x"), nil)
	tests[2].ct, tests[2].body = multipartBody(t, "file", "table.csv", "text/csv", []byte(strings.Repeat("a;b\n", 400)), nil)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(r, http.MethodPost, "/api/v1/sessions/"+id+"/lookup-table", tt.ct, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestResolveValidation(t *testing.T) {
	r := newTestRouter(&stubExtractor{})

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantDist   string
	}{
		{"rule hit", `{"street":"Gereonstr.","number":"3"}`, http.StatusOK, "Bezirk 1"},
		{"blank street", `{"street":"   ","number":"3"}`, http.StatusBadRequest, ""},
		{"bad session id", `{"street":"Hauptstr.","sessionId":"nope"}`, http.StatusBadRequest, ""},
		{"unknown session", `{"street":"Hauptstr.","sessionId":"6f1c7b5e-8b7a-4a0e-9d55-2f8c1f3e9a10"}`, http.StatusNotFound, ""},
		{"malformed", `{`, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(r, http.MethodPost, "/api/v1/resolve", "application/json", []byte(tt.body))
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantDist == "" {
				return
			}
			var resp transport.ResultResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.District != tt.wantDist {
				t.Fatalf("expected %q, got %q", tt.wantDist, resp.District)
			}
		})
	}
}

func TestSessionLifecycle(t *testing.T) {
	r := newTestRouter(&stubExtractor{})
	id := createSession(t, r)

	rec := do(r, http.MethodPost, "/api/v1/sessions/"+id+"/camera", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rec = do(r, http.MethodPost, "/api/v1/sessions/"+id+"/camera", "", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for second open, got %d", rec.Code)
	}

	rec = do(r, http.MethodDelete, "/api/v1/sessions/"+id, "", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	rec = do(r, http.MethodGet, "/api/v1/sessions/"+id, "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestStatus(t *testing.T) {
	r := newTestRouter(&stubExtractor{})
	rec := do(r, http.MethodGet, "/api/v1/status", "", nil)

	var resp transport.APIStatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.APIKeyConfigured || resp.Provider != "stub" {
		t.Fatalf("unexpected status %+v", resp)
	}
}

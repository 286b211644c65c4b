package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/cloudfm/cloudfm/internal/config"
	"github.com/cloudfm/cloudfm/internal/constants"
	"github.com/cloudfm/cloudfm/internal/models"
	"github.com/cloudfm/cloudfm/internal/progress"
)

func testConfig(baseURL string) *config.Config {
	cfg := config.NewConfig()
	cfg.APIBaseURL = baseURL
	return cfg
}

func newTestClient(t *testing.T, handler http.Handler, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(testConfig(srv.URL), nil, opts...)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

// TestNewClientRejectsEmptyBaseURL verifies that NewClient fails with a clear error
// when APIBaseURL is empty, instead of creating a broken client that produces
// "unsupported protocol scheme" errors on every request.
func TestNewClientRejectsEmptyBaseURL(t *testing.T) {
	_, err := NewClient(testConfig("  "), nil)
	if err == nil {
		t.Fatal("NewClient() should return error for empty APIBaseURL")
	}
	if !errors.Is(err, ErrEmptyBaseURL) {
		t.Errorf("NewClient() error = %v, want ErrEmptyBaseURL", err)
	}
	if !strings.Contains(err.Error(), "API base URL is empty") {
		t.Errorf("NewClient() error = %q, want error containing 'API base URL is empty'", err.Error())
	}
}

// TestNewClientAcceptsValidBaseURL verifies NewClient works with a valid config.
func TestNewClientAcceptsValidBaseURL(t *testing.T) {
	client, err := NewClient(testConfig("http://localhost:5000/"), nil)
	if err != nil {
		t.Fatalf("NewClient() error = %v, want nil", err)
	}
	if got := client.BaseURL(); got != "http://localhost:5000" {
		t.Errorf("BaseURL() = %q, want trailing slash trimmed", got)
	}
}

func TestURLs(t *testing.T) {
	client, err := NewClient(testConfig("http://backend.test"), nil)
	if err != nil {
		t.Fatal(err)
	}

	if got, want := client.LoginURL(models.ProviderGoogle), "http://backend.test/login/google"; got != want {
		t.Errorf("LoginURL() = %q, want %q", got, want)
	}
	if got, want := client.DownloadURL(models.ProviderOneDrive, "a/b c"), "http://backend.test/download/onedrive/a%2Fb%20c"; got != want {
		t.Errorf("DownloadURL() = %q, want %q", got, want)
	}
}

func TestListFilesEnvelopes(t *testing.T) {
	tests := []struct {
		name     string
		provider models.Provider
		body     string
		want     []models.FileEntry
	}{
		{
			name:     "google files",
			provider: models.ProviderGoogle,
			body:     `{"files":[{"id":"1","name":"a.txt"},{"id":"2","name":"b.txt"}]}`,
			want:     []models.FileEntry{{ID: "1", Name: "a.txt"}, {ID: "2", Name: "b.txt"}},
		},
		{
			name:     "onedrive value",
			provider: models.ProviderOneDrive,
			body:     `{"value":[{"id":"x","name":"x.docx","size":10}]}`,
			want:     []models.FileEntry{{ID: "x", Name: "x.docx"}},
		},
		{
			name:     "onedrive empty",
			provider: models.ProviderOneDrive,
			body:     `{"value":[]}`,
			want:     []models.FileEntry{},
		},
		{
			name:     "google reads only its own key",
			provider: models.ProviderGoogle,
			body:     `{"value":[{"id":"1","name":"a.txt"}]}`,
			want:     []models.FileEntry{},
		},
		{
			name:     "malformed",
			provider: models.ProviderGoogle,
			body:     `not json`,
			want:     []models.FileEntry{},
		},
		{
			name:     "empty body",
			provider: models.ProviderOneDrive,
			body:     ``,
			want:     []models.FileEntry{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/files/"+tt.provider.String() {
					t.Errorf("path = %s", r.URL.Path)
				}
				io.WriteString(w, tt.body)
			}))

			got, err := client.ListFiles(context.Background(), tt.provider)
			if err != nil {
				t.Fatalf("ListFiles() error = %v", err)
			}
			if got == nil {
				t.Fatal("ListFiles() returned nil slice")
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ListFiles() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("entry %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestListFilesBackendError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":"not logged in"}`)
	}))

	_, err := client.ListFiles(context.Background(), models.ProviderGoogle)
	var be *BackendError
	if !errors.As(err, &be) {
		t.Fatalf("error = %v, want *BackendError", err)
	}
	if be.StatusCode != http.StatusUnauthorized || be.Message != "not logged in" {
		t.Errorf("BackendError = %+v", be)
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client, err := NewClient(testConfig(url), nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = client.ListFiles(context.Background(), models.ProviderGoogle)
	if !IsNetworkError(err) {
		t.Fatalf("error = %v, want NetworkError", err)
	}
	if got := UserMessage(err, ""); got != constants.MsgUnknownError {
		t.Errorf("UserMessage() = %q, want fallback", got)
	}
}

func TestFetchUser(t *testing.T) {
	tests := []struct {
		name string
		body string
		want *models.UserIdentity
	}{
		{"display name", `{"user":{"displayName":"Ada","email":"ada@example.com"}}`, &models.UserIdentity{DisplayName: "Ada", Email: "ada@example.com"}},
		{"name fallback", `{"user":{"name":"Bob","email":"bob@example.com"}}`, &models.UserIdentity{DisplayName: "Bob", Email: "bob@example.com"}},
		{"email fallback", `{"user":{"email":"eve@example.com"}}`, &models.UserIdentity{DisplayName: "eve@example.com", Email: "eve@example.com"}},
		{"unnamed user", `{"user":{"id":"42"}}`, &models.UserIdentity{}},
		{"null user", `{"user":null}`, nil},
		{"missing key", `{}`, nil},
		{"malformed", `{"user":`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, tt.body)
			}))

			got, err := client.FetchUser(context.Background(), models.ProviderOneDrive)
			if err != nil {
				t.Fatalf("FetchUser() error = %v", err)
			}
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("FetchUser() = %+v, want nil", got)
			case tt.want != nil && (got == nil || *got != *tt.want):
				t.Errorf("FetchUser() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFetchUserRejectsOversizedBody(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"user":{"displayName":"Ada","bio":"`+strings.Repeat("x", constants.MaxUserBodyBytes)+`"}}`)
	}))

	got, err := client.FetchUser(context.Background(), models.ProviderGoogle)
	if err == nil {
		t.Fatalf("FetchUser() = %+v, want an error for an oversized body", got)
	}
	if got != nil {
		t.Errorf("FetchUser() identity = %+v, want nil", got)
	}
}

func TestRequestIDHeader(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Header.Get(constants.RequestIDHeader))
		mu.Unlock()
		io.WriteString(w, `{}`)
	}))

	client.ListFiles(context.Background(), models.ProviderGoogle)
	client.ListFiles(context.Background(), models.ProviderGoogle)

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 || seen[0] == "" || seen[0] == seen[1] {
		t.Errorf("request ids = %v, want two distinct values", seen)
	}
}

func TestDeleteAndLogout(t *testing.T) {
	var (
		mu    sync.Mutex
		calls []string
	)
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls = append(calls, r.Method+" "+r.URL.EscapedPath())
		mu.Unlock()
		io.WriteString(w, `{"message":"ok"}`)
	}))

	if err := client.Delete(context.Background(), models.ProviderGoogle, "id 1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := client.Logout(context.Background(), models.ProviderOneDrive); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}

	want := []string{"DELETE /delete/google/id%201", "GET /logout/onedrive"}
	mu.Lock()
	defer mu.Unlock()
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, calls[i], want[i])
		}
	}
}

func TestUnknownProvider(t *testing.T) {
	client, err := NewClient(testConfig("http://backend.test"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := client.ListFiles(context.Background(), "dropbox"); !errors.Is(err, models.ErrUnknownProvider) {
		t.Errorf("ListFiles() error = %v, want ErrUnknownProvider", err)
	}
	if err := client.Logout(context.Background(), "dropbox"); !errors.Is(err, models.ErrUnknownProvider) {
		t.Errorf("Logout() error = %v, want ErrUnknownProvider", err)
	}
}

func writeTemp(t *testing.T, name, content string) models.SelectedFile {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return models.NewSelectedFile(path, int64(len(content)))
}

type countingReporter struct {
	started, finished bool
	err               error
	last              int64
}

func (r *countingReporter) Start(total int64, description string) { r.started = true }
func (r *countingReporter) Update(current int64)                  { r.last = current }
func (r *countingReporter) Finish()                               { r.finished = true }
func (r *countingReporter) Error(err error)                       { r.err = err }

type uploadSeen struct {
	name     string
	content  string
	length   int64
	encoding []string
}

func TestUploadMultipart(t *testing.T) {
	seen := make(chan uploadSeen, 1)
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/upload/google" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		got := uploadSeen{length: r.ContentLength, encoding: r.TransferEncoding}
		defer func() { seen <- got }()

		mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mediaType != "multipart/form-data" {
			t.Errorf("Content-Type = %q", r.Header.Get("Content-Type"))
			return
		}
		mr := multipart.NewReader(r.Body, params["boundary"])
		part, err := mr.NextPart()
		if err != nil {
			t.Errorf("NextPart() error = %v", err)
			return
		}
		if part.FormName() != constants.UploadFormField {
			t.Errorf("form field = %q, want %q", part.FormName(), constants.UploadFormField)
		}
		got.name = part.FileName()
		data, _ := io.ReadAll(part)
		got.content = string(data)
		if _, err := mr.NextPart(); err != io.EOF {
			t.Errorf("expected a single part, got err = %v", err)
		}
		io.WriteString(w, `{"message":"uploaded"}`)
	}))
	rep := &countingReporter{}
	client.reporter = func(string) progress.Reporter { return rep }

	file := writeTemp(t, "report.txt", "hello cloud")
	if err := client.Upload(context.Background(), models.ProviderGoogle, file); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	got := <-seen
	if got.name != "report.txt" || got.content != "hello cloud" {
		t.Errorf("uploaded %q = %q", got.name, got.content)
	}
	if got.length <= int64(len("hello cloud")) {
		t.Errorf("ContentLength = %d, want full multipart length", got.length)
	}
	if len(got.encoding) != 0 {
		t.Errorf("TransferEncoding = %v, want none", got.encoding)
	}
	if !rep.started || !rep.finished || rep.last != int64(len("hello cloud")) {
		t.Errorf("reporter = %+v", rep)
	}
}

func TestUploadBackendErrorMessage(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		io.Copy(io.Discard, r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error":"quota exceeded"}`)
	}))

	err := client.Upload(context.Background(), models.ProviderGoogle, writeTemp(t, "a.bin", "x"))
	if err == nil {
		t.Fatal("Upload() error = nil, want BackendError")
	}
	if got := UserMessage(err, ""); got != "quota exceeded" {
		t.Errorf("UserMessage() = %q, want %q", got, "quota exceeded")
	}
	if got := StatusCode(err); got != http.StatusInternalServerError {
		t.Errorf("StatusCode() = %d", got)
	}
	if hits.Load() != 1 {
		t.Errorf("backend hit %d times, want 1", hits.Load())
	}
}

func TestJSONBackendErrorNotRetriedByDefault(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		io.WriteString(w, `{"message":"maintenance"}`)
	}))

	err := client.Logout(context.Background(), models.ProviderGoogle)
	if got := UserMessage(err, ""); got != "maintenance" {
		t.Errorf("UserMessage() = %q, want %q", got, "maintenance")
	}
	if hits.Load() != 1 {
		t.Errorf("backend hit %d times, want 1", hits.Load())
	}
}

func TestUploadMissingFile(t *testing.T) {
	client, err := NewClient(testConfig("http://backend.test"), nil)
	if err != nil {
		t.Fatal(err)
	}
	missing := models.NewSelectedFile(filepath.Join(t.TempDir(), "gone.txt"), 0)
	if err := client.Upload(context.Background(), models.ProviderGoogle, missing); err == nil {
		t.Error("Upload() error = nil for missing file")
	}
}

func TestDownload(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/download/onedrive/42" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Disposition", `attachment; filename="notes.txt"`)
		io.WriteString(w, "file body")
	}))

	var buf bytes.Buffer
	name, err := client.Download(context.Background(), models.ProviderOneDrive, "42", &buf)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if name != "notes.txt" || buf.String() != "file body" {
		t.Errorf("Download() = %q, %q", name, buf.String())
	}
}

func TestDownloadToDir(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "no header")
	}))
	dir := t.TempDir()

	dest, err := client.DownloadToDir(context.Background(), models.ProviderGoogle, "1", dir)
	if err != nil {
		t.Fatalf("DownloadToDir() error = %v", err)
	}
	if dest != filepath.Join(dir, constants.DefaultDownloadName) {
		t.Errorf("dest = %q", dest)
	}
	data, err := os.ReadFile(dest)
	if err != nil || string(data) != "no header" {
		t.Errorf("content = %q, err = %v", data, err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("dir has %d entries, want temp file cleaned up", len(entries))
	}
}

func TestFilenameFromDisposition(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", constants.DefaultDownloadName},
		{`attachment; filename="report.pdf"`, "report.pdf"},
		{`attachment; filename=plain.txt`, "plain.txt"},
		{`attachment; filename="../../etc/passwd"`, "passwd"},
		{`attachment; filename="..\\evil.exe"`, "evil.exe"},
		{`attachment`, constants.DefaultDownloadName},
		{`;;;`, constants.DefaultDownloadName},
	}
	for _, tt := range tests {
		if got := FilenameFromDisposition(tt.header); got != tt.want {
			t.Errorf("FilenameFromDisposition(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

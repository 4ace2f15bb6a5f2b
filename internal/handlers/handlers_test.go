package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lehigh-university-libraries/mviewer/internal/config"
	"github.com/lehigh-university-libraries/mviewer/internal/montage"
	"github.com/lehigh-university-libraries/mviewer/internal/record"
	"github.com/lehigh-university-libraries/mviewer/internal/session"
)

type stubToolkit struct{}

func (stubToolkit) Inspect(ctx context.Context, path string) (*record.Record, error) {
	return record.Parse(`[struct stat="OK", naxis1=400, naxis2=400]`)
}
func (stubToolkit) Cutout(ctx context.Context, in, out string, x, y, w, h int) (*record.Record, error) {
	return record.Parse(`[struct stat="OK"]`)
}
func (stubToolkit) Resample(ctx context.Context, in, out string, factor float64) (*record.Record, error) {
	return record.Parse(`[struct stat="OK"]`)
}
func (stubToolkit) Compose(ctx context.Context, req montage.ComposeRequest) (*record.Record, error) {
	if err := os.WriteFile(req.Output, []byte("png"), 0o644); err != nil {
		return nil, err
	}
	return record.Parse(`[struct stat="OK", width=1000, height=1000, min=0, max=1]`)
}
func (stubToolkit) Sample(ctx context.Context, path string, x, y float64, radius int) (*record.Record, error) {
	return record.Parse(`[struct stat="OK", fluxref=1.5]`)
}
func (stubToolkit) Header(ctx context.Context, path, out string) (*record.Record, error) {
	return record.Parse(`[struct stat="OK"]`)
}

func newTestServer(t *testing.T) (*Handler, *httptest.Server) {
	t.Helper()
	cfg := config.Default()
	cfg.WorkspaceRoot = t.TempDir()
	cfg.StaticDir = t.TempDir()
	if err := os.WriteFile(filepath.Join(cfg.StaticDir, "index.html"), []byte("<html>viewer</html>"), 0o644); err != nil {
		t.Fatalf("Failed to write index: %v", err)
	}

	h := New(cfg, stubToolkit{}, nil)
	srv := httptest.NewServer(h.Router())
	t.Cleanup(func() {
		srv.Close()
		h.Shutdown()
	})
	return h, srv
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func post(t *testing.T, url, body string) (int, string) {
	t.Helper()
	resp, err := http.Post(url, "text/plain", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(data)
}

func TestHealthcheckAndStatic(t *testing.T) {
	_, srv := newTestServer(t)

	tests := []struct {
		path     string
		code     int
		contains string
	}{
		{"/healthcheck", http.StatusOK, "OK"},
		{"/", http.StatusOK, "viewer"},
		{"/missing.js", http.StatusNotFound, ""},
		{"/metrics", http.StatusOK, "mviewer_active_sessions"},
		{"/api/sessions/nope", http.StatusNotFound, "Session not found"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			code, body := get(t, srv.URL+tt.path)
			if code != tt.code {
				t.Errorf("Expected status %d, got %d", tt.code, code)
			}
			if !strings.Contains(body, tt.contains) {
				t.Errorf("Expected body to contain %q, got %q", tt.contains, body)
			}
		})
	}
}

func TestWebsocketSession(t *testing.T) {
	h, srv := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	read := func() string {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		return string(msg)
	}
	send := func(line string) {
		t.Helper()
		if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}

	if msg := read(); msg != Greeting {
		t.Fatalf("Expected greeting, got %q", msg)
	}

	send("update")
	send("setGrayFile /data/m51.fits")
	send("update")
	send("bogus")
	expected := []string{session.NoImagesMessage, "updateDisplay", "image viewer.png"}
	for _, want := range expected {
		if got := read(); got != want {
			t.Errorf("Expected %q, got %q", want, got)
		}
	}
	if got := read(); !strings.HasPrefix(got, "ERROR: invalid command") {
		t.Errorf("Expected invalid command error, got %q", got)
	}

	sessions := h.sessionStore.GetAll()
	if len(sessions) != 1 {
		t.Fatalf("Expected 1 session, got %d", len(sessions))
	}
	id := sessions[0].ID()

	code, body := get(t, srv.URL+"/api/sessions/"+id)
	if code != http.StatusOK || !strings.Contains(body, `"gray_file"`) {
		t.Errorf("Expected view JSON, got %d %s", code, body)
	}
	if code, body := get(t, srv.URL+"/api/sessions/"+id+"/files/viewer.png"); code != http.StatusOK || body != "png" {
		t.Errorf("Expected rendered image, got %d %q", code, body)
	}

	send("close")
	if msg := read(); msg != "Session "+id+" closing." {
		t.Errorf("Expected closing message, got %q", msg)
	}

	deadline := time.Now().Add(5 * time.Second)
	for h.sessionStore.Len() > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if h.sessionStore.Len() != 0 {
		t.Error("Expected session removed after close")
	}
}

func TestRESTSession(t *testing.T) {
	h, srv := newTestServer(t)

	code, body := post(t, srv.URL+"/api/sessions", "")
	if code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d %s", code, body)
	}
	var summary session.Summary
	if err := json.Unmarshal([]byte(body), &summary); err != nil {
		t.Fatalf("Expected summary JSON: %v", err)
	}
	base := srv.URL + "/api/sessions/" + summary.ID

	var resp CommandResponse
	code, body = post(t, base+"/commands", "setGrayFile /data/m51.fits")
	if err := json.Unmarshal([]byte(body), &resp); err != nil || code != http.StatusOK {
		t.Fatalf("Expected command response, got %d %s", code, body)
	}
	if len(resp.Replies) != 1 || resp.Replies[0] != "updateDisplay" {
		t.Errorf("Expected updateDisplay, got %v", resp.Replies)
	}

	req, _ := http.NewRequest(http.MethodPut, base, strings.NewReader(`{"xmin": "wide"}`))
	putResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT failed: %v", err)
	}
	data, _ := io.ReadAll(putResp.Body)
	putResp.Body.Close()
	resp = CommandResponse{}
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("Expected command response: %v", err)
	}
	if len(resp.Replies) != 1 || !strings.Contains(resp.Replies[0], "schema mismatch") {
		t.Errorf("Expected schema mismatch reply, got %v", resp.Replies)
	}

	code, body = get(t, base+"/display")
	if code != http.StatusOK || !strings.Contains(body, "/data/m51.fits") {
		t.Errorf("Expected display form with the gray file, got %d %s", code, body)
	}

	code, body = get(t, srv.URL+"/api/sessions")
	if code != http.StatusOK || !strings.Contains(body, summary.ID) {
		t.Errorf("Expected listing to include %s, got %s", summary.ID, body)
	}

	req, _ = http.NewRequest(http.MethodDelete, base, nil)
	delResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE failed: %v", err)
	}
	delResp.Body.Close()
	if delResp.StatusCode != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", delResp.StatusCode)
	}
	if _, ok := h.sessionStore.Get(summary.ID); ok {
		t.Error("Expected session removed after delete")
	}
}

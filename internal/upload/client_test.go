package upload

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/zhengcoach/zhengcoach/internal/capture"
	"github.com/zhengcoach/zhengcoach/internal/report"
)

func writeAsset(t *testing.T, name string) *capture.MediaAsset {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("media bytes"), 0644); err != nil {
		t.Fatalf("Failed to write asset: %v", err)
	}

	kind := capture.KindAudio
	if filepath.Ext(name) == ".mp4" {
		kind = capture.KindVideo
	}

	return &capture.MediaAsset{Kind: kind, Path: path, Duration: 12.5}
}

func successEnvelope(t *testing.T) []byte {
	t.Helper()

	body, err := json.Marshal(ResponseEnvelope{
		Success: true,
		Data: &report.RawAnalysisResult{
			OverallScore:  78,
			PitchAccuracy: report.Score(85),
		},
	})
	if err != nil {
		t.Fatalf("Failed to marshal envelope: %v", err)
	}
	return body
}

func TestAnalyzeAudio(t *testing.T) {
	var gotPath, gotSongID, gotDuration, gotContentType string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")

		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("Failed to parse multipart: %v", err)
		}
		gotSongID = r.FormValue("songId")
		gotDuration = r.FormValue("duration")

		if _, _, err := r.FormFile("audio"); err != nil {
			t.Errorf("Missing audio file part: %v", err)
		}

		w.Write(successEnvelope(t))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	asset := writeAsset(t, "take.mp3")

	raw, err := client.AnalyzeAudio(context.Background(), asset, Metadata{SongID: "song-7", Duration: 12.5})
	if err != nil {
		t.Fatalf("AnalyzeAudio failed: %v", err)
	}

	if gotPath != "/api/analyze/audio" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotSongID != "song-7" {
		t.Errorf("expected songId song-7, got %q", gotSongID)
	}
	if gotDuration != "12.5" {
		t.Errorf("expected duration 12.5, got %q", gotDuration)
	}
	if gotContentType == "" {
		t.Error("expected multipart content type header")
	}
	if raw.OverallScore != 78 {
		t.Errorf("expected overall 78, got %v", raw.OverallScore)
	}
	if raw.PitchAccuracy == nil || *raw.PitchAccuracy != 85 {
		t.Errorf("expected pitch 85, got %+v", raw.PitchAccuracy)
	}
}

func TestAnalyzeVideoPath(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write(successEnvelope(t))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.AnalyzeVideo(context.Background(), writeAsset(t, "take.mp4"), Metadata{}); err != nil {
		t.Fatalf("AnalyzeVideo failed: %v", err)
	}
	if gotPath != "/api/analyze/video" {
		t.Errorf("unexpected path %q", gotPath)
	}
}

func TestUploadCombinedPart(t *testing.T) {
	paths := map[string]string{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("Failed to parse multipart: %v", err)
		}
		paths[r.URL.Path] = r.FormValue("sessionId")
		w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)

	if err := client.UploadCombinedPart(context.Background(), writeAsset(t, "take.mp3"), "sess-1"); err != nil {
		t.Fatalf("audio part failed: %v", err)
	}
	if err := client.UploadCombinedPart(context.Background(), writeAsset(t, "take.mp4"), "sess-1"); err != nil {
		t.Fatalf("video part failed: %v", err)
	}

	if paths["/api/analyze/combined/audio"] != "sess-1" {
		t.Errorf("audio part not staged with session id: %v", paths)
	}
	if paths["/api/analyze/combined/video"] != "sess-1" {
		t.Errorf("video part not staged with session id: %v", paths)
	}
}

func TestTriggerCombinedAnalysis(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/analyze/combined/analyze" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}

		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("Failed to decode body: %v", err)
		}
		if body["sessionId"] != "sess-2" || body["songId"] != "song-3" {
			t.Errorf("unexpected body: %v", body)
		}

		w.Write(successEnvelope(t))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	raw, err := client.TriggerCombinedAnalysis(context.Background(), "sess-2", "song-3")
	if err != nil {
		t.Fatalf("TriggerCombinedAnalysis failed: %v", err)
	}
	if raw.OverallScore != 78 {
		t.Errorf("expected overall 78, got %v", raw.OverallScore)
	}
}

func TestClientErrors(t *testing.T) {
	t.Run("network failure is a transport error", func(t *testing.T) {
		client := NewClient("http://127.0.0.1:1")

		_, err := client.AnalyzeAudio(context.Background(), writeAsset(t, "take.mp3"), Metadata{})
		var transportErr *TransportError
		if !errors.As(err, &transportErr) {
			t.Errorf("expected TransportError, got %v", err)
		}
	})

	t.Run("non-2xx status is a server error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer server.Close()

		client := NewClient(server.URL)
		_, err := client.AnalyzeAudio(context.Background(), writeAsset(t, "take.mp3"), Metadata{})

		var serverErr *ServerError
		if !errors.As(err, &serverErr) {
			t.Fatalf("expected ServerError, got %v", err)
		}
		if serverErr.StatusCode != http.StatusInternalServerError {
			t.Errorf("expected status 500, got %d", serverErr.StatusCode)
		}
	})

	t.Run("success=false is a server error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success":false,"error":"分析失败"}`))
		}))
		defer server.Close()

		client := NewClient(server.URL)
		_, err := client.AnalyzeAudio(context.Background(), writeAsset(t, "take.mp3"), Metadata{})

		var serverErr *ServerError
		if !errors.As(err, &serverErr) {
			t.Fatalf("expected ServerError, got %v", err)
		}
		if serverErr.Message != "分析失败" {
			t.Errorf("expected service error message, got %q", serverErr.Message)
		}
	})

	t.Run("success without data is a server error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success":true}`))
		}))
		defer server.Close()

		client := NewClient(server.URL)

		raw, err := client.AnalyzeAudio(context.Background(), writeAsset(t, "take.mp3"), Metadata{})
		var serverErr *ServerError
		if !errors.As(err, &serverErr) {
			t.Fatalf("expected ServerError for data-less success, got %v", err)
		}
		if raw != nil {
			t.Errorf("expected no result, got %+v", raw)
		}

		if _, err := client.TriggerCombinedAnalysis(context.Background(), "sess-1", "song-1"); !errors.As(err, &serverErr) {
			t.Errorf("expected ServerError from trigger without data, got %v", err)
		}

		// Staging parts is the one call where a bare success envelope is
		// the contract.
		if err := client.UploadCombinedPart(context.Background(), writeAsset(t, "take.mp3"), "sess-1"); err != nil {
			t.Errorf("part upload must accept a data-less success, got %v", err)
		}
	})

	t.Run("unparsable body is a server error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>not json</html>"))
		}))
		defer server.Close()

		client := NewClient(server.URL)
		_, err := client.AnalyzeAudio(context.Background(), writeAsset(t, "take.mp3"), Metadata{})

		var serverErr *ServerError
		if !errors.As(err, &serverErr) {
			t.Errorf("expected ServerError, got %v", err)
		}
	})

	t.Run("missing asset file", func(t *testing.T) {
		client := NewClient("http://example.invalid")
		asset := &capture.MediaAsset{Kind: capture.KindAudio, Path: "/does/not/exist.mp3"}

		if _, err := client.AnalyzeAudio(context.Background(), asset, Metadata{}); err == nil {
			t.Error("expected error for missing asset file")
		}
	})
}

package api

import (
	"context"
	"encoding/json"
	"log"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/zhengcoach/zhengcoach/internal/analyzer"
	"github.com/zhengcoach/zhengcoach/internal/database"
	"github.com/zhengcoach/zhengcoach/internal/models"
	"github.com/zhengcoach/zhengcoach/internal/report"
	"github.com/zhengcoach/zhengcoach/internal/storage"
)

// App wires the analysis endpoints to storage, the analyzers, and the
// practice-record repository.
type App struct {
	Storage       storage.Storage
	Records       *database.PracticeRecordRepository
	Audio         analyzer.AudioAnalyzer
	Hands         analyzer.HandAnalyzer
	MaxUploadSize int64

	combinedMu sync.Mutex
	combined   map[string]*combinedSession
}

// combinedSession stages the two independent transfers of a combined
// analysis until the analyze trigger arrives.
type combinedSession struct {
	AudioFile string
	VideoFile string
}

type envelope struct {
	Success bool                      `json:"success"`
	Data    *report.RawAnalysisResult `json:"data,omitempty"`
	Error   string                    `json:"error,omitempty"`
}

func HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "zhengcoach-analyzer",
	})
}

// AnalyzeAudioHandler accepts one audio recording and returns its analysis.
func (app *App) AnalyzeAudioHandler(w http.ResponseWriter, r *http.Request) {
	filename, meta, ok := app.receiveUpload(w, r, "audio")
	if !ok {
		return
	}
	defer app.Storage.DeleteFile(filename)

	audioResult, err := app.Audio.AnalyzeAudio(r.Context(), app.Storage.FilePath(filename), meta.songID)
	if err != nil {
		log.Printf("[API] Audio analysis failed: %v", err)
		writeFailure(w, http.StatusInternalServerError, "音频分析失败")
		return
	}

	raw := analyzer.AudioOnlyResult(audioResult)
	raw.Duration = meta.duration

	app.persistRecord("audio", meta.songID, raw)
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: raw})
}

// AnalyzeVideoHandler accepts one video recording and returns the combined
// audio-plus-hand analysis. The audio analyzer takes the uploaded file as
// is; it scores the soundtrack inside the container.
func (app *App) AnalyzeVideoHandler(w http.ResponseWriter, r *http.Request) {
	filename, meta, ok := app.receiveUpload(w, r, "video")
	if !ok {
		return
	}
	defer app.Storage.DeleteFile(filename)

	raw, err := app.analyzeVideoFile(r.Context(), app.Storage.FilePath(filename), app.Storage.FilePath(filename), meta.songID)
	if err != nil {
		log.Printf("[API] Video analysis failed: %v", err)
		writeFailure(w, http.StatusInternalServerError, "视频分析失败")
		return
	}
	raw.Duration = meta.duration

	app.persistRecord("video", meta.songID, raw)
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: raw})
}

// CombinedUploadHandler stages one asset of a combined session. The kind
// ("audio" or "video") comes from the route.
func (app *App) CombinedUploadHandler(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	if kind != "audio" && kind != "video" {
		writeFailure(w, http.StatusNotFound, "unknown asset kind")
		return
	}

	file, header, sessionID, ok := app.parseMultipart(w, r, kind)
	if !ok {
		return
	}
	defer file.Close()

	if sessionID == "" {
		writeFailure(w, http.StatusBadRequest, "sessionId is required")
		return
	}

	filename, err := app.Storage.SaveFile(file, storage.FileInfo{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
	})
	if err != nil {
		log.Printf("[API] Failed to stage combined %s: %v", kind, err)
		writeFailure(w, http.StatusInternalServerError, "failed to save upload")
		return
	}

	app.combinedMu.Lock()
	if app.combined == nil {
		app.combined = make(map[string]*combinedSession)
	}
	sess := app.combined[sessionID]
	if sess == nil {
		sess = &combinedSession{}
		app.combined[sessionID] = sess
	}
	var replaced string
	if kind == "audio" {
		replaced = sess.AudioFile
		sess.AudioFile = filename
	} else {
		replaced = sess.VideoFile
		sess.VideoFile = filename
	}
	app.combinedMu.Unlock()

	if replaced != "" {
		app.Storage.DeleteFile(replaced)
	}

	log.Printf("[API] Staged combined %s for session %s", kind, sessionID)
	writeJSON(w, http.StatusOK, envelope{Success: true})
}

// CombinedAnalyzeHandler runs the combined analysis once both assets of a
// session have been staged.
func (app *App) CombinedAnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SessionID string `json:"sessionId"`
		SongID    string `json:"songId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid request body")
		return
	}

	app.combinedMu.Lock()
	sess := app.combined[body.SessionID]
	var audioFile, videoFile string
	if sess != nil {
		audioFile, videoFile = sess.AudioFile, sess.VideoFile
	}
	app.combinedMu.Unlock()

	if sess == nil || audioFile == "" || videoFile == "" {
		writeFailure(w, http.StatusBadRequest, "session is missing staged audio or video")
		return
	}

	raw, err := app.analyzeVideoFile(r.Context(), app.Storage.FilePath(audioFile), app.Storage.FilePath(videoFile), body.SongID)

	app.combinedMu.Lock()
	delete(app.combined, body.SessionID)
	app.combinedMu.Unlock()
	app.Storage.DeleteFile(audioFile)
	app.Storage.DeleteFile(videoFile)

	if err != nil {
		log.Printf("[API] Combined analysis failed for session %s: %v", body.SessionID, err)
		writeFailure(w, http.StatusInternalServerError, "综合分析失败")
		return
	}

	app.persistRecord("combined", body.SongID, raw)
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: raw})
}

// ListReportsHandler returns the most recent practice records.
func (app *App) ListReportsHandler(w http.ResponseWriter, r *http.Request) {
	records, err := app.Records.ListRecent(20)
	if err != nil {
		log.Printf("[API] Failed to list practice records: %v", err)
		writeFailure(w, http.StatusInternalServerError, "failed to load reports")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    records,
	})
}

// GetReportHandler returns one practice record by id.
func (app *App) GetReportHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	record, err := app.Records.GetByID(id)
	if err != nil {
		writeFailure(w, http.StatusNotFound, "报告不存在")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    record,
	})
}

func (app *App) analyzeVideoFile(ctx context.Context, audioPath, videoPath, songID string) (*report.RawAnalysisResult, error) {
	audioResult, err := app.Audio.AnalyzeAudio(ctx, audioPath, songID)
	if err != nil {
		return nil, err
	}

	handResult, err := app.Hands.AnalyzeHands(ctx, videoPath)
	if err != nil {
		return nil, err
	}

	return analyzer.CombineResults(audioResult, handResult), nil
}

type uploadMeta struct {
	songID   string
	duration float64
}

// receiveUpload parses and stores a single-asset analysis upload. On failure
// it has already written the error response.
func (app *App) receiveUpload(w http.ResponseWriter, r *http.Request, kind string) (string, uploadMeta, bool) {
	file, header, _, ok := app.parseMultipart(w, r, kind)
	if !ok {
		return "", uploadMeta{}, false
	}
	defer file.Close()

	meta := uploadMeta{songID: r.FormValue("songId")}
	if v := r.FormValue("duration"); v != "" {
		if d, err := strconv.ParseFloat(v, 64); err == nil {
			meta.duration = d
		}
	}

	filename, err := app.Storage.SaveFile(file, storage.FileInfo{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
	})
	if err != nil {
		log.Printf("[API] Failed to save %s upload: %v", kind, err)
		writeFailure(w, http.StatusInternalServerError, "failed to save upload")
		return "", uploadMeta{}, false
	}

	return filename, meta, true
}

func (app *App) parseMultipart(w http.ResponseWriter, r *http.Request, field string) (multipart.File, *multipart.FileHeader, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, app.MaxUploadSize)

	if err := r.ParseMultipartForm(app.MaxUploadSize); err != nil {
		writeFailure(w, http.StatusBadRequest, "file too large")
		return nil, nil, "", false
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "missing "+field+" file")
		return nil, nil, "", false
	}

	if !allowedContentType(field, header) {
		file.Close()
		writeFailure(w, http.StatusBadRequest, "unsupported file type")
		return nil, nil, "", false
	}

	return file, header, r.FormValue("sessionId"), true
}

func allowedContentType(kind string, header *multipart.FileHeader) bool {
	contentType := header.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, kind+"/") || contentType == "application/octet-stream" || contentType == "" {
		return true
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if kind == "audio" {
		return ext == ".mp3" || ext == ".m4a" || ext == ".wav"
	}
	return ext == ".mp4" || ext == ".mov" || ext == ".webm"
}

func (app *App) persistRecord(mode, songID string, raw *report.RawAnalysisResult) {
	if app.Records == nil {
		return
	}

	resultJSON, err := json.Marshal(raw)
	if err != nil {
		log.Printf("[API] Failed to marshal analysis result: %v", err)
		return
	}

	record := models.NewPracticeRecord(mode, songID, raw.Duration, raw.OverallScore, resultJSON)
	if err := app.Records.Insert(record); err != nil {
		log.Printf("[API] Failed to persist practice record: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[API] Failed to encode response: %v", err)
	}
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Error: message})
}

package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/zhengcoach/zhengcoach/internal/capture"
	"github.com/zhengcoach/zhengcoach/internal/report"
)

// Metadata accompanies a single-asset analysis request.
type Metadata struct {
	SongID   string
	Duration float64
}

// ResponseEnvelope is the wire envelope every analysis endpoint returns.
type ResponseEnvelope struct {
	Success bool                      `json:"success"`
	Data    *report.RawAnalysisResult `json:"data,omitempty"`
	Error   string                    `json:"error,omitempty"`
}

// Client transfers local media assets to the remote analysis service and
// parses the responses. It performs no retries; retry policy belongs to the
// coordinator.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// AnalyzeAudio uploads an audio asset for standalone analysis.
func (c *Client) AnalyzeAudio(ctx context.Context, asset *capture.MediaAsset, meta Metadata) (*report.RawAnalysisResult, error) {
	fields := map[string]string{
		"songId":   meta.SongID,
		"duration": strconv.FormatFloat(meta.Duration, 'f', 1, 64),
	}
	return c.uploadAsset(ctx, "analyze audio", c.baseURL+"/api/analyze/audio", "audio", asset.Path, fields, true)
}

// AnalyzeVideo uploads a video asset for standalone analysis.
func (c *Client) AnalyzeVideo(ctx context.Context, asset *capture.MediaAsset, meta Metadata) (*report.RawAnalysisResult, error) {
	fields := map[string]string{
		"songId":   meta.SongID,
		"duration": strconv.FormatFloat(meta.Duration, 'f', 1, 64),
	}
	return c.uploadAsset(ctx, "analyze video", c.baseURL+"/api/analyze/video", "video", asset.Path, fields, true)
}

// UploadCombinedPart stages one asset of a combined session. The boundary
// does not support multi-asset transfers, so audio and video are uploaded
// as two independent requests keyed by the session identifier.
func (c *Client) UploadCombinedPart(ctx context.Context, asset *capture.MediaAsset, sessionID string) error {
	field := "audio"
	if asset.Kind == capture.KindVideo {
		field = "video"
	}

	op := fmt.Sprintf("upload combined %s", field)
	url := fmt.Sprintf("%s/api/analyze/combined/%s", c.baseURL, field)
	fields := map[string]string{"sessionId": sessionID}

	_, err := c.uploadAsset(ctx, op, url, field, asset.Path, fields, false)
	return err
}

// TriggerCombinedAnalysis asks the service to analyze a fully staged
// combined session and returns the merged result.
func (c *Client) TriggerCombinedAnalysis(ctx context.Context, sessionID, songID string) (*report.RawAnalysisResult, error) {
	const op = "trigger combined analysis"

	body, err := json.Marshal(map[string]string{
		"sessionId": sessionID,
		"songId":    songID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal analyze request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/analyze/combined/analyze", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(op, req, true)
}

func (c *Client) uploadAsset(ctx context.Context, op, url, fieldName, path string, fields map[string]string, wantData bool) (*report.RawAnalysisResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open asset %s: %w", path, err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile(fieldName, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to read asset %s: %w", path, err)
	}

	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, fmt.Errorf("failed to write form field %s: %w", key, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return c.do(op, req, wantData)
}

// do executes the request and parses the response envelope. wantData marks
// calls whose success reply must carry an analysis payload; the staging
// endpoints answer with a bare success envelope.
func (c *Client) do(op string, req *http.Request, wantData bool) (*report.RawAnalysisResult, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ServerError{Op: op, StatusCode: resp.StatusCode, Message: string(body)}
	}

	var envelope ResponseEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &ServerError{Op: op, StatusCode: resp.StatusCode, Message: fmt.Sprintf("unparsable response: %v", err)}
	}

	if !envelope.Success {
		msg := envelope.Error
		if msg == "" {
			msg = "analysis service reported failure"
		}
		return nil, &ServerError{Op: op, StatusCode: resp.StatusCode, Message: msg}
	}

	if wantData && envelope.Data == nil {
		return nil, &ServerError{Op: op, StatusCode: resp.StatusCode, Message: "success response missing data"}
	}

	return envelope.Data, nil
}

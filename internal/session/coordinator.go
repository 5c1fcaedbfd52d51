package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/zhengcoach/zhengcoach/internal/capture"
	"github.com/zhengcoach/zhengcoach/internal/report"
	"github.com/zhengcoach/zhengcoach/internal/upload"
)

// Uploader is the slice of the upload client the coordinator depends on.
type Uploader interface {
	AnalyzeAudio(ctx context.Context, asset *capture.MediaAsset, meta upload.Metadata) (*report.RawAnalysisResult, error)
	AnalyzeVideo(ctx context.Context, asset *capture.MediaAsset, meta upload.Metadata) (*report.RawAnalysisResult, error)
	UploadCombinedPart(ctx context.Context, asset *capture.MediaAsset, sessionID string) error
	TriggerCombinedAnalysis(ctx context.Context, sessionID, songID string) (*report.RawAnalysisResult, error)
}

// Config for the coordinator. Zero values fall back to sensible defaults.
type Config struct {
	AudioConfig  capture.AudioConfig
	CameraFacing capture.CameraFacing
}

// Coordinator drives one practice session from "recording requested" to
// "normalized report produced". It owns the device handles through
// MediaCapture; only one session may be active at a time.
type Coordinator struct {
	capture    *capture.MediaCapture
	uploader   Uploader
	normalizer *report.Normalizer
	compressor Compressor
	store      *ReportStore

	audioConfig capture.AudioConfig
	facing      capture.CameraFacing

	stateMu sync.Mutex
	state   State
	current *Session
}

func NewCoordinator(recorders *capture.MediaCapture, uploader Uploader, normalizer *report.Normalizer, compressor Compressor, store *ReportStore, config Config) *Coordinator {
	if normalizer == nil {
		normalizer = report.NewNormalizer(nil)
	}
	if compressor == nil {
		compressor = NoopCompressor{}
	}
	if store == nil {
		store = NewReportStore()
	}
	if config.AudioConfig == (capture.AudioConfig{}) {
		config.AudioConfig = capture.DefaultAudioConfig()
	}
	if config.CameraFacing == "" {
		config.CameraFacing = capture.CameraFront
	}

	return &Coordinator{
		capture:     recorders,
		uploader:    uploader,
		normalizer:  normalizer,
		compressor:  compressor,
		store:       store,
		audioConfig: config.AudioConfig,
		facing:      config.CameraFacing,
		state:       StateIdle,
	}
}

// State returns the coordinator's current state.
func (c *Coordinator) State() State {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.state
}

// Store exposes the report hand-off slot for the display layer.
func (c *Coordinator) Store() *ReportStore {
	return c.store
}

// StartRecording begins a session in the given mode. It fails with a device
// error when a recorder cannot be acquired and with ErrAlreadyRecording when
// a session is still in progress.
func (c *Coordinator) StartRecording(mode capture.CaptureMode, songID string) (*Session, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("unknown capture mode %q", mode)
	}

	c.stateMu.Lock()
	if c.state != StateIdle {
		c.stateMu.Unlock()
		return nil, ErrAlreadyRecording
	}
	c.state = StateRecording
	c.stateMu.Unlock()

	if mode.WantsAudio() {
		if err := c.capture.StartAudio(c.audioConfig); err != nil {
			c.setState(StateIdle)
			return nil, err
		}
	}
	if mode.WantsVideo() {
		if err := c.capture.StartVideo(c.facing); err != nil {
			if mode.WantsAudio() {
				c.capture.Cancel()
			}
			c.setState(StateIdle)
			return nil, err
		}
	}

	sess := &Session{
		ID:         uuid.New().String(),
		Mode:       mode,
		SongID:     songID,
		StartedAt:  time.Now(),
		Updates:    make(chan ProgressUpdate, 16),
		tickerStop: make(chan struct{}),
		tickerDone: make(chan struct{}),
		results:    make(chan assetResult, 2),
		done:       make(chan struct{}),
	}

	c.stateMu.Lock()
	c.current = sess
	c.stateMu.Unlock()

	log.Printf("[SESSION] Started recording session %s (mode=%s, song=%q)", sess.ID, mode, songID)

	if mode.WantsAudio() {
		go func() {
			asset, err := c.capture.WaitAudio(context.Background())
			sess.results <- assetResult{kind: capture.KindAudio, asset: asset, err: err}
		}()
	}
	if mode.WantsVideo() {
		go func() {
			asset, err := c.capture.WaitVideo(context.Background())
			sess.results <- assetResult{kind: capture.KindVideo, asset: asset, err: err}
		}()
	}

	go c.runTicker(sess)
	go c.run(sess)

	return sess, nil
}

// StopRecording stops the active recorders. Analysis triggers once every
// required asset has been delivered by its device.
func (c *Coordinator) StopRecording() error {
	c.stateMu.Lock()
	if c.state != StateRecording || c.current == nil {
		c.stateMu.Unlock()
		return ErrNotRecording
	}
	sess := c.current
	c.stateMu.Unlock()

	c.windDown(sess)
	return nil
}

// CancelRecording discards the session without producing a report. During
// recording the capture is stopped and all buffered assets are dropped.
// Once uploads are in flight the analysis is allowed to finish and its
// result is discarded.
func (c *Coordinator) CancelRecording() error {
	c.stateMu.Lock()
	state := c.state
	sess := c.current
	c.stateMu.Unlock()

	if sess == nil {
		return nil
	}

	switch state {
	case StateRecording:
		sess.setCancelled()
		c.windDown(sess)
		log.Printf("[SESSION] Cancelled session %s during recording", sess.ID)
	case StateAnalyzing:
		sess.setCancelled()
		log.Printf("[SESSION] Cancel requested for session %s during analysis; result will be discarded", sess.ID)
	}

	return nil
}

// windDown performs the one-time stop housekeeping: mark the stop, halt the
// elapsed ticker, and signal every active recorder to finalize.
func (c *Coordinator) windDown(sess *Session) {
	sess.stopOnce.Do(func() {
		sess.markStopRequested()
		close(sess.tickerStop)

		if sess.Mode.WantsAudio() {
			c.capture.StopAudio()
		}
		if sess.Mode.WantsVideo() {
			c.capture.StopVideo()
		}
	})
}

// runTicker emits one elapsed-seconds update per second until the session
// stops recording. The counter is UI feedback only.
func (c *Coordinator) runTicker(sess *Session) {
	defer close(sess.tickerDone)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	seconds := 0
	for {
		select {
		case <-ticker.C:
			seconds++
			sess.emit(ProgressUpdate{Type: UpdateTick, Seconds: seconds})
		case <-sess.tickerStop:
			return
		}
	}
}

// run collects the finalized assets, joins them mode-dependently, and drives
// the analyzing phase. Audio and video completions may arrive in either
// order; analysis triggers exactly once, on the last arrival.
func (c *Coordinator) run(sess *Session) {
	needed := 0
	if sess.Mode.WantsAudio() {
		needed++
	}
	if sess.Mode.WantsVideo() {
		needed++
	}

	var deviceErr error
	for i := 0; i < needed; i++ {
		r := <-sess.results

		// A device that finalized on its own (max duration or camera
		// timeout) is treated exactly like a manual stop.
		if !sess.stopWasRequested() {
			log.Printf("[SESSION] %s recorder finalized on its own; stopping session %s", r.kind, sess.ID)
			c.windDown(sess)
		}

		if r.err != nil {
			if deviceErr == nil {
				deviceErr = r.err
			}
			continue
		}
		sess.setAsset(r)
	}

	if sess.isCancelled() {
		c.discardAssets(sess)
		c.finish(sess, nil, ErrCancelled)
		return
	}

	if deviceErr != nil {
		log.Printf("[SESSION] Device failure in session %s: %v", sess.ID, deviceErr)
		c.discardAssets(sess)
		c.finish(sess, nil, deviceErr)
		return
	}

	c.setState(StateAnalyzing)
	log.Printf("[SESSION] Session %s entering analysis (mode=%s)", sess.ID, sess.Mode)

	raw, err := c.analyze(context.Background(), sess)

	if sess.isCancelled() {
		log.Printf("[SESSION] Session %s was cancelled; discarding analysis outcome", sess.ID)
		c.discardAssets(sess)
		c.finish(sess, nil, ErrCancelled)
		return
	}

	if err != nil {
		c.logAnalysisFailure(sess, err)
		c.discardAssets(sess)
		c.finish(sess, nil, fmt.Errorf("%w: %v", ErrAnalysisFailed, err))
		return
	}

	rep := c.normalizer.Normalize(raw)
	c.store.Put(rep)
	log.Printf("[SESSION] Session %s complete: overall %.0f (%s)", sess.ID, rep.OverallScore, rep.Level)
	c.finish(sess, rep, nil)
}

func (c *Coordinator) analyze(ctx context.Context, sess *Session) (*report.RawAnalysisResult, error) {
	audioAsset, videoAsset := sess.assets()

	switch sess.Mode {
	case capture.ModeAudioOnly:
		sess.emit(ProgressUpdate{Type: UpdateStage, Message: "正在上传音频..."})
		return c.uploader.AnalyzeAudio(ctx, audioAsset, upload.Metadata{
			SongID:   sess.SongID,
			Duration: audioAsset.Duration,
		})

	case capture.ModeVideoOnly:
		videoAsset = c.compressVideo(ctx, sess, videoAsset)
		sess.emit(ProgressUpdate{Type: UpdateStage, Message: "正在上传视频..."})
		return c.uploader.AnalyzeVideo(ctx, videoAsset, upload.Metadata{
			SongID:   sess.SongID,
			Duration: videoAsset.Duration,
		})

	case capture.ModeCombined:
		videoAsset = c.compressVideo(ctx, sess, videoAsset)

		// The boundary takes one asset per transfer, so audio and video
		// are staged concurrently under the session id. Both must land
		// before the combined analysis is triggered.
		sess.emit(ProgressUpdate{Type: UpdateStage, Message: "正在上传..."})
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return c.uploader.UploadCombinedPart(gctx, audioAsset, sess.ID)
		})
		g.Go(func() error {
			return c.uploader.UploadCombinedPart(gctx, videoAsset, sess.ID)
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}

		sess.emit(ProgressUpdate{Type: UpdateStage, Message: "正在分析演奏..."})
		return c.uploader.TriggerCombinedAnalysis(ctx, sess.ID, sess.SongID)

	default:
		return nil, fmt.Errorf("unknown capture mode %q", sess.Mode)
	}
}

// compressVideo shrinks the video before upload. Failure is non-fatal: the
// original asset is uploaded instead.
func (c *Coordinator) compressVideo(ctx context.Context, sess *Session, asset *capture.MediaAsset) *capture.MediaAsset {
	sess.emit(ProgressUpdate{Type: UpdateStage, Message: "正在压缩视频..."})

	compressedPath, err := c.compressor.Compress(ctx, asset.Path)
	if err != nil {
		log.Printf("[SESSION] Video compression failed for session %s, uploading original: %v", sess.ID, err)
		return asset
	}
	if compressedPath == asset.Path {
		return asset
	}

	compressed := *asset
	compressed.Path = compressedPath
	return &compressed
}

func (c *Coordinator) logAnalysisFailure(sess *Session, err error) {
	var transportErr *upload.TransportError
	var serverErr *upload.ServerError

	switch {
	case errors.As(err, &transportErr):
		log.Printf("[SESSION] Transport failure in session %s: %v", sess.ID, err)
	case errors.As(err, &serverErr):
		log.Printf("[SESSION] Analysis service failure in session %s: %v", sess.ID, err)
	default:
		log.Printf("[SESSION] Analysis failure in session %s: %v", sess.ID, err)
	}
}

func (c *Coordinator) discardAssets(sess *Session) {
	audioAsset, videoAsset := sess.assets()

	if audioAsset != nil {
		removeAssetFile(audioAsset.Path)
	}
	if videoAsset != nil {
		removeAssetFile(videoAsset.Path)
		removeAssetFile(videoAsset.ThumbnailPath)
	}
}

func (c *Coordinator) finish(sess *Session, rep *report.CanonicalReport, err error) {
	c.stateMu.Lock()
	c.state = StateIdle
	c.current = nil
	c.stateMu.Unlock()

	sess.finish(rep, err)
}

func (c *Coordinator) setState(state State) {
	c.stateMu.Lock()
	c.state = state
	c.stateMu.Unlock()
}

func removeAssetFile(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("[SESSION] Failed to remove discarded asset %s: %v", path, err)
	}
}

package capture

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SimulatedAudioDevice mimics a platform audio recorder for development and
// tests. It writes a placeholder file on finalize and honours the configured
// maximum duration by stopping itself.
type SimulatedAudioDevice struct {
	Dir      string
	StartErr error

	mu        sync.Mutex
	recording bool
	results   chan AudioResult
	started   time.Time
	maxTimer  *time.Timer
}

func (d *SimulatedAudioDevice) Start(config AudioConfig) (<-chan AudioResult, error) {
	if d.StartErr != nil {
		return nil, d.StartErr
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.recording {
		return nil, fmt.Errorf("audio device busy")
	}

	d.recording = true
	d.results = make(chan AudioResult, 1)
	d.started = time.Now()

	if config.MaxDuration > 0 {
		d.maxTimer = time.AfterFunc(config.MaxDuration, d.finalize)
	}

	return d.results, nil
}

func (d *SimulatedAudioDevice) Stop() error {
	d.finalize()
	return nil
}

func (d *SimulatedAudioDevice) finalize() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.recording {
		return
	}
	d.recording = false
	if d.maxTimer != nil {
		d.maxTimer.Stop()
		d.maxTimer = nil
	}

	path := filepath.Join(d.Dir, uuid.New().String()+".mp3")
	if err := os.WriteFile(path, []byte("simulated audio recording"), 0644); err != nil {
		d.results <- AudioResult{Err: err}
		return
	}

	d.results <- AudioResult{
		Path:     path,
		Duration: time.Since(d.started).Seconds(),
	}
}

// SimulatedVideoDevice mimics the camera. Timeout, when set, finalizes the
// recording on its own the way the platform camera does.
type SimulatedVideoDevice struct {
	Dir      string
	Timeout  time.Duration
	StartErr error

	mu           sync.Mutex
	recording    bool
	results      chan VideoResult
	started      time.Time
	timeoutTimer *time.Timer
}

func (d *SimulatedVideoDevice) Start(facing CameraFacing) (<-chan VideoResult, error) {
	if d.StartErr != nil {
		return nil, d.StartErr
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.recording {
		return nil, fmt.Errorf("video device busy")
	}

	d.recording = true
	d.results = make(chan VideoResult, 1)
	d.started = time.Now()

	if d.Timeout > 0 {
		d.timeoutTimer = time.AfterFunc(d.Timeout, d.finalize)
	}

	return d.results, nil
}

func (d *SimulatedVideoDevice) Stop() error {
	d.finalize()
	return nil
}

func (d *SimulatedVideoDevice) finalize() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.recording {
		return
	}
	d.recording = false
	if d.timeoutTimer != nil {
		d.timeoutTimer.Stop()
		d.timeoutTimer = nil
	}

	id := uuid.New().String()
	videoPath := filepath.Join(d.Dir, id+".mp4")
	thumbPath := filepath.Join(d.Dir, id+".jpg")

	if err := os.WriteFile(videoPath, []byte("simulated video recording"), 0644); err != nil {
		d.results <- VideoResult{Err: err}
		return
	}
	if err := os.WriteFile(thumbPath, []byte("simulated thumbnail"), 0644); err != nil {
		d.results <- VideoResult{Err: err}
		return
	}

	d.results <- VideoResult{
		Path:          videoPath,
		ThumbnailPath: thumbPath,
		Duration:      time.Since(d.started).Seconds(),
	}
}

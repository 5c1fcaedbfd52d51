package capture

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"
)

type recorderState int

const (
	stateIdle recorderState = iota
	stateRecording
)

// MediaCapture owns the lifecycle of one audio recorder and one video
// recorder. The two are mutually independent: either, both, or neither may
// be recording at any time, but a second recording of the same kind is
// rejected while one is in progress.
//
// Stopping is split in two because completion is signaled by the device, not
// synchronously on the stop call: StopAudio/StopVideo ask the device to
// finalize, WaitAudio/WaitVideo block until the finalized asset arrives.
// A device that finalizes on its own (recording timeout) delivers through
// the same wait path without a stop call.
type MediaCapture struct {
	audio AudioDevice
	video VideoDevice

	mu           sync.Mutex
	audioState   recorderState
	videoState   recorderState
	audioResults <-chan AudioResult
	videoResults <-chan VideoResult
	audioStarted time.Time
	videoStarted time.Time
}

func NewMediaCapture(audio AudioDevice, video VideoDevice) *MediaCapture {
	return &MediaCapture{
		audio: audio,
		video: video,
	}
}

// StartAudio acquires the audio device and begins recording.
func (c *MediaCapture) StartAudio(config AudioConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.audioState == stateRecording {
		return fmt.Errorf("audio recorder is already recording")
	}
	if c.audio == nil {
		return &DeviceError{Device: "audio", Reason: "no audio device available"}
	}

	results, err := c.audio.Start(config)
	if err != nil {
		return &DeviceError{Device: "audio", Reason: "failed to start recording", Err: err}
	}

	c.audioState = stateRecording
	c.audioResults = results
	c.audioStarted = time.Now()
	return nil
}

// StartVideo acquires the camera and begins recording.
func (c *MediaCapture) StartVideo(facing CameraFacing) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.videoState == stateRecording {
		return fmt.Errorf("video recorder is already recording")
	}
	if c.video == nil {
		return &DeviceError{Device: "video", Reason: "no video device available"}
	}

	results, err := c.video.Start(facing)
	if err != nil {
		return &DeviceError{Device: "video", Reason: "failed to start recording", Err: err}
	}

	c.videoState = stateRecording
	c.videoResults = results
	c.videoStarted = time.Now()
	return nil
}

// StopAudio signals the audio device to finalize. A no-op when the recorder
// is idle or the device already finalized on its own.
func (c *MediaCapture) StopAudio() {
	c.mu.Lock()
	recording := c.audioState == stateRecording
	c.mu.Unlock()

	if !recording {
		return
	}
	if err := c.audio.Stop(); err != nil {
		log.Printf("[CAPTURE] Error stopping audio device: %v", err)
	}
}

// StopVideo signals the camera to finalize. A no-op when the recorder is
// idle or the device already finalized on its own.
func (c *MediaCapture) StopVideo() {
	c.mu.Lock()
	recording := c.videoState == stateRecording
	c.mu.Unlock()

	if !recording {
		return
	}
	if err := c.video.Stop(); err != nil {
		log.Printf("[CAPTURE] Error stopping video device: %v", err)
	}
}

// WaitAudio blocks until the audio device delivers the finalized recording
// and returns it as an asset. Exactly one waiter per recording is expected.
func (c *MediaCapture) WaitAudio(ctx context.Context) (*MediaAsset, error) {
	c.mu.Lock()
	if c.audioState != stateRecording {
		c.mu.Unlock()
		return nil, fmt.Errorf("audio recorder is not recording")
	}
	results := c.audioResults
	started := c.audioStarted
	c.mu.Unlock()

	select {
	case res := <-results:
		c.finishAudio()
		if res.Err != nil {
			return nil, &DeviceError{Device: "audio", Reason: "recording failed", Err: res.Err}
		}
		return &MediaAsset{
			Kind:       KindAudio,
			Path:       res.Path,
			Duration:   res.Duration,
			CapturedAt: started,
		}, nil
	case <-ctx.Done():
		c.finishAudio()
		return nil, ctx.Err()
	}
}

// WaitVideo blocks until the camera delivers the finalized recording and
// returns it as an asset with its thumbnail reference.
func (c *MediaCapture) WaitVideo(ctx context.Context) (*MediaAsset, error) {
	c.mu.Lock()
	if c.videoState != stateRecording {
		c.mu.Unlock()
		return nil, fmt.Errorf("video recorder is not recording")
	}
	results := c.videoResults
	started := c.videoStarted
	c.mu.Unlock()

	select {
	case res := <-results:
		c.finishVideo()
		if res.Err != nil {
			return nil, &DeviceError{Device: "video", Reason: "recording failed", Err: res.Err}
		}
		return &MediaAsset{
			Kind:          KindVideo,
			Path:          res.Path,
			ThumbnailPath: res.ThumbnailPath,
			Duration:      res.Duration,
			CapturedAt:    started,
		}, nil
	case <-ctx.Done():
		c.finishVideo()
		return nil, ctx.Err()
	}
}

// Cancel stops any in-progress recorder and discards whatever the devices
// produce without handing assets to a waiter. It always succeeds and is
// idempotent when nothing is recording.
func (c *MediaCapture) Cancel() {
	c.mu.Lock()
	audioRecording := c.audioState == stateRecording
	videoRecording := c.videoState == stateRecording
	audioResults := c.audioResults
	videoResults := c.videoResults
	c.mu.Unlock()

	if audioRecording {
		if err := c.audio.Stop(); err != nil {
			log.Printf("[CAPTURE] Error stopping audio on cancel: %v", err)
		}
		go discardAudio(audioResults)
		c.finishAudio()
	}

	if videoRecording {
		if err := c.video.Stop(); err != nil {
			log.Printf("[CAPTURE] Error stopping video on cancel: %v", err)
		}
		go discardVideo(videoResults)
		c.finishVideo()
	}
}

// Recording reports whether a recorder of the given kind is active.
func (c *MediaCapture) Recording(kind MediaKind) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if kind == KindAudio {
		return c.audioState == stateRecording
	}
	return c.videoState == stateRecording
}

func (c *MediaCapture) finishAudio() {
	c.mu.Lock()
	c.audioState = stateIdle
	c.audioResults = nil
	c.mu.Unlock()
}

func (c *MediaCapture) finishVideo() {
	c.mu.Lock()
	c.videoState = stateIdle
	c.videoResults = nil
	c.mu.Unlock()
}

func discardAudio(results <-chan AudioResult) {
	res, ok := <-results
	if !ok || res.Err != nil {
		return
	}
	removeQuietly(res.Path)
}

func discardVideo(results <-chan VideoResult) {
	res, ok := <-results
	if !ok || res.Err != nil {
		return
	}
	removeQuietly(res.Path)
	removeQuietly(res.ThumbnailPath)
}

func removeQuietly(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("[CAPTURE] Failed to remove discarded asset %s: %v", path, err)
	}
}

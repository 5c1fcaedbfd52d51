package capture

import (
	"fmt"
	"time"
)

// CaptureMode selects which media streams a session records. It is chosen
// before recording starts and locked while recording is in progress.
type CaptureMode string

const (
	ModeAudioOnly CaptureMode = "audio"
	ModeVideoOnly CaptureMode = "video"
	ModeCombined  CaptureMode = "combined"
)

func (m CaptureMode) WantsAudio() bool {
	return m == ModeAudioOnly || m == ModeCombined
}

func (m CaptureMode) WantsVideo() bool {
	return m == ModeVideoOnly || m == ModeCombined
}

func (m CaptureMode) Valid() bool {
	switch m {
	case ModeAudioOnly, ModeVideoOnly, ModeCombined:
		return true
	}
	return false
}

// MediaKind distinguishes audio from video assets.
type MediaKind string

const (
	KindAudio MediaKind = "audio"
	KindVideo MediaKind = "video"
)

// MediaAsset is one finalized recorded artifact. It is owned exclusively by
// the session that recorded it until consumed by upload or discarded on
// cancellation.
type MediaAsset struct {
	Kind          MediaKind
	Path          string
	ThumbnailPath string
	Duration      float64
	CapturedAt    time.Time
}

// CameraFacing selects the camera used for video recording.
type CameraFacing string

const (
	CameraFront CameraFacing = "front"
	CameraBack  CameraFacing = "back"
)

// AudioConfig carries the fixed recording parameters for practice audio.
type AudioConfig struct {
	MaxDuration time.Duration
	SampleRate  int
	Channels    int
	BitRate     int
	Format      string
}

// DefaultAudioConfig returns the parameters tuned for guzheng recordings:
// up to five minutes of mono 44.1kHz mp3 at 192kbps.
func DefaultAudioConfig() AudioConfig {
	return AudioConfig{
		MaxDuration: 5 * time.Minute,
		SampleRate:  44100,
		Channels:    1,
		BitRate:     192000,
		Format:      "mp3",
	}
}

// DeviceError reports that a recording device could not be acquired or
// failed while recording, for example a denied camera permission.
type DeviceError struct {
	Device string
	Reason string
	Err    error
}

func (e *DeviceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s device error: %s: %v", e.Device, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s device error: %s", e.Device, e.Reason)
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}

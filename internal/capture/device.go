package capture

// AudioResult is delivered by an audio device once it has finalized a
// recording. Err is set when the device failed mid-recording.
type AudioResult struct {
	Path     string
	Duration float64
	Err      error
}

// VideoResult is delivered by a video device once it has finalized a
// recording, including a thumbnail reference for the report page.
type VideoResult struct {
	Path          string
	ThumbnailPath string
	Duration      float64
	Err           error
}

// AudioDevice is the asynchronous boundary to the platform audio recorder.
// Start acquires the device and returns the channel on which exactly one
// result is delivered after Stop, or after the device stops itself when the
// configured maximum duration elapses. Stop after the device has already
// finalized is a no-op.
type AudioDevice interface {
	Start(config AudioConfig) (<-chan AudioResult, error)
	Stop() error
}

// VideoDevice is the asynchronous boundary to the camera. The device may
// finalize on its own when its recording timeout expires; that delivery is
// indistinguishable from a manual Stop.
type VideoDevice interface {
	Start(facing CameraFacing) (<-chan VideoResult, error)
	Stop() error
}

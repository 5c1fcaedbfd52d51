package session

import (
	"errors"
	"sync"
	"time"

	"github.com/zhengcoach/zhengcoach/internal/capture"
	"github.com/zhengcoach/zhengcoach/internal/report"
)

// State of the coordinator. One practice session at a time owns the devices.
type State string

const (
	StateIdle      State = "idle"
	StateRecording State = "recording"
	StateAnalyzing State = "analyzing"
)

var (
	// ErrAlreadyRecording is returned when StartRecording is called while a
	// session is still in progress.
	ErrAlreadyRecording = errors.New("a recording session is already in progress")

	// ErrNotRecording is returned when StopRecording is called with no
	// active recording.
	ErrNotRecording = errors.New("no recording in progress")

	// ErrCancelled is the session outcome after CancelRecording.
	ErrCancelled = errors.New("session cancelled")

	// ErrAnalysisFailed is the single user-facing outcome for every upload
	// or server failure during the analyzing phase. The underlying cause is
	// logged, never surfaced as a partial report.
	ErrAnalysisFailed = errors.New("analysis failed, please re-record and try again")
)

// ProgressUpdate is emitted on Session.Updates while a session runs. Tick
// updates carry elapsed seconds for UI feedback and have no effect on
// analysis; stage updates describe the analyzing pipeline step.
type ProgressUpdate struct {
	Type    string
	Seconds int
	Message string
}

const (
	UpdateTick  = "tick"
	UpdateStage = "stage"
)

type assetResult struct {
	kind  capture.MediaKind
	asset *capture.MediaAsset
	err   error
}

// Session is the handle for one practice recording. The caller waits on
// Done and then reads Result; no ambient global carries the report.
type Session struct {
	ID        string
	Mode      capture.CaptureMode
	SongID    string
	StartedAt time.Time
	Updates   chan ProgressUpdate

	mu            sync.Mutex
	audioAsset    *capture.MediaAsset
	videoAsset    *capture.MediaAsset
	cancelled     bool
	stopRequested bool

	stopOnce   sync.Once
	tickerStop chan struct{}
	tickerDone chan struct{}
	results    chan assetResult
	done       chan struct{}

	rep *report.CanonicalReport
	err error
}

// Done is closed once the session reaches a terminal outcome.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Result returns the canonical report or the terminal error. Valid only
// after Done is closed.
func (s *Session) Result() (*report.CanonicalReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rep, s.err
}

func (s *Session) setCancelled() {
	s.mu.Lock()
	s.cancelled = true
	s.mu.Unlock()
}

func (s *Session) isCancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

func (s *Session) markStopRequested() {
	s.mu.Lock()
	s.stopRequested = true
	s.mu.Unlock()
}

func (s *Session) stopWasRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopRequested
}

func (s *Session) setAsset(r assetResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.asset == nil {
		return
	}
	if r.kind == capture.KindAudio {
		s.audioAsset = r.asset
	} else {
		s.videoAsset = r.asset
	}
}

func (s *Session) assets() (audio, video *capture.MediaAsset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.audioAsset, s.videoAsset
}

func (s *Session) finish(rep *report.CanonicalReport, err error) {
	s.mu.Lock()
	s.rep = rep
	s.err = err
	s.mu.Unlock()

	// The ticker has been told to stop by now; wait for it so nothing can
	// emit after Updates closes.
	<-s.tickerDone
	close(s.Updates)
	close(s.done)
}

// emit sends an update without ever blocking the session on a slow listener.
func (s *Session) emit(update ProgressUpdate) {
	select {
	case s.Updates <- update:
	default:
	}
}

package session

import (
	"sync"

	"github.com/zhengcoach/zhengcoach/internal/report"
)

// ReportStore hands the most recent normalized report to the display layer.
// It is a transient slot, not persistence: each new report replaces the
// previous one.
type ReportStore struct {
	mu     sync.Mutex
	latest *report.CanonicalReport
}

func NewReportStore() *ReportStore {
	return &ReportStore{}
}

// Put replaces the stored report.
func (s *ReportStore) Put(r *report.CanonicalReport) {
	s.mu.Lock()
	s.latest = r
	s.mu.Unlock()
}

// Latest returns the stored report without consuming it.
func (s *ReportStore) Latest() (*report.CanonicalReport, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest, s.latest != nil
}

// Take returns the stored report and clears the slot.
func (s *ReportStore) Take() (*report.CanonicalReport, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.latest
	s.latest = nil
	return r, r != nil
}

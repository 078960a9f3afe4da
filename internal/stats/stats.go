package stats

import (
	"sync"
	"time"
)

// Kind classifies a request for counting purposes.
type Kind string

const (
	KindGeneral Kind = "general"
	KindVerify  Kind = "verify"
	KindAdmin   Kind = "admin"
)

// Stats holds the process-wide request counters. Counters live only in
// memory and reset on restart. All methods are safe for concurrent use.
type Stats struct {
	mu             sync.Mutex
	startTime      time.Time
	totalRequests  int64
	verifyRequests int64
	adminRequests  int64
	errorCount     int64
}

func New() *Stats {
	return &Stats{startTime: time.Now()}
}

// RecordRequest counts one classified request. Every request increments
// the total; verify and admin requests additionally increment their own
// bucket.
func (s *Stats) RecordRequest(kind Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.totalRequests++
	switch kind {
	case KindVerify:
		s.verifyRequests++
	case KindAdmin:
		s.adminRequests++
	}
}

// RecordError counts one error response.
func (s *Stats) RecordError() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.errorCount++
}

// StartTime returns the moment the counter set was created.
func (s *Stats) StartTime() time.Time {
	return s.startTime
}

// Snapshot is a consistent point-in-time copy of all counters.
type Snapshot struct {
	Uptime         string  `json:"uptime"`
	TotalRequests  int64   `json:"total_requests"`
	VerifyRequests int64   `json:"verify_requests"`
	AdminRequests  int64   `json:"admin_requests"`
	ErrorCount     int64   `json:"error_count"`
	SuccessRate    float64 `json:"success_rate"`
}

// Snapshot copies every counter under one lock so readers never observe
// a torn update.
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := s.totalRequests
	if total < 1 {
		total = 1
	}
	return Snapshot{
		Uptime:         time.Since(s.startTime).Truncate(time.Second).String(),
		TotalRequests:  s.totalRequests,
		VerifyRequests: s.verifyRequests,
		AdminRequests:  s.adminRequests,
		ErrorCount:     s.errorCount,
		SuccessRate:    float64(s.totalRequests-s.errorCount) / float64(total),
	}
}

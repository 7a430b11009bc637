package metrics

import (
	"sync/atomic"
	"time"
)

// Stats holds the live counters shared by every pipeline stage. All fields
// are safe for concurrent use.
type Stats struct {
	Chunks        atomic.Int64
	Bytes         atomic.Int64
	Pages         atomic.Int64
	Redirects     atomic.Int64
	Malformed     atomic.Int64
	Batches       atomic.Int64
	ExtractErrors atomic.Int64
	Records       atomic.Int64
	Links         atomic.Int64
}

// AddChunk records one decompressed chunk of n bytes.
func (s *Stats) AddChunk(n int) {
	s.Chunks.Add(1)
	s.Bytes.Add(int64(n))
}

// Snapshot is a point-in-time copy of Stats.
type Snapshot struct {
	Chunks        int64         `json:"chunks"`
	Bytes         int64         `json:"bytes"`
	Pages         int64         `json:"pages"`
	Redirects     int64         `json:"redirects"`
	Malformed     int64         `json:"malformed"`
	Batches       int64         `json:"batches"`
	ExtractErrors int64         `json:"extract_errors"`
	Records       int64         `json:"records"`
	Links         int64         `json:"links"`
	Elapsed       time.Duration `json:"elapsed_ns"`
}

func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Chunks:        s.Chunks.Load(),
		Bytes:         s.Bytes.Load(),
		Pages:         s.Pages.Load(),
		Redirects:     s.Redirects.Load(),
		Malformed:     s.Malformed.Load(),
		Batches:       s.Batches.Load(),
		ExtractErrors: s.ExtractErrors.Load(),
		Records:       s.Records.Load(),
		Links:         s.Links.Load(),
	}
}

// Rate returns pages per second over Elapsed.
func (s Snapshot) Rate() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Pages) / s.Elapsed.Seconds()
}

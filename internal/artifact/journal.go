package artifact

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Journal keeps capture entries in memory. A positive ttl drops entries
// older than ttl on every snapshot.
type Journal struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries []Entry
}

func NewJournal(ttl time.Duration) *Journal {
	return &Journal{ttl: ttl}
}

// Record appends e. Entries that fail Validate are dropped and the
// validation error is returned.
func (j *Journal) Record(e Entry) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("journal: %w", err)
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, e)
	return nil
}

// Snapshot returns all live entries ordered by timestamp.
func (j *Journal) Snapshot(now time.Time) []Entry {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.snapshotLocked(now, false)
}

// Failures returns only the entries whose capture failed.
func (j *Journal) Failures(now time.Time) []Entry {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.snapshotLocked(now, true)
}

func (j *Journal) snapshotLocked(now time.Time, failedOnly bool) []Entry {
	if j.ttl > 0 {
		kept := j.entries[:0]
		for _, e := range j.entries {
			if now.Sub(e.TS) <= j.ttl {
				kept = append(kept, e)
			}
		}
		j.entries = kept
	}
	result := make([]Entry, 0, len(j.entries))
	for _, e := range j.entries {
		if failedOnly && !e.Failed() {
			continue
		}
		result = append(result, e)
	}
	sort.SliceStable(result, func(i, k int) bool {
		return result[i].TS.Before(result[k].TS)
	})
	return result
}

package checkin

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"sticket-backend/models"
)

const DefaultHistoryLimit = 50

// History is a bounded, newest-first log of check-in attempts.
type History struct {
	mu      sync.RWMutex
	limit   int
	entries []models.CheckInHistoryEntry
	now     func() time.Time
}

func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{
		limit:   limit,
		entries: make([]models.CheckInHistoryEntry, 0, limit),
		now:     time.Now,
	}
}

// Add prepends result and evicts the oldest entries beyond the limit.
func (h *History) Add(result models.CheckInResult) models.CheckInHistoryEntry {
	entry := models.CheckInHistoryEntry{
		ID:        uuid.New(),
		TicketID:  result.TicketID,
		Timestamp: h.now().UTC(),
		Success:   result.Success,
		Message:   result.Message,
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append([]models.CheckInHistoryEntry{entry}, h.entries...)
	if len(h.entries) > h.limit {
		h.entries = h.entries[:h.limit]
	}
	return entry
}

func (h *History) Entries() []models.CheckInHistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]models.CheckInHistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

func (h *History) Stats() models.CheckInStats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	stats := models.CheckInStats{Total: len(h.entries)}
	for _, entry := range h.entries {
		if entry.Success {
			stats.Success++
		} else {
			stats.Failure++
		}
	}
	return stats
}

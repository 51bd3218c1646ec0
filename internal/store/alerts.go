package store

import (
	"time"

	"github.com/araddon/dateparse"

	"github.com/TobiSchelling/topicwatch/internal/domain"
)

// loadQueue reads the alert queue document; missing or corrupt files load as
// an empty queue.
func (s *Store) loadQueue() []domain.Alert {
	var queue []domain.Alert
	if !readDocument(s.alertsPath(), &queue) {
		return nil
	}
	return queue
}

// QueueAlert appends an alert to the durable queue. The ID is derived from
// (url, timestamp), so enqueuing the same alert twice is a no-op; a missing
// timestamp is stamped with the current time. Returns the alert ID.
func (s *Store) QueueAlert(a domain.Alert) (string, error) {
	queue := s.loadQueue()

	if a.Timestamp == "" {
		a.Timestamp = s.Now().Format(time.RFC3339)
	}
	a.ID = domain.AlertID(a.URL, a.Timestamp)
	a.Sent = false
	a.SentAt = ""

	for _, existing := range queue {
		if existing.ID == a.ID {
			return a.ID, nil
		}
	}

	queue = append(queue, a)
	return a.ID, writeDocument(s.alertsPath(), queue)
}

// PendingAlerts returns all queued alerts not yet marked sent, in queue
// order.
func (s *Store) PendingAlerts() []domain.Alert {
	var pending []domain.Alert
	for _, a := range s.loadQueue() {
		if !a.Sent {
			pending = append(pending, a)
		}
	}
	return pending
}

// AllAlerts returns the full queue, sent and pending.
func (s *Store) AllAlerts() []domain.Alert {
	return s.loadQueue()
}

// MarkAlertSent marks the alert with the given ID as sent, stamping sent_at.
// Unknown IDs are a no-op.
func (s *Store) MarkAlertSent(id string) error {
	queue := s.loadQueue()

	found := false
	for i := range queue {
		if queue[i].ID == id {
			queue[i].Sent = true
			queue[i].SentAt = s.Now().Format(time.RFC3339)
			found = true
			break
		}
	}
	if !found {
		return nil
	}
	return writeDocument(s.alertsPath(), queue)
}

// MarkAllSent marks every pending alert as sent, stamping sent_at. Returns
// the number marked.
func (s *Store) MarkAllSent() (int, error) {
	queue := s.loadQueue()

	now := s.Now().Format(time.RFC3339)
	marked := 0
	for i := range queue {
		if queue[i].Sent {
			continue
		}
		queue[i].Sent = true
		queue[i].SentAt = now
		marked++
	}
	if marked == 0 {
		return 0, nil
	}
	return marked, writeDocument(s.alertsPath(), queue)
}

// ClearOldAlerts removes alerts whose timestamp is older than maxAge,
// regardless of sent status. Alerts with an unparseable timestamp are kept
// for manual review. Returns the number removed.
func (s *Store) ClearOldAlerts(maxAge time.Duration) (int, error) {
	queue := s.loadQueue()
	if len(queue) == 0 {
		return 0, nil
	}

	cutoff := s.Now().Add(-maxAge)

	kept := queue[:0]
	for _, a := range queue {
		ts, err := dateparse.ParseAny(a.Timestamp)
		if err != nil || ts.After(cutoff) {
			kept = append(kept, a)
		}
	}

	removed := len(queue) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	return removed, writeDocument(s.alertsPath(), kept)
}

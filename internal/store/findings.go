package store

import (
	"github.com/TobiSchelling/topicwatch/internal/domain"
)

// SaveFinding appends a finding to the (topic, date) bucket. Buckets are
// append-only JSON lists, one file per topic per day.
func (s *Store) SaveFinding(topicID, date string, f domain.Finding) error {
	path := s.findingsPath(topicID, date)

	var findings []domain.Finding
	readDocument(path, &findings)

	findings = append(findings, f)
	return writeDocument(path, findings)
}

// LoadFindings returns the findings bucket for a topic and date; missing or
// corrupt buckets load as empty.
func (s *Store) LoadFindings(topicID, date string) []domain.Finding {
	var findings []domain.Finding
	readDocument(s.findingsPath(topicID, date), &findings)
	return findings
}

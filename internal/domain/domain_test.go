package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParsePriority(t *testing.T) {
	tests := []struct {
		in      string
		want    Priority
		wantErr bool
	}{
		{"high", PriorityHigh, false},
		{"medium", PriorityMedium, false},
		{"low", PriorityLow, false},
		{"HIGH", PriorityHigh, false},
		{"  medium ", PriorityMedium, false},
		{"urgent", PriorityLow, true},
		{"", PriorityLow, true},
	}
	for _, tt := range tests {
		got, err := ParsePriority(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePriority(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParsePriority(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPriorityOrdering(t *testing.T) {
	if !PriorityHigh.AtLeast(PriorityMedium) {
		t.Error("high should be at least medium")
	}
	if !PriorityMedium.AtLeast(PriorityMedium) {
		t.Error("medium should be at least medium")
	}
	if PriorityLow.AtLeast(PriorityMedium) {
		t.Error("low should not be at least medium")
	}
}

func TestPriorityJSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(PriorityHigh)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"high"` {
		t.Errorf("expected %q, got %s", `"high"`, data)
	}

	var p Priority
	if err := json.Unmarshal([]byte(`"medium"`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p != PriorityMedium {
		t.Errorf("expected medium, got %v", p)
	}

	// Unknown names must not fail a document load.
	if err := json.Unmarshal([]byte(`"whatever"`), &p); err != nil {
		t.Fatalf("unmarshal unknown: %v", err)
	}
	if p != PriorityLow {
		t.Errorf("unknown priority should decode as low, got %v", p)
	}
}

func TestFrequencyInterval(t *testing.T) {
	tests := []struct {
		freq Frequency
		want time.Duration
	}{
		{FrequencyHourly, time.Hour},
		{FrequencyDaily, 24 * time.Hour},
		{FrequencyWeekly, 7 * 24 * time.Hour},
		{Frequency("bogus"), 24 * time.Hour},
	}
	for _, tt := range tests {
		if got := tt.freq.Interval(); got != tt.want {
			t.Errorf("%s.Interval() = %v, want %v", tt.freq, got, tt.want)
		}
	}
}

func TestSettingsNormalize(t *testing.T) {
	var s Settings
	s.Normalize()
	if s.MaxAlertsPerDay != 5 {
		t.Errorf("MaxAlertsPerDay = %d, want 5", s.MaxAlertsPerDay)
	}
	if s.MaxAlertsPerTopicPerDay != 2 {
		t.Errorf("MaxAlertsPerTopicPerDay = %d, want 2", s.MaxAlertsPerTopicPerDay)
	}
	if s.DeduplicationWindowHours != 72 {
		t.Errorf("DeduplicationWindowHours = %d, want 72", s.DeduplicationWindowHours)
	}
	if s.AlertRetentionHours != 168 {
		t.Errorf("AlertRetentionHours = %d, want 168", s.AlertRetentionHours)
	}

	custom := Settings{MaxAlertsPerDay: 10}
	custom.Normalize()
	if custom.MaxAlertsPerDay != 10 {
		t.Errorf("explicit value overwritten: %d", custom.MaxAlertsPerDay)
	}
}

func TestAlertIDStable(t *testing.T) {
	a := AlertID("https://example.com/x", "2026-08-30T10:00:00Z")
	b := AlertID("https://example.com/x", "2026-08-30T10:00:00Z")
	if a != b {
		t.Errorf("same inputs produced different IDs: %s vs %s", a, b)
	}
	if len(a) != 12 {
		t.Errorf("expected 12-char ID, got %d chars", len(a))
	}
	c := AlertID("https://example.com/x", "2026-08-30T11:00:00Z")
	if a == c {
		t.Error("different timestamps should produce different IDs")
	}
}

func TestHashURLStable(t *testing.T) {
	if HashURL("https://a.com") != HashURL("https://a.com") {
		t.Error("hash not stable")
	}
	if HashURL("https://a.com") == HashURL("https://b.com") {
		t.Error("distinct URLs collided")
	}
}

package model

import (
	"time"
)

// SourceKind identifies the capture channel that produced an observation.
type SourceKind string

const (
	SourceNetworkRequest  SourceKind = "network-request"
	SourceNetworkResponse SourceKind = "network-response"
	SourceDOMExtract      SourceKind = "dom-extract"
)

// Direction distinguishes text flowing to the provider from text coming back.
type Direction string

const (
	DirectionRequest  Direction = "request"
	DirectionResponse Direction = "response"
)

// Observation is one capture source's report of text associated with a single
// LLM exchange. Observations are ephemeral: they are consumed by the
// correlator and discarded once merged or expired.
type Observation struct {
	SourceKind     SourceKind `json:"source_kind"`
	CorrelationKey string     `json:"correlation_key,omitempty"`
	Provider       string     `json:"provider"`
	URL            string     `json:"url"`
	Direction      Direction  `json:"direction"`
	Method         string     `json:"method,omitempty"`
	Text           string     `json:"text"`
	ObservedAt     time.Time  `json:"observed_at"`
}

// Analysis is the classifier's verdict on one text blob. It is derived
// deterministically from the text and never mutated afterwards.
type Analysis struct {
	MatchesByCategory map[Category][]string `json:"matches_by_category,omitempty"`
	CategoriesPresent []Category            `json:"categories_present,omitempty"`
	TotalMatchCount   int                   `json:"total_match_count"`
	HasPersonalData   bool                  `json:"has_personal_data"`
	HasSecrets        bool                  `json:"has_secrets"`
	HasCode           bool                  `json:"has_code"`
}

// HasCategory reports whether the analysis found at least one match for c.
func (a Analysis) HasCategory(c Category) bool {
	for _, p := range a.CategoriesPresent {
		if p == c {
			return true
		}
	}
	return false
}

// CanonicalInteraction is the single, deduplicated, scored record representing
// one logical exchange. A given correlation key produces at most one record
// per direction, regardless of how many capture sources reported it.
type CanonicalInteraction struct {
	ID          string       `json:"id"`
	Timestamp   time.Time    `json:"timestamp"`
	Provider    string       `json:"provider"`
	URL         string       `json:"url"`
	Direction   Direction    `json:"direction"`
	Method      string       `json:"method,omitempty"`
	Text        string       `json:"text"`
	Analysis    Analysis     `json:"analysis"`
	RiskScore   int          `json:"risk_score"`
	SourceKinds []SourceKind `json:"source_kinds"`
}

// HasSource reports whether kind contributed to this record.
func (c CanonicalInteraction) HasSource(kind SourceKind) bool {
	for _, k := range c.SourceKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// LogIndexEntry is the lightweight projection of a CanonicalInteraction kept
// in the size-bounded index for filtering without loading full bodies.
type LogIndexEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Provider  string    `json:"provider"`
	RiskScore int       `json:"risk_score"`
	URL       string    `json:"url"`
}

// RetentionPolicy bounds the log store. After any append completes the index
// holds at most MaxEntries rows; MaxAgeDays is enforced by explicit sweeps.
type RetentionPolicy struct {
	MaxEntries int `yaml:"max_entries" json:"max_entries"`
	MaxAgeDays int `yaml:"max_age_days" json:"max_age_days"`
}

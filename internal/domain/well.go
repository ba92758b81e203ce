package domain

import (
	"errors"
	"sync"
)

// ErrNoWells is returned by the pipeline when the spatial fetch produced an
// empty record set. There is nothing to join operator data against, so the
// run terminates with a non-zero exit status.
var ErrNoWells = errors.New("spatial fetch returned no wells")

// WellRecord is one well surface location as retrieved from the GIS service.
// Coordinates stay at full precision here; rounding happens only when the
// record is converted to an OutputRecord.
type WellRecord struct {
	API        string
	Lat        float64
	Lng        float64
	WellNumber string
	Type       string
}

// OutputRecord is the final, immutable form written to the wells.json
// artifact: a WellRecord joined with its classified operator name.
type OutputRecord struct {
	ID       string  `json:"id"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Operator string  `json:"operator"`
	Type     string  `json:"type"`
	WellNum  string  `json:"well_num"`
}

// OperatorPair is one (API number, raw operator name) pair extracted from an
// EWA results page.
type OperatorPair struct {
	API  string
	Name string
}

// CountyCode returns the 3-digit county prefix of an API number, used as the
// grouping key for batched operator lookups.
func CountyCode(api string) string {
	if len(api) < 3 {
		return api
	}
	return api[:3]
}

// SplitAPI splits an API number into the county prefix and well suffix the
// EWA search form expects.
func SplitAPI(api string) (prefix, suffix string) {
	if len(api) < 3 {
		return api, ""
	}
	return api[:3], api[3:]
}

// WellSet is an insertion-ordered, identifier-keyed accumulator of
// WellRecords with insert-if-absent semantics. Adjacent grid cells revisit
// edge-straddling features, so the set, not the cell partition, is the source
// of truth for uniqueness: the first record seen for an API number wins.
//
// Add is safe for concurrent use so the grid fetch can be parallelized across
// cells without changing the accumulator contract.
type WellSet struct {
	mu      sync.Mutex
	records map[string]WellRecord
	order   []string
}

// NewWellSet returns an empty WellSet.
func NewWellSet() *WellSet {
	return &WellSet{records: make(map[string]WellRecord)}
}

// Add inserts rec if its API number has not been seen. It reports whether the
// record was inserted.
func (s *WellSet) Add(rec WellRecord) bool {
	if rec.API == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.API]; ok {
		return false
	}
	s.records[rec.API] = rec
	s.order = append(s.order, rec.API)
	return true
}

// Get returns the record for an API number.
func (s *WellSet) Get(api string) (WellRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[api]
	return rec, ok
}

// Len returns the number of distinct wells.
func (s *WellSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// APIs returns the API numbers in first-seen order.
func (s *WellSet) APIs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

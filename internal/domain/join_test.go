package domain

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinAndClassify(t *testing.T) {
	frozen := time.Date(2026, time.August, 23, 12, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(frozen))
	defer SetClock(nil)

	classifier := NewClassifier(DefaultRules())

	wells := NewWellSet()
	wells.Add(WellRecord{API: "32910001", Lat: 31.1234564, Lng: -102.9876544, WellNumber: "1H", Type: "Oil"})
	wells.Add(WellRecord{API: "47510002", Lat: 32.5, Lng: -101.25, WellNumber: "2", Type: "Gas"})
	wells.Add(WellRecord{API: "00310003", Lat: 30.75, Lng: -103.5, WellNumber: "A-3", Type: "Oil/Gas"})

	operators := map[string]string{
		"32910001": "PIONEER NATURAL RESOURCES USA, INC.",
		"47510002": "SMITH FAMILY OPERATING LLC",
		// 00310003 deliberately unresolved.
	}

	result := JoinAndClassify(wells, operators, classifier)

	want := []OutputRecord{
		{ID: "32910001", Lat: 31.123456, Lng: -102.987654, Operator: "ExxonMobil/Pioneer", Type: "Oil", WellNum: "1H"},
		{ID: "47510002", Lat: 32.5, Lng: -101.25, Operator: "Other", Type: "Gas", WellNum: "2"},
		{ID: "00310003", Lat: 30.75, Lng: -103.5, Operator: "Other", Type: "Oil/Gas", WellNum: "A-3"},
	}
	if diff := cmp.Diff(want, result.Records); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, map[string]int{"ExxonMobil/Pioneer": 1, "Other": 2}, result.Counts)
	assert.Equal(t, frozen, result.GeneratedAt)
}

// TestJoinCompleteness pins the contract that every fetched well appears in
// the output exactly once, resolved or not.
func TestJoinCompleteness(t *testing.T) {
	classifier := NewClassifier(DefaultRules())

	wells := NewWellSet()
	for _, api := range []string{"32910001", "32910002", "47510003"} {
		wells.Add(WellRecord{API: api, Lat: 31, Lng: -102})
	}

	result := JoinAndClassify(wells, nil, classifier)
	require.Len(t, result.Records, 3)

	total := 0
	for _, c := range result.Counts {
		total += c
	}
	assert.Equal(t, 3, total, "counts reconcile with record total")
}

// TestJoinRounds checks that the 7th decimal rounds rather than truncates.
func TestJoinRounds(t *testing.T) {
	classifier := NewClassifier(nil)
	wells := NewWellSet()
	wells.Add(WellRecord{API: "32910001", Lat: 31.1234567, Lng: -102.9876549})

	result := JoinAndClassify(wells, nil, classifier)
	require.Len(t, result.Records, 1)
	assert.Equal(t, 31.123457, result.Records[0].Lat)
	assert.Equal(t, -102.987655, result.Records[0].Lng)
}

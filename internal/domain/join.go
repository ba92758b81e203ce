package domain

import (
	"math"
	"time"
)

// JoinResult is the final dataset: one OutputRecord per well in first-seen
// order, plus aggregate counts per canonical operator name.
type JoinResult struct {
	Records     []OutputRecord
	Counts      map[string]int
	GeneratedAt time.Time
}

// JoinAndClassify merges the well set with the resolved operator names and
// classifies each raw name. Every well appears exactly once in the output
// regardless of whether an operator was resolved for it; unresolved wells
// classify as DefaultOperator rather than being omitted. Coordinates are
// rounded to 6 decimal places here; WellRecord remains the full-precision
// truth.
func JoinAndClassify(wells *WellSet, operators map[string]string, classifier Classifier) JoinResult {
	apis := wells.APIs()
	result := JoinResult{
		Records:     make([]OutputRecord, 0, len(apis)),
		Counts:      make(map[string]int),
		GeneratedAt: clock.Now().UTC(),
	}

	for _, api := range apis {
		rec, ok := wells.Get(api)
		if !ok {
			continue
		}
		operator := classifier.Classify(operators[api])
		result.Records = append(result.Records, OutputRecord{
			ID:       rec.API,
			Lat:      round6(rec.Lat),
			Lng:      round6(rec.Lng),
			Operator: operator,
			Type:     rec.Type,
			WellNum:  rec.WellNumber,
		})
		result.Counts[operator]++
	}
	return result
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

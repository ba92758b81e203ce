// Command validate performs integrity checks over a wells.json artifact:
// identifier shape and uniqueness, spatial containment, operator enum
// membership, and distribution reconciliation.
//
// Usage:
//
//	go run ./cmd/validate -wells wells.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"regexp"
	"sort"

	"github.com/couchcryptid/well-data-etl/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	wellsPath := flag.String("wells", "wells.json", "path to the wells.json artifact")
	xmin := flag.Float64("xmin", -104.5, "bounding box west edge")
	ymin := flag.Float64("ymin", 30.5, "bounding box south edge")
	xmax := flag.Float64("xmax", -100.5, "bounding box east edge")
	ymax := flag.Float64("ymax", 33.5, "bounding box north edge")
	flag.Parse()

	box := domain.Envelope{XMin: *xmin, YMin: *ymin, XMax: *xmax, YMax: *ymax}
	os.Exit(run(*wellsPath, box))
}

func run(wellsPath string, box domain.Envelope) int {
	fmt.Println("=== Well Artifact Integrity Validation ===")
	fmt.Println()

	records, err := loadRecords(wellsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load %s: %v\n", wellsPath, err)
		return 1
	}

	phases := []*phase{
		validateRecordShape(records),
		validateContainment(records, box),
		validateOperatorEnum(records),
		validateDistribution(records),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d\n", len(records))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i >= 25 {
				fmt.Printf("  ... and %d more\n", len(p.errors)-i)
				break
			}
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadRecords(path string) ([]domain.OutputRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []domain.OutputRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("artifact contains no records")
	}
	return records, nil
}

// ── Phase 1: Record Shape ──
// Identifiers are 8-digit strings, unique across the artifact, and
// coordinates carry at most 6 decimal places.

var apiRe = regexp.MustCompile(`^\d{8}$`)

func validateRecordShape(records []domain.OutputRecord) *phase {
	p := &phase{name: "Phase 1: Record Shape (IDs, precision)"}

	seen := make(map[string]int, len(records))
	for i := range records {
		rec := &records[i]
		if !apiRe.MatchString(rec.ID) {
			p.errorf("record %d: id %q is not an 8-digit API number", i, rec.ID)
		}
		if prev, ok := seen[rec.ID]; ok {
			p.errorf("record %d: duplicate id %q (first at record %d)", i, rec.ID, prev)
		} else {
			seen[rec.ID] = i
		}
		if !rounded6(rec.Lat) || !rounded6(rec.Lng) {
			p.errorf("record %d (id %s): coordinates (%v, %v) exceed 6 decimal places", i, rec.ID, rec.Lat, rec.Lng)
		}
	}
	return p
}

// rounded6 reports whether v survives a round trip through 6-decimal
// rounding, allowing for float representation error.
func rounded6(v float64) bool {
	return math.Abs(v-math.Round(v*1e6)/1e6) < 1e-9
}

// ── Phase 2: Spatial Containment ──
// Every coordinate falls inside the query bounding box. Zero coordinates are
// flagged separately: they mean a feature arrived with neither geometry nor
// coordinate attributes.

func validateContainment(records []domain.OutputRecord, box domain.Envelope) *phase {
	p := &phase{name: "Phase 2: Spatial Containment (bounding box)"}

	for i := range records {
		rec := &records[i]
		if rec.Lat == 0 && rec.Lng == 0 {
			p.errorf("record %d (id %s): coordinates are both zero", i, rec.ID)
			continue
		}
		if !box.Contains(rec.Lat, rec.Lng) {
			p.errorf("record %d (id %s): (%v, %v) outside box %+v", i, rec.ID, rec.Lat, rec.Lng, box)
		}
	}
	return p
}

// ── Phase 3: Operator Enum ──
// Every operator value is one of the classifier's canonical names.

func validateOperatorEnum(records []domain.OutputRecord) *phase {
	p := &phase{name: "Phase 3: Operator Enum (canonical names)"}

	classifier := domain.NewClassifier(domain.DefaultRules())
	canonical := make(map[string]bool)
	for _, name := range classifier.CanonicalNames() {
		canonical[name] = true
	}

	for i := range records {
		if !canonical[records[i].Operator] {
			p.errorf("record %d (id %s): operator %q is not a canonical name", i, records[i].ID, records[i].Operator)
		}
	}
	return p
}

// ── Phase 4: Distribution ──
// Counts per operator sum to the record total; the distribution is printed
// for eyeballing against expectations.

func validateDistribution(records []domain.OutputRecord) *phase {
	p := &phase{name: "Phase 4: Distribution (reconciliation)"}

	counts := make(map[string]int)
	for i := range records {
		counts[records[i].Operator]++
	}

	sum := 0
	for _, c := range counts {
		sum += c
	}
	if sum != len(records) {
		p.errorf("distribution sums to %d, expected %d", sum, len(records))
	}

	type entry struct {
		name  string
		count int
	}
	entries := make([]entry, 0, len(counts))
	for name, count := range counts {
		entries = append(entries, entry{name, count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].name < entries[j].name
	})

	fmt.Println("Operator distribution:")
	for _, e := range entries {
		fmt.Printf("  %-22s %6d (%.1f%%)\n", e.name, e.count, 100*float64(e.count)/float64(len(records)))
	}
	return p
}

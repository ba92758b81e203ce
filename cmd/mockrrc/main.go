// Command mockrrc serves local stand-ins for the two RRC endpoints the
// pipeline talks to: the ArcGIS well layer and the EWA wellbore query
// application. It generates a deterministic synthetic well field so full
// pipeline runs work offline.
//
// Usage:
//
//	go run ./cmd/mockrrc -addr :9090 -wells 5000 -seed 1
//
//	GIS_BASE_URL=http://localhost:9090/gis/query \
//	EWA_BASE_URL=http://localhost:9090/ewa \
//	go run ./cmd/etl
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"html"
	"log"
	"math/rand"
	"net/http"
	"strconv"
	"strings"

	"github.com/couchcryptid/well-data-etl/internal/domain"
)

// mockWell is one synthetic well known to both mock services.
type mockWell struct {
	API          string
	Lat          float64
	Lng          float64
	WellNumber   string
	Type         string
	OperatorName string
	OperatorNo   string
}

// rawOperators mixes names the classifier recognizes with names that fall
// through to the catch-all bucket.
var rawOperators = []string{
	"PIONEER NATURAL RESOURCES USA, INC.",
	"EXXONMOBIL CORPORATION",
	"CONOCOPHILLIPS COMPANY",
	"EOG RESOURCES, INC.",
	"DIAMONDBACK E&P LLC",
	"DEVON ENERGY PRODUCTION CO, L.P.",
	"OXY USA INC.",
	"CHEVRON U.S.A. INC.",
	"APACHE CORPORATION",
	"COTERRA ENERGY OPERATING CO.",
	"CALLON PETROLEUM OPERATING COMPANY",
	"PERMIAN DEEP ROCK OIL COMPANY",
	"SMITH FAMILY OPERATING LLC",
	"WEST TEXAS LEGACY PRODUCTION",
}

var wellTypes = []string{"Oil", "Gas", "Oil/Gas", "Other"}

// countyCodes are real Permian Basin county prefixes. The first county gets
// the bulk of the wells so it overflows the EWA mock's cap.
var countyCodes = []string{"329", "475", "003", "135", "227", "317"}

func main() {
	addr := flag.String("addr", ":9090", "listen address")
	wellCount := flag.Int("wells", 5000, "number of synthetic wells")
	seed := flag.Int64("seed", 1, "rng seed for the synthetic field")
	overflowCap := flag.Int("overflow-cap", 1000, "county match count above which the EWA mock reports overflow")
	flag.Parse()

	box := domain.Envelope{XMin: -104.5, YMin: 30.5, XMax: -100.5, YMax: 33.5}
	wells := generateWells(*wellCount, *seed, box)
	log.Printf("generated %d wells across %d counties", len(wells), len(countyCodes))

	srv := &mockServer{wells: wells, byAPI: indexByAPI(wells), overflowCap: *overflowCap}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /gis/query", srv.handleGISQuery)
	mux.HandleFunc("GET /ewa/ewaMain.do", srv.handleEWAMain)
	mux.HandleFunc("GET /ewa/wellboreQueryAction.do", srv.handleEWABootstrap)
	mux.HandleFunc("POST /ewa/wellboreQueryAction.do", srv.handleEWASearch)

	log.Printf("mock RRC listening on %s (gis: /gis/query, ewa: /ewa)", *addr)
	log.Fatal(http.ListenAndServe(*addr, mux))
}

// generateWells lays out a deterministic synthetic field. County weights are
// skewed so the first county overflows a grouped query and the rest resolve
// fully.
func generateWells(n int, seed int64, box domain.Envelope) []mockWell {
	rng := rand.New(rand.NewSource(seed))
	wells := make([]mockWell, 0, n)

	for i := 0; i < n; i++ {
		// ~40% of wells land in the first county.
		countyIdx := 0
		if rng.Float64() > 0.4 {
			countyIdx = 1 + rng.Intn(len(countyCodes)-1)
		}
		opIdx := rng.Intn(len(rawOperators))

		wells = append(wells, mockWell{
			API:          fmt.Sprintf("%s%05d", countyCodes[countyIdx], 10000+i),
			Lat:          box.YMin + rng.Float64()*(box.YMax-box.YMin),
			Lng:          box.XMin + rng.Float64()*(box.XMax-box.XMin),
			WellNumber:   fmt.Sprintf("%dH", 1+rng.Intn(20)),
			Type:         wellTypes[rng.Intn(len(wellTypes))],
			OperatorName: rawOperators[opIdx],
			OperatorNo:   fmt.Sprintf("%06d", 100000+opIdx),
		})
	}
	return wells
}

func indexByAPI(wells []mockWell) map[string]*mockWell {
	idx := make(map[string]*mockWell, len(wells))
	for i := range wells {
		idx[wells[i].API] = &wells[i]
	}
	return idx
}

type mockServer struct {
	wells       []mockWell
	byAPI       map[string]*mockWell
	overflowCap int
}

// handleGISQuery answers ArcGIS envelope queries: filter by the geometry
// parameter, slice by resultOffset/resultRecordCount, and set
// exceededTransferLimit when more records remain.
func (s *mockServer) handleGISQuery(w http.ResponseWriter, r *http.Request) {
	var env domain.Envelope
	if err := json.Unmarshal([]byte(r.URL.Query().Get("geometry")), &env); err != nil {
		writeGISError(w, 400, "Invalid or missing geometry parameter")
		return
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("resultOffset"))
	count, _ := strconv.Atoi(r.URL.Query().Get("resultRecordCount"))
	if count <= 0 {
		count = 2000
	}

	var matched []mockWell
	for _, well := range s.wells {
		if env.Contains(well.Lat, well.Lng) {
			matched = append(matched, well)
		}
	}

	if offset > len(matched) {
		offset = len(matched)
	}
	end := offset + count
	exceeded := end < len(matched)
	if !exceeded {
		end = len(matched)
	}

	type feature struct {
		Attributes map[string]any `json:"attributes"`
		Geometry   map[string]any `json:"geometry"`
	}
	features := make([]feature, 0, end-offset)
	for _, well := range matched[offset:end] {
		features = append(features, feature{
			Attributes: map[string]any{
				"API":                    well.API,
				"GIS_WELL_NUMBER":        well.WellNumber,
				"GIS_SYMBOL_DESCRIPTION": well.Type,
				"GIS_LAT83":              well.Lat,
				"GIS_LONG83":             well.Lng,
			},
			Geometry: map[string]any{"x": well.Lng, "y": well.Lat},
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck // mock server
		"features":              features,
		"exceededTransferLimit": exceeded,
	})
}

func writeGISError(w http.ResponseWriter, code int, message string) {
	// ArcGIS reports errors as HTTP 200 with an error object.
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck // mock server
		"error": map[string]any{"code": code, "message": message},
	})
}

// handleEWAMain is the first bootstrap page; it issues the session cookie.
func (s *mockServer) handleEWAMain(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "mock-session", Path: "/"})
	fmt.Fprint(w, "<html><body>EWA Main</body></html>")
}

// handleEWABootstrap is the second bootstrap page (beginWellboreQuery).
func (s *mockServer) handleEWABootstrap(w http.ResponseWriter, r *http.Request) {
	if !hasSession(r) {
		http.Error(w, "no session", http.StatusForbidden)
		return
	}
	fmt.Fprint(w, "<html><body>Wellbore Query Form</body></html>")
}

// handleEWASearch answers the query POST: a by-identifier lookup when the
// suffix argument is set, otherwise a paged county query that overflows above
// the configured cap.
func (s *mockServer) handleEWASearch(w http.ResponseWriter, r *http.Request) {
	if !hasSession(r) {
		http.Error(w, "no session", http.StatusForbidden)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	prefix := r.PostFormValue("searchArgs.apiNoPrefixArg")
	suffix := r.PostFormValue("searchArgs.apiNoSuffixArg")
	page, _ := strconv.Atoi(r.PostFormValue("page"))
	pageSize, _ := strconv.Atoi(r.PostFormValue("pagesize"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 50
	}

	if suffix != "" {
		s.renderAPIResult(w, prefix+suffix)
		return
	}
	s.renderCountyResult(w, prefix, page, pageSize)
}

func (s *mockServer) renderAPIResult(w http.ResponseWriter, api string) {
	well, ok := s.byAPI[api]
	if !ok {
		fmt.Fprint(w, "<html><body><p>No records found.</p></body></html>")
		return
	}
	renderResultsPage(w, []mockWell{*well})
}

func (s *mockServer) renderCountyResult(w http.ResponseWriter, county string, page, pageSize int) {
	var matched []mockWell
	for _, well := range s.wells {
		if strings.HasPrefix(well.API, county) {
			matched = append(matched, well)
		}
	}

	if len(matched) > s.overflowCap {
		fmt.Fprintf(w, "<html><body><p>Your query returned %d records found, which exceeds the maximum number allowed.</p></body></html>", len(matched))
		return
	}

	start := (page - 1) * pageSize
	if start > len(matched) {
		start = len(matched)
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}
	renderResultsPage(w, matched[start:end])
}

// renderResultsPage emits the two parallel anchor lists the scraper pairs by
// position: wellbore detail links carrying apiNo, and operator anchors whose
// title carries the operator number.
func renderResultsPage(w http.ResponseWriter, wells []mockWell) {
	var b strings.Builder
	b.WriteString("<html><body><table>\n")
	for _, well := range wells {
		fmt.Fprintf(&b,
			"<tr><td><a href=\"/EWA/wellboreQueryAction.do?methodToCall=wellboreDetail&apiNo=%s\">%s</a></td>"+
				"<td><a title=\"Operator # %s\" href=\"/EWA/operatorAction.do?operatorNo=%s\">%s</a></td></tr>\n",
			well.API, well.API, well.OperatorNo, well.OperatorNo, html.EscapeString(well.OperatorName))
	}
	b.WriteString("</table></body></html>")
	fmt.Fprint(w, b.String())
}

func hasSession(r *http.Request) bool {
	c, err := r.Cookie("JSESSIONID")
	return err == nil && c.Value != ""
}

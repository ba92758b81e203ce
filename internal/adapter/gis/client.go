// Package gis queries the RRC public ArcGIS map service for well point
// features.
package gis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/well-data-etl/internal/domain"
)

// DefaultBaseURL is the live RRC public viewer well layer.
const DefaultBaseURL = "https://gis.rrc.texas.gov/server/rest/services/rrc_public/RRC_Public_Viewer_Srvs/MapServer/1/query"

// wellWhere selects oil, gas, oil/gas, and other completion symbols.
const wellWhere = "SYMNUM IN (4,5,6,7)"

const outFields = "API,GIS_API5,GIS_WELL_NUMBER,GIS_SYMBOL_DESCRIPTION,GIS_LAT83,GIS_LONG83"

// ErrDecode marks a response body that could not be parsed in the expected
// shape. Callers treat it the same as a transport failure (skip the unit) but
// the distinction is kept for logs and tests.
var ErrDecode = errors.New("undecodable gis response")

// Client issues envelope queries against the map service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a GIS client with a fixed per-request timeout.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		logger:     logger,
	}
}

// QueryCell fetches one page of well features intersecting the envelope.
func (c *Client) QueryCell(ctx context.Context, env domain.Envelope, offset, count int) (Page, error) {
	geom, err := json.Marshal(env)
	if err != nil {
		return Page{}, fmt.Errorf("marshal envelope: %w", err)
	}

	params := url.Values{
		"where":             {wellWhere},
		"outFields":         {outFields},
		"returnGeometry":    {"true"},
		"resultRecordCount": {strconv.Itoa(count)},
		"resultOffset":      {strconv.Itoa(offset)},
		"outSR":             {"4326"},
		"geometry":          {string(geom)},
		"geometryType":      {"esriGeometryEnvelope"},
		"inSR":              {"4326"},
		"spatialRel":        {"esriSpatialRelIntersects"},
		"f":                 {"json"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Page{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("gis query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return Page{}, fmt.Errorf("gis api error: status %d: %s", resp.StatusCode, body)
	}

	var page Page
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return Page{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	// ArcGIS reports failures as a 200 with an error object in the body.
	if page.Error != nil {
		return Page{}, fmt.Errorf("gis api error: code %d: %s", page.Error.Code, page.Error.Message)
	}

	return page, nil
}

// Page is one decoded query response.
type Page struct {
	Features []Feature `json:"features"`
	// ExceededTransferLimit is the service's more-data-remains flag. Older
	// service versions omit it entirely, so absence is distinct from false.
	ExceededTransferLimit *bool     `json:"exceededTransferLimit"`
	Error                 *apiError `json:"error"`
}

// HasMore reports whether another page should be requested. The transfer
// limit flag is the authoritative signal when the service sends it; when
// absent, a page shorter than the requested batch size signals exhaustion
// and a full page costs one probe request to confirm.
func (p Page) HasMore(batchSize int) bool {
	if p.ExceededTransferLimit != nil {
		return *p.ExceededTransferLimit
	}
	return len(p.Features) >= batchSize
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Feature is one point feature with its raw attribute map. Attribute values
// arrive as JSON numbers or strings depending on the field and service
// version, so access goes through shape-tolerant helpers.
type Feature struct {
	Attributes map[string]any `json:"attributes"`
	Geometry   *Geometry      `json:"geometry"`
}

// Geometry is a point in the requested spatial reference.
type Geometry struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Well converts the feature to a domain record. Coordinates come from the
// geometry when present, else from the GIS_LAT83/GIS_LONG83 attributes. ok is
// false when the feature carries no API number.
func (f Feature) Well() (domain.WellRecord, bool) {
	api := attrString(f.Attributes, "API")
	if api == "" {
		return domain.WellRecord{}, false
	}

	rec := domain.WellRecord{
		API:        api,
		WellNumber: attrString(f.Attributes, "GIS_WELL_NUMBER"),
		Type:       attrString(f.Attributes, "GIS_SYMBOL_DESCRIPTION"),
	}
	if f.Geometry != nil {
		rec.Lat = f.Geometry.Y
		rec.Lng = f.Geometry.X
	} else {
		rec.Lat = attrFloat(f.Attributes, "GIS_LAT83")
		rec.Lng = attrFloat(f.Attributes, "GIS_LONG83")
	}
	return rec, true
}

func attrString(attrs map[string]any, key string) string {
	switch v := attrs[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func attrFloat(attrs map[string]any, key string) float64 {
	switch v := attrs[key].(type) {
	case float64:
		return v
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

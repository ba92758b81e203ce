// Package domain models Texas Railroad Commission (RRC) well records.
//
// # Data Sources
//
// Well surface locations come from the RRC public GIS map service, an ArcGIS
// REST endpoint queried per grid cell with offset pagination. Operator names
// come from the RRC EWA (Electronic Well Application) wellbore query, a
// session-based web form whose results are HTML pages scraped by the ewa
// adapter.
//
// # API Numbers
//
// Texas wells are identified by an 8-digit API number string. The leading
// 3 digits are the county code (the state prefix "42" is omitted by both RRC
// services), the trailing 5 digits the well sequence within the county:
//
//	"32940123" → county 329 (Midland), sequence 40123
//
// The county code doubles as the grouping key for batched operator lookups:
// the EWA wellbore form accepts an API prefix, so one query per county covers
// every well in it unless the county exceeds the EWA result cap.
//
// # GIS Feature Conventions
//
// Features are filtered to SYMNUM 4-7 (oil, gas, oil/gas, other completion).
// Coordinates are taken from the feature geometry when present; some features
// carry no geometry and fall back to the GIS_LAT83/GIS_LONG83 attributes.
// Attribute values arrive as either JSON numbers or strings depending on the
// service's mood, so attribute access is shape-tolerant.
//
// # Operator Classification
//
// Raw EWA operator names are free text ("PIONEER NATURAL RES USA, INC.").
// They are classified to a fixed set of canonical display names by an ordered
// substring rule table; the first matching rule wins, so overlapping
// fragments (e.g. "EOG RES" vs "EOG RESOURCES") resolve by declaration order,
// not longest match. Unmatched or missing names fall into the "Other" bucket.
package domain

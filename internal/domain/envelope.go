package domain

// Envelope is a half-open geographic rectangle in WGS84 decimal degrees.
// It serves both as the overall query bounding box and as one grid cell.
type Envelope struct {
	XMin float64 `json:"xmin"`
	YMin float64 `json:"ymin"`
	XMax float64 `json:"xmax"`
	YMax float64 `json:"ymax"`
}

// Contains reports whether a coordinate falls inside the envelope, treating
// the max edges as exclusive.
func (e Envelope) Contains(lat, lng float64) bool {
	return lng >= e.XMin && lng < e.XMax && lat >= e.YMin && lat < e.YMax
}

// Cells tiles the envelope into cells of the given longitude/latitude step
// sizes in row-major order: south-to-north rows, west-to-east within a row.
// The final row and column may overshoot the envelope edge; the GIS service
// intersects the cell with its data anyway, and the WellSet dedups features
// that straddle cell borders.
func (e Envelope) Cells(lonStep, latStep float64) []Envelope {
	if lonStep <= 0 || latStep <= 0 {
		return nil
	}
	var cells []Envelope
	for lat := e.YMin; lat < e.YMax; lat += latStep {
		for lng := e.XMin; lng < e.XMax; lng += lonStep {
			cells = append(cells, Envelope{
				XMin: lng,
				YMin: lat,
				XMax: lng + lonStep,
				YMax: lat + latStep,
			})
		}
	}
	return cells
}

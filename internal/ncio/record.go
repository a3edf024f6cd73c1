package ncio

// Record is a single reading of a gridded variable taken at a given geo
// location at a given time.
type Record struct {
	// Dimensions
	Timestamp int64
	Latitude  float32
	Longitude float32

	// Metric
	Value float64
}

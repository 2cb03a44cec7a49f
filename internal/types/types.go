// README: Common value types shared across modules.
package types

// ID is an opaque identifier (event, profile, ride, notification).
type ID string

// Point is a WGS84 coordinate pair in decimal degrees.
type Point struct {
	Lat float64
	Lng float64
}

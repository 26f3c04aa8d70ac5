package transform

import (
	"math"
	"time"
)

// WGS-84 ellipsoid parameters (km).
const (
	wgs84A  = 6378.137              // semi-major axis
	wgs84F  = 1.0 / 298.257223563   // flattening
	wgs84E2 = wgs84F * (2 - wgs84F) // first eccentricity squared
)

// PositionTEME is a satellite position in the TEME frame, in kilometres.
type PositionTEME struct {
	X, Y, Z float64
}

// PositionECEF is a satellite position in the Earth-fixed frame, in kilometres.
type PositionECEF struct {
	X, Y, Z float64
}

// GeodeticPoint is a WGS-84 geodetic position.
type GeodeticPoint struct {
	LatDeg, LonDeg float64
	AltKm          float64
}

// TEMEToECEF rotates a TEME position into the Earth-fixed frame at the given
// UTC time. The rotation is R3(θ) about the Z axis by the GMST angle θ.
func TEMEToECEF(teme PositionTEME, t time.Time) PositionECEF {
	return TEMEToECEFWithGMST(teme, GMST(t))
}

// TEMEToECEFWithGMST rotates TEME to ECEF using a precomputed GMST angle in
// radians. Useful when converting many positions at the same instant.
func TEMEToECEFWithGMST(teme PositionTEME, gmst float64) PositionECEF {
	cosG := math.Cos(gmst)
	sinG := math.Sin(gmst)
	return PositionECEF{
		X: teme.X*cosG + teme.Y*sinG,
		Y: -teme.X*sinG + teme.Y*cosG,
		Z: teme.Z,
	}
}

// ECEFToGeodetic converts an Earth-fixed position (km) to geodetic coordinates
// using the iterative Bowring method. Converges in a few iterations for any
// Earth-orbiting satellite.
func ECEFToGeodetic(pos PositionECEF) GeodeticPoint {
	lon := math.Atan2(pos.Y, pos.X)
	p := math.Hypot(pos.X, pos.Y)

	lat := math.Atan2(pos.Z, p*(1-wgs84E2))
	for i := 0; i < 5; i++ {
		sinLat := math.Sin(lat)
		n := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)
		lat = math.Atan2(pos.Z+wgs84E2*n*sinLat, p)
	}

	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)
	n := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)

	var alt float64
	if math.Abs(cosLat) > 1e-10 {
		alt = p/cosLat - n
	} else {
		alt = math.Abs(pos.Z)/math.Abs(sinLat) - n*(1-wgs84E2)
	}

	return GeodeticPoint{
		LatDeg: lat * 180 / math.Pi,
		LonDeg: normalizeLonDeg(lon * 180 / math.Pi),
		AltKm:  alt,
	}
}

// SubPoint computes the sub-satellite geodetic point for a TEME position at
// the given UTC time.
func SubPoint(teme PositionTEME, t time.Time) GeodeticPoint {
	return ECEFToGeodetic(TEMEToECEF(teme, t))
}

// normalizeLonDeg maps a longitude in degrees to the (-180, 180] interval.
func normalizeLonDeg(lon float64) float64 {
	lon = math.Mod(lon, 360)
	if lon > 180 {
		lon -= 360
	} else if lon <= -180 {
		lon += 360
	}
	return lon
}

// Package transform converts propagated satellite positions into sub-satellite
// geodetic coordinates.
//
// SGP4 outputs positions in the TEME (True Equator Mean Equinox) inertial frame.
// The sub-satellite point is obtained by rotating TEME into the Earth-fixed frame
// by the Greenwich Mean Sidereal Time angle and then converting the Earth-fixed
// position to WGS-84 geodetic latitude/longitude.
//
// The GMST-only rotation ignores polar motion and the equation of the equinoxes,
// which costs tens of meters at most — irrelevant for a plotted ground track.
//
// Reference: Vallado, "Fundamentals of Astrodynamics and Applications", Ch. 3.
package transform

import (
	"math"
	"time"
)

// j2000 is the Julian Date of the J2000.0 epoch (January 1, 2000, 12:00:00).
const j2000 = 2451545.0

// JulianDate converts a UTC time to Julian Date using the standard
// astronomical algorithm.
func JulianDate(t time.Time) float64 {
	t = t.UTC()
	y := float64(t.Year())
	m := float64(t.Month())
	d := float64(t.Day())

	// Treat January and February as months 13/14 of the previous year.
	if m <= 2 {
		y--
		m += 12
	}

	a := math.Floor(y / 100)
	b := 2 - a + math.Floor(a/4)

	jd := math.Floor(365.25*(y+4716)) + math.Floor(30.6001*(m+1)) + d + b - 1524.5

	sec := float64(t.Hour())*3600 + float64(t.Minute())*60 +
		float64(t.Second()) + float64(t.Nanosecond())/1e9
	return jd + sec/86400.0
}

// GMST returns Greenwich Mean Sidereal Time in radians for a UTC time,
// normalized to [0, 2π). IAU-82 model, Vallado Eq 3-47:
//
//	θ_GMST = 67310.54841 + (876600h + 8640184.812866)*T + 0.093104*T² - 6.2e-6*T³
//
// with T in Julian centuries from J2000.0 and the result in seconds of time.
func GMST(t time.Time) float64 {
	tc := (JulianDate(t) - j2000) / 36525.0

	// 876600 hours = 3155760000 seconds.
	sec := 67310.54841 +
		(3155760000.0+8640184.812866)*tc +
		0.093104*tc*tc -
		6.2e-6*tc*tc*tc

	sec = math.Mod(sec, 86400.0)
	if sec < 0 {
		sec += 86400.0
	}
	return sec / 86400.0 * 2 * math.Pi
}

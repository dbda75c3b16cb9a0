package jones

import "math"

// HourAngleDec converts a horizon-frame direction (azimuth, zenith angle) to
// the equatorial hour angle and declination for an observer at the given
// latitude. All angles are radians.
func HourAngleDec(azRad, zaRad, latRad float64) (ha, dec float64) {
	el := math.Pi/2 - zaRad
	sinEl, cosEl := math.Sincos(el)
	sinLat, cosLat := math.Sincos(latRad)
	sinAz, cosAz := math.Sincos(azRad)

	dec = math.Asin(sinEl*sinLat + cosEl*cosLat*cosAz)
	ha = math.Atan2(-sinAz*cosEl, cosLat*sinEl-sinLat*cosEl*cosAz)
	return ha, dec
}

// ParallacticAngle returns the parallactic angle for a direction and observer
// latitude, in radians.
func ParallacticAngle(azRad, zaRad, latRad float64) float64 {
	ha, dec := HourAngleDec(azRad, zaRad, latRad)
	sinLat, cosLat := math.Sincos(latRad)
	sinHa, cosHa := math.Sincos(ha)
	return math.Atan2(cosLat*sinHa, sinLat*math.Cos(dec)-cosLat*math.Sin(dec)*cosHa)
}

// ApplyParallactic post-multiplies j by the parallactic-angle correction for
// the given direction and latitude. The correction rotates the sky frame onto
// the instrument frame; the extra pi/2 accounts for the azimuth origin being
// north while the X dipole points east.
func ApplyParallactic[F Float](j Jones[F], azRad, zaRad, latRad float64) Jones[F] {
	rot := Rotation[F](F(ParallacticAngle(azRad, zaRad, latRad) + math.Pi/2))
	return j.MulRight(rot)
}

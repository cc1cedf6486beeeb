package gamma

import "math"

// Whitepoint returns an (r, g, b) scaling triple in [0,1] for a blackbody (or
// daylight-illuminant, above 4000K) at the given Kelvin temperature. This is
// a port of wlsunset's calc_whitepoint: chromaticity comes from the
// Planckian locus below 2500K, illuminant D above 4000K, and a cosine blend
// of the two in between, then that chromaticity is converted through CIE
// XYZ into sRGB. The blend makes the curve continuous everywhere, including
// across 6600K as spec.md §4.3 requires — there is no seam there at all,
// since both neighborhoods fall in the illuminant D branch. 6500K returns
// (1,1,1): neutral daylight white.
func Whitepoint(tempK int) (r, g, b float64) {
	if tempK < 1000 {
		tempK = 1000
	}
	if tempK > 20000 {
		tempK = 20000
	}
	if tempK == 6500 {
		return 1, 1, 1
	}

	var x, y float64
	switch {
	case tempK >= 4000:
		x, y = illuminantD(tempK)
	case tempK >= 2500:
		x1, y1 := illuminantD(tempK)
		x2, y2 := planckianLocus(tempK)
		factor := (4000.0 - float64(tempK)) / 1500.0
		blend := (math.Cos(math.Pi*factor) + 1) / 2
		x = x1*blend + x2*(1-blend)
		y = y1*blend + y2*(1-blend)
	default:
		safeTempK := tempK
		if safeTempK < 1667 {
			safeTempK = 1667
		}
		x, y = planckianLocus(safeTempK)
	}

	z := 1 - x - y
	r, g, b = xyzToSRGB(x, y, z)
	return srgbNormalize(r, g, b)
}

// illuminantD gives the daylight locus's chromaticity coordinates, valid
// 2500K-25000K per CIE's standard illuminant D series.
func illuminantD(tempK int) (x, y float64) {
	t := float64(tempK)
	if tempK <= 7000 {
		x = 0.244063 + 0.09911e3/t + 2.9678e6/(t*t) - 4.6070e9/(t*t*t)
	} else {
		x = 0.237040 + 0.24748e3/t + 1.9018e6/(t*t) - 2.0064e9/(t*t*t)
	}
	y = -3.0*x*x + 2.870*x - 0.275
	return x, y
}

// planckianLocus gives the black-body locus's chromaticity coordinates,
// valid from 1667K up.
func planckianLocus(tempK int) (x, y float64) {
	t := float64(tempK)
	if tempK <= 4000 {
		x = -0.2661239e9/(t*t*t) - 0.2343589e6/(t*t) + 0.8776956e3/t + 0.179910
		if tempK <= 2222 {
			y = -1.1064814*x*x*x - 1.34811020*x*x + 2.18555832*x - 0.20219683
		} else {
			y = -0.9549476*x*x*x - 1.37418593*x*x + 2.09137015*x - 0.16748867
		}
	} else {
		x = -3.0258469e9/(t*t*t) + 2.1070379e6/(t*t) + 0.2226347e3/t + 0.240390
		y = 3.0817580*x*x*x - 5.87338670*x*x + 3.75112997*x - 0.37001483
	}
	return x, y
}

// xyzToSRGB converts a CIE XYZ color to linear-light-corrected sRGB via the
// standard transformation matrix, clamping each channel before the gamma
// curve since out-of-gamut chromaticities would otherwise raise a negative
// base to a fractional power.
func xyzToSRGB(x, y, z float64) (r, g, b float64) {
	r = srgbGamma(clampf(3.2404542*x-1.5371385*y-0.4985314*z, 0, 1))
	g = srgbGamma(clampf(-0.9692660*x+1.8760108*y+0.0415560*z, 0, 1))
	b = srgbGamma(clampf(0.0556434*x-0.2040259*y+1.0572252*z, 0, 1))
	return r, g, b
}

func srgbGamma(v float64) float64 {
	if v <= 0.0031308 {
		return 12.92 * v
	}
	return math.Pow(1.055*v, 1/2.2) - 0.055
}

// srgbNormalize scales so the brightest channel is 1.0, matching calc_whitepoint's
// own normalization rather than clamping each channel independently.
func srgbNormalize(r, g, b float64) (float64, float64, float64) {
	m := math.Max(r, math.Max(g, b))
	if m > 0 {
		r /= m
		g /= m
		b /= m
	}
	return r, g, b
}

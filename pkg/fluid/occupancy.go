package fluid

// triangleOccupancy returns the fractional area of a right triangle cut off
// a unit square corner where exactly one of the three sampled corners lies
// inside the solid (distance in), bracketed by two outside corners.
func triangleOccupancy(out1, in, out2 float64) float64 {
	return 0.5 * in * in / ((out1 - in) * (out2 - in))
}

// trapezoidOccupancy returns the fractional area inside the solid when two
// adjacent corners of the unit square lie inside it.
func trapezoidOccupancy(out1, out2, in1, in2 float64) float64 {
	return 0.5 * (-in1/(out1-in1) - in2/(out2-in2))
}

// occupancy computes the fraction of a unit cell, with corner signed
// distances d11 (bottom-left), d12 (bottom-right), d21 (top-left), d22
// (top-right), that lies inside the solid (negative distance). The 16-case
// table follows directly from marching-squares: each case is keyed by a
// 4-bit mask of which corners are inside, and is resolved analytically as a
// triangle, a trapezoid, two opposing triangles (the saddle cases), or one
// of the two trivial all-in/all-out cases. The saddle cases treat the
// d12-d21 diagonal as connected: with d11 and d22 inside, the occupancy is
// their two corner triangles; with d12 and d21 inside, it is one minus the
// two outside corner triangles at d11 and d22. Flipping the sign of every
// corner therefore always yields the complementary occupancy.
func occupancy(d11, d12, d21, d22 float64) float64 {
	ds := [4]float64{d11, d12, d22, d21}

	var b uint8
	for i := 3; i >= 0; i-- {
		b <<= 1
		if ds[i] < 0.0 {
			b |= 1
		}
	}

	switch b {
	case 0x0:
		return 0.0
	case 0x1:
		return triangleOccupancy(d21, d11, d12)
	case 0x2:
		return triangleOccupancy(d11, d12, d22)
	case 0x4:
		return triangleOccupancy(d12, d22, d21)
	case 0x8:
		return triangleOccupancy(d22, d21, d11)
	case 0xE:
		return 1.0 - triangleOccupancy(-d21, -d11, -d12)
	case 0xD:
		return 1.0 - triangleOccupancy(-d11, -d12, -d22)
	case 0xB:
		return 1.0 - triangleOccupancy(-d12, -d22, -d21)
	case 0x7:
		return 1.0 - triangleOccupancy(-d22, -d21, -d11)
	case 0x3:
		return trapezoidOccupancy(d21, d22, d11, d12)
	case 0x6:
		return trapezoidOccupancy(d11, d21, d12, d22)
	case 0x9:
		return trapezoidOccupancy(d12, d22, d11, d21)
	case 0xC:
		return trapezoidOccupancy(d11, d12, d21, d22)
	case 0x5:
		return triangleOccupancy(d21, d11, d12) + triangleOccupancy(d12, d22, d21)
	case 0xA:
		return 1.0 - triangleOccupancy(-d21, -d11, -d12) - triangleOccupancy(-d12, -d22, -d21)
	case 0xF:
		return 1.0
	}
	return 0.0
}

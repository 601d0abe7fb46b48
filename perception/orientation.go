package perception

import "autoclaim/models"

// Clock-dial orientation codes. 12 is the front of the vehicle, 3 its right,
// 6 the rear and 9 the left.
const (
	OrientationFront      = "12"
	OrientationRight      = "3"
	OrientationRear       = "6"
	OrientationLeft       = "9"
	OrientationFrontLeft  = "12-9"
	OrientationFrontRight = "12-3"
	OrientationRearLeft   = "6-9"
	OrientationRearRight  = "6-3"
	OrientationCenter     = "C"
	OrientationUnknown    = "?"

	POIUnknown = "Unknown"
)

const (
	sectorLow  = 0.4
	sectorHigh = 0.6
)

// clockDial maps the area-weighted centroid of all regions onto the clock
// face relative to the image centre and returns the POI label and code.
func clockDial(regions []models.DamageRegion, w, h int) (poi, code string) {
	if len(regions) == 0 || w == 0 || h == 0 {
		return POIUnknown, OrientationUnknown
	}

	var total, wx, wy float64
	for _, r := range regions {
		a := float64(r.AreaPx)
		total += a
		wx += r.Centroid.X * a
		wy += r.Centroid.Y * a
	}
	cx := wx / total / float64(w)
	cy := wy / total / float64(h)

	hLabel, hCode := "", ""
	switch {
	case cx < sectorLow:
		hLabel, hCode = "Left", OrientationLeft
	case cx > sectorHigh:
		hLabel, hCode = "Right", OrientationRight
	}

	vLabel, vCode := "", ""
	switch {
	case cy < sectorLow:
		vLabel, vCode = "Front", OrientationFront
	case cy > sectorHigh:
		vLabel, vCode = "Rear", OrientationRear
	}

	switch {
	case vCode == "" && hCode == "":
		return "Center", OrientationCenter
	case vCode == "":
		return hLabel, hCode
	case hCode == "":
		return vLabel, vCode
	default:
		return vLabel + "-" + hLabel, vCode + "-" + hCode
	}
}

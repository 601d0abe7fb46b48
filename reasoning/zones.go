package reasoning

import (
	"strings"

	"autoclaim/models"
)

type zone struct {
	key   string
	label string
}

// zoneHint guesses which part a region sits on from where its box falls in
// the frame, assuming the vehicle fills the photo. The model treats it as a
// hint only; it still names the part it actually sees.
func zoneHint(box models.BoundingBox, w, h int, poi string) zone {
	fw, fh := float64(max(w, 1)), float64(max(h, 1))
	cx := float64(box.X1+box.X2) / 2 / fw
	cy := float64(box.Y1+box.Y2) / 2 / fh
	width := float64(box.X2-box.X1) / fw

	left := cx < 0.5
	side := func(l, r zone) zone {
		if left {
			return l
		}
		return r
	}
	outer := cx < 0.30 || cx > 0.70
	centre := 0.2 < cx && cx < 0.8

	switch {
	case cy < 0.30 && centre:
		return zone{"hood", "Hood"}
	case cy < 0.40 && width > 0.3:
		return zone{"front_bumper", "Front Bumper"}
	case cy < 0.28 && outer:
		return side(zone{"headlamp_left", "Headlamp (Left)"}, zone{"headlamp_right", "Headlamp (Right)"})
	case cy > 0.75 && outer:
		return side(zone{"tail_lamp_left", "Tail Lamp (Left)"}, zone{"tail_lamp_right", "Tail Lamp (Right)"})
	case cy > 0.80 && centre:
		return zone{"rear_bumper", "Rear Bumper"}
	case 0.15 < cy && cy < 0.55 && (cx < 0.25 || cx > 0.75):
		return side(zone{"fender_left", "Fender (Left)"}, zone{"fender_right", "Fender (Right)"})
	case 0.30 < cy && cy < 0.80 && 0.15 < cx && cx < 0.85:
		if cy < 0.55 {
			return side(zone{"door_front_left", "Front Door (Left)"}, zone{"door_front_right", "Front Door (Right)"})
		}
		return side(zone{"door_rear_left", "Rear Door (Left)"}, zone{"door_rear_right", "Rear Door (Right)"})
	case cy > 0.55 && (cx < 0.25 || cx > 0.75):
		return side(zone{"quarter_panel_left", "Quarter Panel (Left)"}, zone{"quarter_panel_right", "Quarter Panel (Right)"})
	case cy < 0.50 && (strings.Contains(poi, "Front") || poi == "Center") && 0.15 < cx && cx < 0.85:
		return zone{"windshield_front", "Windshield (Front)"}
	}
	return poiZone(poi)
}

func poiZone(poi string) zone {
	p := strings.ToLower(poi)
	switch {
	case strings.Contains(p, "front"):
		return zone{"front_bumper", "Front Bumper"}
	case strings.Contains(p, "rear"):
		return zone{"rear_bumper", "Rear Bumper"}
	case strings.Contains(p, "left"):
		return zone{"fender_left", "Fender (Left)"}
	case strings.Contains(p, "right"):
		return zone{"fender_right", "Fender (Right)"}
	}
	return zone{"hood", "Hood"}
}

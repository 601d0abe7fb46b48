package reasoning

import (
	"fmt"
	"strings"

	"autoclaim/models"
)

// promptRegions bounds how many region boxes are described to the model.
const promptRegions = 5

const systemPrompt = `You are a certified vehicle damage assessment analyst for a motor insurance company.

1. Visual extraction:
   Look closely for every kind of damage in the image: surface, paint, structure and glass. Do not ignore minor scratches.
2. Part identification:
   Map each visual anomaly to the vehicle part it belongs to (e.g. "Front Bumper", "Left Headlight", "Hood").
3. Severity (integer 1-6):
   - Minor (1-2): superficial clear coat scratches or tiny dings that do not break the paint.
   - Moderate (3-4): deep scratches through the paint, visible creases, medium to large dents, scuffed bumper plastic.
   - Severe (5-6): shattered glass, crushed or folded panels, torn metal or plastic, structural misalignment.
4. Location:
   Give the centre of each damage as percentages of the image: x_percentage from the left edge, y_percentage from the top edge, both 0-100.
5. Repair or replace:
   - "REPAIR": the part can be pulled, filled and repainted.
   - "REPLACE": the part is shattered, torn or structurally compromised.

Output rules:
- Output ONLY a JSON array. No markdown, no explanation, no preamble.
- Each element has exactly these fields:
  {
    "part": "<vehicle part name, e.g. Front Bumper>",
    "part_key": "<snake_case part name, e.g. front_bumper>",
    "decision": "REPAIR" or "REPLACE",
    "severity_score": <integer 1 to 6>,
    "damage_type": "Dent" | "Scratch" | "Crack" | "Deformation" | "Paint Damage",
    "justification": "<one sentence>",
    "x_percentage": <number 0-100>,
    "y_percentage": <number 0-100>
  }
- List each part at most once.
- Do not output prices.
- If no damage is visible, output [].`

// userMessage summarizes the perception pass for the model.
func userMessage(p models.PerceptionResult) string {
	var b strings.Builder
	b.WriteString("Analyse the vehicle damage in the attached image.\n\n")
	fmt.Fprintf(&b, "Point of impact (from image analysis): %s (clock position %s)\n", p.POI, p.Orientation)
	fmt.Fprintf(&b, "Image metrics: brightness=%.3f, blur_score=%.1f, contrast=%.3f, resolution=%dx%d\n",
		p.ImageMetrics.Brightness, p.ImageMetrics.BlurScore, p.ImageMetrics.ContrastScore,
		p.ImageMetrics.Resolution.Width, p.ImageMetrics.Resolution.Height)
	fmt.Fprintf(&b, "High-gradient regions detected: %d\n", len(p.DamageRegions))
	for i, r := range p.DamageRegions {
		if i == promptRegions {
			break
		}
		z := zoneHint(r.BoundingBox, p.ImageMetrics.Resolution.Width, p.ImageMetrics.Resolution.Height, p.POI)
		fmt.Fprintf(&b, "  region %d: box=(%d,%d)-(%d,%d) area=%dpx intensity=%.2f likely part=%s (%s)\n",
			r.RegionID, r.BoundingBox.X1, r.BoundingBox.Y1, r.BoundingBox.X2, r.BoundingBox.Y2,
			r.AreaPx, r.GradientIntensity, z.label, z.key)
	}
	b.WriteString("\nThe likely part of each region is a position-based hint; name the part you actually see.\n")
	b.WriteString("Output the JSON array assessment of the damage.")
	return b.String()
}

package reasoning

import (
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"autoclaim/models"
)

const maxJustification = 200

var (
	errNoJSON    = errors.New("no JSON array in reply")
	nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)
)

// rawDecision accepts both the flat x/y_percentage layout and a nested
// location object.
type rawDecision struct {
	Part          string      `json:"part"`
	PartKey       string      `json:"part_key"`
	Decision      string      `json:"decision"`
	SeverityScore json.Number `json:"severity_score"`
	Justification string      `json:"justification"`
	DamageType    string      `json:"damage_type"`
	XPercentage   *float64    `json:"x_percentage"`
	YPercentage   *float64    `json:"y_percentage"`
	Location      *struct {
		XPercentage *float64 `json:"x_percentage"`
		YPercentage *float64 `json:"y_percentage"`
	} `json:"location"`
}

// stripCodeFences removes a surrounding markdown code block.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// extractArray isolates the JSON array in a reply. A bare array, an object
// with a "decisions" array, and an array embedded in prose are accepted.
func extractArray(text string) ([]json.RawMessage, error) {
	s := stripCodeFences(text)

	if strings.HasPrefix(s, "{") {
		var wrapped struct {
			Decisions []json.RawMessage `json:"decisions"`
		}
		if err := json.Unmarshal([]byte(s), &wrapped); err == nil && wrapped.Decisions != nil {
			return wrapped.Decisions, nil
		}
	}

	if !strings.HasPrefix(s, "[") {
		start, end := strings.Index(s, "["), strings.LastIndex(s, "]")
		if start < 0 || end <= start {
			return nil, errNoJSON
		}
		s = s[start : end+1]
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(s), &items); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}
	return items, nil
}

// parseDecisions validates every entry of a reply. Entries that cannot be
// trusted are dropped with a warning; duplicates of a part_key are merged
// keeping the most severe judgment.
func parseDecisions(text string) ([]models.PartDecision, []string, error) {
	items, err := extractArray(text)
	if err != nil {
		return nil, nil, err
	}

	var (
		warnings  []string
		decisions = make([]models.PartDecision, 0, len(items))
		byKey     = make(map[string]int, len(items))
	)
	for i, item := range items {
		var raw rawDecision
		if err := json.Unmarshal(item, &raw); err != nil {
			warnings = append(warnings, fmt.Sprintf("reasoning entry %d dropped: %v", i, err))
			continue
		}
		d, err := validateDecision(raw)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("reasoning entry %d dropped: %v", i, err))
			continue
		}

		if j, ok := byKey[d.PartKey]; ok {
			warnings = append(warnings, fmt.Sprintf("duplicate part %q merged", d.PartKey))
			if d.SeverityScore > decisions[j].SeverityScore {
				decisions[j] = d
			}
			continue
		}
		byKey[d.PartKey] = len(decisions)
		decisions = append(decisions, d)
	}
	return decisions, warnings, nil
}

func validateDecision(raw rawDecision) (models.PartDecision, error) {
	part := strings.TrimSpace(raw.Part)
	if part == "" {
		return models.PartDecision{}, errors.New("empty part name")
	}

	var decision models.RepairDecision
	switch strings.ToUpper(strings.TrimSpace(raw.Decision)) {
	case string(models.DecisionRepair):
		decision = models.DecisionRepair
	case string(models.DecisionReplace):
		decision = models.DecisionReplace
	default:
		return models.PartDecision{}, fmt.Errorf("part %q: invalid decision %q", part, raw.Decision)
	}

	sev, err := raw.SeverityScore.Float64()
	if err != nil || sev != math.Trunc(sev) || sev < 1 || sev > 6 {
		return models.PartDecision{}, fmt.Errorf("part %q: severity %q outside 1-6", part, raw.SeverityScore)
	}

	key := partKey(raw.PartKey, part)

	x, y := raw.XPercentage, raw.YPercentage
	if raw.Location != nil {
		if x == nil {
			x = raw.Location.XPercentage
		}
		if y == nil {
			y = raw.Location.YPercentage
		}
	}

	return models.PartDecision{
		Part:          part,
		PartKey:       key,
		Decision:      decision,
		SeverityScore: int(sev),
		Justification: truncate(strings.TrimSpace(raw.Justification), maxJustification),
		DamageType:    NormalizeDamageType(raw.DamageType),
		Location: models.Location{
			XPercentage: percentage(x),
			YPercentage: percentage(y),
		},
	}, nil
}

// Slug turns a part name into its join key: lowercase ASCII words joined by
// underscores. "Front Bumper" and "front-bumper" both become "front_bumper".
func Slug(s string) string {
	return strings.Trim(nonSlugChars.ReplaceAllString(strings.ToLower(s), "_"), "_")
}

// partKey prefers the collaborator's key, then the slug of the name. Names
// with no ASCII letters or digits get "part_" plus an FNV-1a hash of the
// lowercased name so distinct parts keep distinct keys.
func partKey(key, part string) string {
	if k := Slug(key); k != "" {
		return k
	}
	if k := Slug(part); k != "" {
		return k
	}
	h := fnv.New32a()
	h.Write([]byte(strings.ToLower(part)))
	return fmt.Sprintf("part_%08x", h.Sum32())
}

// NormalizeDamageType maps free-form labels onto the fixed damage vocabulary.
// An empty label stays empty.
func NormalizeDamageType(s string) models.DamageType {
	t := strings.ToLower(strings.TrimSpace(s))
	switch {
	case t == "":
		return ""
	case strings.Contains(t, "paint"):
		return models.DamagePaint
	case strings.Contains(t, "dent"):
		return models.DamageDent
	case strings.Contains(t, "scratch"), strings.Contains(t, "scuff"):
		return models.DamageScratch
	case strings.Contains(t, "crack"), strings.Contains(t, "shatter"), strings.Contains(t, "broken"):
		return models.DamageCrack
	case strings.Contains(t, "deform"), strings.Contains(t, "crush"), strings.Contains(t, "bent"):
		return models.DamageDeformation
	default:
		return models.DamageUnknown
	}
}

func percentage(v *float64) float64 {
	if v == nil || math.IsNaN(*v) {
		return 50
	}
	return math.Max(0, math.Min(100, *v))
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

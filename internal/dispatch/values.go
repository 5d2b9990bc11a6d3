package dispatch

import (
	"regexp"
	"strconv"
	"strings"
)

// DesignValues is the structured subset mined from a natural-language
// suggestion. Pointer fields distinguish "not mentioned" from zero.
// Relative carries an intensifier-derived proportional adjustment used
// when a property is named without an absolute value.
type DesignValues struct {
	Padding      *float64
	Spacing      *float64
	CornerRadius *float64
	Opacity      *float64
	FontSize     *float64
	Width        *float64
	Height       *float64
	ColorHex     string
	Visible      *bool

	// Relative is a multiplier applied to the current value when no
	// absolute number was given: 1.25 for "increase"/"larger", 0.75 for
	// "decrease"/"smaller", 0 when no intensifier was found.
	Relative float64
}

// IsEmpty reports whether nothing structured was extracted.
func (v DesignValues) IsEmpty() bool {
	return v.Padding == nil && v.Spacing == nil && v.CornerRadius == nil &&
		v.Opacity == nil && v.FontSize == nil && v.Width == nil &&
		v.Height == nil && v.ColorHex == "" && v.Visible == nil &&
		v.Relative == 0
}

var (
	paddingRe  = regexp.MustCompile(`(?i)padding\D{0,20}?(\d+(?:\.\d+)?)\s*(?:px)?`)
	spacingRe  = regexp.MustCompile(`(?i)(?:spacing|gap)\D{0,20}?(\d+(?:\.\d+)?)\s*(?:px)?`)
	radiusRe   = regexp.MustCompile(`(?i)(?:corner\s*)?radius\D{0,20}?(\d+(?:\.\d+)?)\s*(?:px)?`)
	opacityRe  = regexp.MustCompile(`(?i)opacity\D{0,20}?(\d+(?:\.\d+)?)\s*(%)?`)
	fontSizeRe = regexp.MustCompile(`(?i)(?:font[\s-]*size|text size)\D{0,20}?(\d+(?:\.\d+)?)\s*(?:px|pt)?`)
	widthRe    = regexp.MustCompile(`(?i)width\D{0,20}?(\d+(?:\.\d+)?)\s*(?:px)?`)
	heightRe   = regexp.MustCompile(`(?i)height\D{0,20}?(\d+(?:\.\d+)?)\s*(?:px)?`)
	hexRe      = regexp.MustCompile(`#(?:[0-9a-fA-F]{6}|[0-9a-fA-F]{3})\b`)
)

// namedColorRe matches whole color words, for suggestions like "make the
// button red". Word boundaries keep substring hits ("red" inside
// "reduce") from counting.
var namedColorRe = regexp.MustCompile(`\b(white|black|red|green|blue|gray|grey)\b`)

var namedColorHex = map[string]string{
	"white": "#FFFFFF",
	"black": "#000000",
	"red":   "#E53935",
	"green": "#43A047",
	"blue":  "#1E88E5",
	"gray":  "#9E9E9E",
	"grey":  "#9E9E9E",
}

// ExtractDesignValues mines a suggestion string for structured property
// values. Purely heuristic; each pattern is independent so partial
// extraction is the common case.
func ExtractDesignValues(text string) DesignValues {
	var v DesignValues
	lower := strings.ToLower(text)

	v.Padding = matchNumber(paddingRe, text)
	v.Spacing = matchNumber(spacingRe, text)
	v.CornerRadius = matchNumber(radiusRe, text)
	v.FontSize = matchNumber(fontSizeRe, text)
	v.Width = matchNumber(widthRe, text)
	v.Height = matchNumber(heightRe, text)

	if m := opacityRe.FindStringSubmatch(text); m != nil {
		if f, err := strconv.ParseFloat(m[1], 64); err == nil {
			// Accept both 0..1 and percentage forms.
			if m[2] == "%" || f > 1 {
				f = f / 100
			}
			if f >= 0 && f <= 1 {
				v.Opacity = &f
			}
		}
	}

	if m := hexRe.FindString(text); m != "" {
		v.ColorHex = strings.ToUpper(m)
	} else if names := namedColorRe.FindAllString(lower, -1); len(names) > 0 {
		// With several color words ("change the red button to blue") the
		// last mention is the requested target.
		v.ColorHex = namedColorHex[names[len(names)-1]]
	}

	switch {
	case strings.Contains(lower, "hide") || strings.Contains(lower, "invisible") || strings.Contains(lower, "remove"):
		f := false
		v.Visible = &f
	case strings.Contains(lower, "show") || strings.Contains(lower, "unhide") || strings.Contains(lower, "make visible"):
		t := true
		v.Visible = &t
	}

	switch {
	case strings.Contains(lower, "increase") || strings.Contains(lower, "larger") ||
		strings.Contains(lower, "bigger") || strings.Contains(lower, "more "):
		v.Relative = 1.25
	case strings.Contains(lower, "decrease") || strings.Contains(lower, "smaller") ||
		strings.Contains(lower, "reduce") || strings.Contains(lower, "less "):
		v.Relative = 0.75
	}

	return v
}

func matchNumber(re *regexp.Regexp, text string) *float64 {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	return &f
}

// Package palette maps subject names to stable background colors and picks
// a legible text color for any background. Every visual renderer goes
// through this package so the same subject is colored identically in every
// exported document.
package palette

import (
	"fmt"
	"strings"
)

// RGB is a 24-bit color.
type RGB struct {
	R uint8
	G uint8
	B uint8
}

// Hex returns the #RRGGBB form of the color.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

var (
	// Black and White are the two permitted text colors.
	Black = RGB{0x00, 0x00, 0x00}
	White = RGB{0xFF, 0xFF, 0xFF}

	// FreeColor is the neutral fill for FREE/break cells.
	FreeColor = RGB{0xF0, 0xF0, 0xF0}

	// DefaultColor fills cells whose subject matches no keyword.
	DefaultColor = RGB{0xCF, 0xD8, 0xDC}
)

// rule binds a subject keyword to its fill color. Rules are scanned in
// order and the first keyword found as a substring wins, so more specific
// keywords must precede broader ones.
type rule struct {
	keyword string
	color   RGB
}

var rules = []rule{
	{"COMPUTER", RGB{0x90, 0xCA, 0xF9}},
	{"MATH", RGB{0xFF, 0xCC, 0x80}},
	{"PHYSIC", RGB{0xCE, 0x93, 0xD8}},
	{"CHEMIST", RGB{0xA5, 0xD6, 0xA7}},
	{"BIOLOG", RGB{0xC5, 0xE1, 0xA5}},
	{"ELECTRON", RGB{0x80, 0xDE, 0xEA}},
	{"ELECTRIC", RGB{0x80, 0xCB, 0xC4}},
	{"MECHAN", RGB{0xBC, 0xAA, 0xA4}},
	{"CIVIL", RGB{0xFF, 0xAB, 0x91}},
	{"ENGLISH", RGB{0xFF, 0xF5, 0x9D}},
	{"COMMUNICAT", RGB{0xFF, 0xE0, 0x82}},
	{"LAB", RGB{0xB3, 0x9D, 0xDB}},
	{"PROJECT", RGB{0x9F, 0xA8, 0xDA}},
	{"SEMINAR", RGB{0xF4, 0x8F, 0xB1}},
	{"SPORT", RGB{0xEF, 0x9A, 0x9A}},
	{"LIBRARY", RGB{0xFF, 0xD5, 0x4F}},
}

// ColorFor resolves a subject's background color. FREE/break subjects get
// the neutral color; otherwise the first matching keyword rule wins and
// unmatched subjects share one default. Deterministic: equal input, equal
// output.
func ColorFor(subject string) RGB {
	normalized := strings.ToUpper(strings.TrimSpace(subject))
	if normalized == "" || strings.Contains(normalized, "FREE") || strings.Contains(normalized, "BREAK") {
		return FreeColor
	}
	for _, r := range rules {
		if strings.Contains(normalized, r.keyword) {
			return r.color
		}
	}
	return DefaultColor
}

// ContrastFor picks black or white text for the given background using the
// Rec. 601 luma weights. Integer milli-weights keep the 128 threshold
// exact: the float weights sum to just under 1.0 and push a uniform
// {128,128,128} background below the cutoff.
func ContrastFor(bg RGB) RGB {
	luma := 299*int(bg.R) + 587*int(bg.G) + 114*int(bg.B)
	if luma >= 128*1000 {
		return Black
	}
	return White
}

// Colors returns every color the resolver can produce, free and default
// included. Useful for exercising contrast across the whole palette.
func Colors() []RGB {
	colors := make([]RGB, 0, len(rules)+2)
	colors = append(colors, FreeColor, DefaultColor)
	for _, r := range rules {
		colors = append(colors, r.color)
	}
	return colors
}

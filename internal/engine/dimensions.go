package engine

import (
	"regexp"
	"strconv"
	"strings"

	"kabs/internal"
)

const (
	wallHeight   = 30
	wallDepth    = 12
	baseHeight   = 34.5
	baseDepth    = 24
	tallHeight   = 84
	tallDepth    = 24
	vanityDepth  = 21
	panelWidth   = 3
	defaultWidth = 3
)

type dimensionTemplate struct {
	re    *regexp.Regexp
	build func(m []string) internal.CabinetDimensions
}

// Order matters: the generic digit fallback would swallow every code if it
// ran before the typed prefixes.
var dimensionTemplates = []dimensionTemplate{
	{
		re: regexp.MustCompile(`^(WDC|WBC|WC|W)(\d{2})(\d{2})?`),
		build: func(m []string) internal.CabinetDimensions {
			return internal.CabinetDimensions{
				Type:   internal.CabinetWall,
				Width:  atof(m[2]),
				Height: atofOr(m[3], wallHeight),
				Depth:  wallDepth,
			}
		},
	},
	{
		re: regexp.MustCompile(`^(BBC|SB|DB|LS|BC|PB|B)(\d{2})`),
		build: func(m []string) internal.CabinetDimensions {
			return internal.CabinetDimensions{
				Type:   internal.CabinetBase,
				Width:  atof(m[2]),
				Height: baseHeight,
				Depth:  baseDepth,
			}
		},
	},
	{
		re: regexp.MustCompile(`^RR(\d{2,3})`),
		build: func(m []string) internal.CabinetDimensions {
			return internal.CabinetDimensions{
				Type:   internal.CabinetTall,
				Width:  panelWidth,
				Height: atof(m[1]),
				Depth:  tallDepth,
			}
		},
	},
	{
		re: regexp.MustCompile(`^(TP|U|T)(\d{2})(\d{2,3})?`),
		build: func(m []string) internal.CabinetDimensions {
			return internal.CabinetDimensions{
				Type:   internal.CabinetTall,
				Width:  atof(m[2]),
				Height: atofOr(m[3], tallHeight),
				Depth:  tallDepth,
			}
		},
	},
	{
		re: regexp.MustCompile(`^(WF|BF|TK|CM|REP|DWR|DWP)(\d+)?`),
		build: func(m []string) internal.CabinetDimensions {
			return internal.CabinetDimensions{
				Type:  internal.CabinetAccessory,
				Width: atofOr(m[2], defaultWidth),
			}
		},
	},
	{
		re: regexp.MustCompile(`^(VSB|V)(\d+)`),
		build: func(m []string) internal.CabinetDimensions {
			return internal.CabinetDimensions{
				Type:   internal.CabinetVanity,
				Width:  atof(m[2]),
				Height: baseHeight,
				Depth:  vanityDepth,
			}
		},
	},
}

var hardwareKeywords = []string{"HINGE", "GLIDE", "PULL", "KNOB", "CONN", "SCREW"}

var reFirstNumber = regexp.MustCompile(`\d+`)

// ParseDimensions classifies a normalized code and derives its nominal size
// in inches. It returns nil only for an empty code.
func ParseDimensions(code string) *internal.CabinetDimensions {
	if code == "" {
		return nil
	}

	for _, tpl := range dimensionTemplates {
		if m := tpl.re.FindStringSubmatch(code); m != nil {
			d := tpl.build(m)
			d.Code = code
			return &d
		}
	}

	for _, kw := range hardwareKeywords {
		if strings.Contains(code, kw) {
			return &internal.CabinetDimensions{Type: internal.CabinetHardware, Code: code}
		}
	}

	if n := reFirstNumber.FindString(code); n != "" {
		return &internal.CabinetDimensions{Type: internal.CabinetAccessory, Width: atof(n), Code: code}
	}

	return &internal.CabinetDimensions{Type: internal.CabinetUnknown, Code: code}
}

// DimensionLabel renders dimensions as `24"W x 30"H x 12"D`, skipping zero
// measurements. Empty when nothing is known.
func DimensionLabel(d internal.CabinetDimensions) string {
	var parts []string
	if d.Width > 0 {
		parts = append(parts, formatInches(d.Width)+`"W`)
	}
	if d.Height > 0 {
		parts = append(parts, formatInches(d.Height)+`"H`)
	}
	if d.Depth > 0 {
		parts = append(parts, formatInches(d.Depth)+`"D`)
	}
	return strings.Join(parts, " x ")
}

func formatInches(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func atof(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func atofOr(s string, def float64) float64 {
	if s == "" {
		return def
	}
	return atof(s)
}

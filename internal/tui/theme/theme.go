// Package theme holds the palettes the dashboard renders with. Views read
// colors from Active at draw time, so switching palettes takes effect on the
// next frame without rebuilding model state.
package theme

import "github.com/charmbracelet/lipgloss"

// Theme assigns a concrete color to each role the views style against.
// Views name roles, never raw colors.
type Theme struct {
	Name string

	// Canvas layers, darkest to brightest.
	Background    lipgloss.Color
	Surface       lipgloss.Color
	SurfaceHover  lipgloss.Color
	SurfaceBright lipgloss.Color

	// Borders. BorderAccent marks the focused pane.
	Border       lipgloss.Color
	BorderAccent lipgloss.Color

	// Text contrast ramp, lowest to highest.
	TextDim     lipgloss.Color
	TextMuted   lipgloss.Color
	TextPrimary lipgloss.Color

	// Interactive accent.
	Accent       lipgloss.Color
	AccentBright lipgloss.Color

	// Status and chart hues. Green reads as on pace, orange as drifting,
	// red as over budget.
	Green       lipgloss.Color
	GreenBright lipgloss.Color
	Orange      lipgloss.Color
	Red         lipgloss.Color
	Blue        lipgloss.Color
	Yellow      lipgloss.Color
	Cyan        lipgloss.Color
}

// color is shorthand for palette literals. Accepts hex or ANSI indices.
func color(v string) lipgloss.Color { return lipgloss.Color(v) }

// Active is the palette in effect.
var Active = All[0]

// All lists the built-in palettes in the order the settings picker shows
// them. The first entry is the default.
var All = []Theme{
	{
		// Flexoki dark, the warm ink-and-paper palette.
		Name:          "flexoki-dark",
		Background:    color("#100F0F"),
		Surface:       color("#1C1B1A"),
		SurfaceHover:  color("#282726"),
		SurfaceBright: color("#343331"),
		Border:        color("#403E3C"),
		BorderAccent:  color("#3AA99F"),
		TextDim:       color("#575653"),
		TextMuted:     color("#878580"),
		TextPrimary:   color("#FFFCF0"),
		Accent:        color("#3AA99F"),
		AccentBright:  color("#5BC8BE"),
		Green:         color("#879A39"),
		GreenBright:   color("#A3B859"),
		Orange:        color("#DA702C"),
		Red:           color("#D14D41"),
		Blue:          color("#4385BE"),
		Yellow:        color("#D0A215"),
		Cyan:          color("#24837B"),
	},
	{
		// Catppuccin mocha, soft pastels on a blue-black base.
		Name:          "catppuccin-mocha",
		Background:    color("#1E1E2E"),
		Surface:       color("#313244"),
		SurfaceHover:  color("#45475A"),
		SurfaceBright: color("#585B70"),
		Border:        color("#585B70"),
		BorderAccent:  color("#89B4FA"),
		TextDim:       color("#6C7086"),
		TextMuted:     color("#A6ADC8"),
		TextPrimary:   color("#CDD6F4"),
		Accent:        color("#89B4FA"),
		AccentBright:  color("#B4D0FB"),
		Green:         color("#A6E3A1"),
		GreenBright:   color("#C6F6C1"),
		Orange:        color("#FAB387"),
		Red:           color("#F38BA8"),
		Blue:          color("#89B4FA"),
		Yellow:        color("#F9E2AF"),
		Cyan:          color("#94E2D5"),
	},
	{
		// Nord, arctic frost over polar night grays.
		Name:          "nord",
		Background:    color("#2E3440"),
		Surface:       color("#3B4252"),
		SurfaceHover:  color("#434C5E"),
		SurfaceBright: color("#4C566A"),
		Border:        color("#4C566A"),
		BorderAccent:  color("#88C0D0"),
		TextDim:       color("#616E88"),
		TextMuted:     color("#D8DEE9"),
		TextPrimary:   color("#ECEFF4"),
		Accent:        color("#88C0D0"),
		AccentBright:  color("#8FBCBB"),
		Green:         color("#A3BE8C"),
		GreenBright:   color("#B5CF9C"),
		Orange:        color("#D08770"),
		Red:           color("#BF616A"),
		Blue:          color("#81A1C1"),
		Yellow:        color("#EBCB8B"),
		Cyan:          color("#8FBCBB"),
	},
	{
		// Plain ANSI 16, follows whatever scheme the terminal has.
		Name:          "terminal",
		Background:    color("0"),
		Surface:       color("0"),
		SurfaceHover:  color("8"),
		SurfaceBright: color("8"),
		Border:        color("8"),
		BorderAccent:  color("6"),
		TextDim:       color("8"),
		TextMuted:     color("7"),
		TextPrimary:   color("15"),
		Accent:        color("6"),
		AccentBright:  color("14"),
		Green:         color("2"),
		GreenBright:   color("10"),
		Orange:        color("3"),
		Red:           color("1"),
		Blue:          color("4"),
		Yellow:        color("3"),
		Cyan:          color("6"),
	},
}

// ByName returns the palette with the given name. Unknown names resolve to
// the default palette.
func ByName(name string) Theme {
	for _, t := range All {
		if t.Name == name {
			return t
		}
	}
	return All[0]
}

// SetActive switches the palette every view renders with.
func SetActive(name string) {
	Active = ByName(name)
}

package theme

import "github.com/lushell/promptline/internal/color"

// Builtins returns the three themes that are always registered before
// any user theme is loaded.
func Builtins() []*Theme {
	return []*Theme{defaultTheme(), minimalTheme(), powerlineTheme()}
}

func basePalette() Palette {
	return Palette{
		"primary":   color.Indexed(39),  // blue
		"secondary": color.Indexed(75),  // pale blue
		"text":      color.Indexed(252), // near-white
		"success":   color.Indexed(34),  // green
		"warning":   color.Indexed(214), // orange
		"error":     color.Indexed(196), // red
		"muted":     color.Indexed(242), // gray
		"git_clean": color.Indexed(34),
		"git_dirty": color.Indexed(214),
	}
}

func baseSymbols() Symbols {
	return Symbols{
		PromptChar:     "$",
		RootChar:       "#",
		Branch:         "\ue0a0",
		SeparatorLeft:  DefaultSeparatorLeft,
		SeparatorRight: DefaultSeparatorRight,
	}
}

func defaultTheme() *Theme {
	return &Theme{
		Name:        "default",
		Description: "Colored prompt with inline git status",
		Category:    "general",
		Colors:      basePalette(),
		Symbols:     baseSymbols(),
		Layout: Layout{
			Style:     StylePlain,
			PS1Format: `${primary:\u@\h} \w ${?git:${git} }\$ `,
			PS2Format: `> `,
		},
		EnabledSegments: []string{"user", "host", "directory", "git"},
	}
}

func minimalTheme() *Theme {
	return &Theme{
		Name:        "minimal",
		Description: "Bare directory and prompt character",
		Category:    "general",
		Colors:      basePalette(),
		Symbols:     baseSymbols(),
		Layout: Layout{
			Style:     StylePlain,
			PS1Format: `%~ %# `,
			PS2Format: `> `,
		},
		EnabledSegments: []string{"directory"},
	}
}

func powerlineTheme() *Theme {
	p := basePalette()
	p["text"] = color.Color{Mode: color.ModeRGB, R: 255, G: 255, B: 255, Bold: true}
	return &Theme{
		Name:        "powerline",
		Description: "Colored blocks joined by arrow separators",
		Category:    "fancy",
		Colors:      p,
		Symbols:     baseSymbols(),
		Layout: Layout{
			Style:           StylePowerline,
			PS1Format:       "", // powerline path ignores PS1 format
			PS2Format:       `> `,
			RPromptFormat:   `%T`,
			EnableTransient: false,
		},
		EnabledSegments: []string{"user", "host", "directory", "git", "status", "jobs"},
	}
}

// Package theme models named prompt themes: palette, symbols, layout,
// the ordered segment list, and per-segment overrides. Themes are
// immutable once registered; the registry hands the render path one
// consistent theme pointer at a time.
package theme

import "github.com/lushell/promptline/internal/color"

// Style selects the rendering path for a theme.
type Style string

const (
	StylePlain     Style = "plain"
	StylePowerline Style = "powerline"
)

// Default separator glyphs (powerline arrows).
const (
	DefaultSeparatorLeft  = "\ue0b0" // U+E0B0, right-pointing
	DefaultSeparatorRight = "\ue0b2" // U+E0B2, left-pointing
)

// Palette maps palette color names (primary, text, git_dirty, ...) to
// colors.
type Palette map[string]color.Color

// Get looks up a palette color by name.
func (p Palette) Get(name string) (color.Color, bool) {
	c, ok := p[name]
	return c, ok
}

// Symbols holds the glyphs a theme renders with.
type Symbols struct {
	PromptChar     string
	RootChar       string
	Branch         string
	SeparatorLeft  string
	SeparatorRight string
}

// Layout holds the prompt format strings and layout switches.
type Layout struct {
	Style               Style
	PS1Format           string
	PS2Format           string
	RPromptFormat       string
	EnableTransient     bool
	TransientFormat     string
	NewlineBeforePrompt bool
}

// SegmentOverride carries a theme's per-segment configuration. Nil
// pointer fields mean "not configured".
type SegmentOverride struct {
	FG               *color.Color
	BG               *color.Color
	Show             *bool
	TruncationLength int
	Format           string
}

// Theme is one named bundle. All fields are read-only after
// registration.
type Theme struct {
	Name        string
	Description string
	Category    string

	Colors  Palette
	Symbols Symbols
	Layout  Layout

	// Syntax carries syntax-highlighting colors from theme files. The
	// prompt pipeline does not consume them; they ride along for the
	// editor's highlighter.
	Syntax Palette

	// EnabledSegments is both membership and order for segment-driven
	// rendering.
	EnabledSegments []string

	Overrides map[string]SegmentOverride
}

// Override returns the per-segment override for name.
func (t *Theme) Override(name string) (SegmentOverride, bool) {
	o, ok := t.Overrides[name]
	return o, ok
}

// SegmentShown reports whether the theme allows name to render (the
// per-segment show flag; defaults to shown).
func (t *Theme) SegmentShown(name string) bool {
	if o, ok := t.Overrides[name]; ok && o.Show != nil {
		return *o.Show
	}
	return true
}

// SeparatorLeft returns the configured left separator or the default.
func (t *Theme) SeparatorLeft() string {
	if t.Symbols.SeparatorLeft != "" {
		return t.Symbols.SeparatorLeft
	}
	return DefaultSeparatorLeft
}

// SeparatorRight returns the configured right separator or the default.
func (t *Theme) SeparatorRight() string {
	if t.Symbols.SeparatorRight != "" {
		return t.Symbols.SeparatorRight
	}
	return DefaultSeparatorRight
}

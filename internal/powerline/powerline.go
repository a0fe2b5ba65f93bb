// Package powerline renders enabled theme segments as colored blocks
// joined by arrow glyphs. Segment output is stripped of embedded SGR
// sequences because each block enforces its own foreground and
// background; the separator between two blocks takes the previous
// block's background as its foreground.
package powerline

import (
	"github.com/mattn/go-runewidth"

	"github.com/lushell/promptline/internal/color"
	"github.com/lushell/promptline/internal/prompt"
	"github.com/lushell/promptline/internal/segment"
	"github.com/lushell/promptline/internal/theme"
)

// Direction selects arrow orientation.
type Direction int

const (
	// LeftToRight renders PS1-style with right-pointing arrows.
	LeftToRight Direction = iota
	// RightToLeft renders RPROMPT-style with left-pointing arrows.
	RightToLeft
)

// MaxVisible bounds the blocks rendered in one pass.
const MaxVisible = 32

// block is one rendered segment with resolved colors. It lives only
// for the duration of a render.
type block struct {
	content string
	width   int // display cells
	fg, bg  color.Color
}

// defaultBG returns the background for a segment the theme does not
// configure. True-color values: palette indices get remapped by
// terminal colorschemes and produce unpredictable results.
func defaultBG(name string) color.Color {
	switch name {
	case "user", "host", "shlvl":
		return color.RGB(68, 68, 68) // #444444 dark gray
	case "directory", "kubernetes":
		return color.RGB(0, 95, 175) // #005FAF strong blue
	case "git":
		return color.RGB(135, 95, 175) // #875FAF medium purple
	case "status":
		return color.RGB(175, 0, 0) // #AF0000 strong red
	case "jobs", "ssh", "cmd_duration", "aws":
		return color.RGB(175, 95, 0) // #AF5F00 orange
	case "time":
		return color.RGB(58, 58, 58) // #3A3A3A dim gray
	case "virtualenv":
		return color.RGB(0, 135, 0) // #008700 green
	case "container":
		return color.RGB(0, 135, 135) // #008787 teal
	default:
		return color.RGB(68, 68, 68)
	}
}

// resolveColors picks fg/bg for a segment: bold white foreground unless
// the theme's text color or a per-segment override says otherwise, then
// downgrades both against the terminal capability.
func resolveColors(th *theme.Theme, name string, ctx *prompt.Context) (fg, bg color.Color) {
	fg = color.RGB(255, 255, 255)
	fg.Bold = true
	bg = defaultBG(name)

	if th != nil {
		if text, ok := th.Colors.Get("text"); ok {
			fg = text
		}
		if o, ok := th.Override(name); ok {
			if o.FG != nil {
				fg = *o.FG
			}
			if o.BG != nil {
				bg = *o.BG
			}
		}
	}

	fg = color.Downgrade(fg, ctx.HasTrueColor, ctx.Has256Color)
	bg = color.Downgrade(bg, ctx.HasTrueColor, ctx.Has256Color)
	return fg, bg
}

// StripANSI removes CSI sequences (ESC [ ... final byte) from s.
func StripANSI(s string) string {
	var out []byte
	for i := 0; i < len(s); i++ {
		if s[i] == 0x1b && i+1 < len(s) && s[i+1] == '[' {
			i += 2
			for i < len(s) && (s[i] < 0x40 || s[i] > 0x7e) {
				i++
			}
			// Loop increment skips the final byte.
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}

// collect renders the theme's enabled segments in order, keeping the
// visible non-empty ones with stripped content and resolved colors.
func collect(th *theme.Theme, reg *segment.Registry, ctx *prompt.Context) []block {
	var blocks []block
	for _, name := range th.EnabledSegments {
		if len(blocks) == MaxVisible {
			break
		}
		content, ok := reg.RenderFor(name, ctx, th)
		if !ok {
			continue
		}
		content = StripANSI(content)
		if content == "" {
			continue
		}
		fg, bg := resolveColors(th, name, ctx)
		blocks = append(blocks, block{
			content: content,
			width:   runewidth.StringWidth(content) + 2, // padding spaces
			fg:      fg,
			bg:      bg,
		})
	}
	return blocks
}

// Render assembles the powerline byte string for the active theme.
// Output is clipped at max bytes (PromptOutputMax when max <= 0).
func Render(th *theme.Theme, reg *segment.Registry, ctx *prompt.Context, dir Direction, max int) string {
	if th == nil || reg == nil || ctx == nil {
		return ""
	}

	blocks := collect(th, reg, ctx)
	if len(blocks) == 0 {
		return ""
	}

	out := prompt.NewCappedBuilder(max)
	if dir == LeftToRight {
		renderLeftToRight(blocks, th.SeparatorLeft(), out)
	} else {
		renderRightToLeft(blocks, th.SeparatorRight(), out)
	}
	return out.String()
}

// renderLeftToRight emits each block as bg+fg+padded content. The
// first block sets its own background; every later block's background
// is established by the preceding separator (fg=prev.bg, bg=this.bg).
// The trailing separator fades the last background onto the terminal
// default.
func renderLeftToRight(blocks []block, separator string, out *prompt.CappedBuilder) {
	for i := range blocks {
		b := &blocks[i]

		if i == 0 {
			out.WriteString(b.bg.ANSI(false))
		}
		out.WriteString(b.fg.ANSI(true))
		out.WriteString(" ")
		out.WriteString(b.content)
		out.WriteString(" ")

		if i+1 < len(blocks) {
			out.WriteString(asFg(b.bg).ANSI(true))
			out.WriteString(blocks[i+1].bg.ANSI(false))
			out.WriteString(separator)
		} else {
			out.WriteString(color.Reset)
			out.WriteString(asFg(b.bg).ANSI(true))
			out.WriteString(separator)
			out.WriteString(color.Reset)
		}
	}
}

// renderRightToLeft mirrors the left-to-right form: each block is
// preceded by its separator (first on the terminal default background,
// later ones on the previous block's background).
func renderRightToLeft(blocks []block, separator string, out *prompt.CappedBuilder) {
	for i := range blocks {
		b := &blocks[i]

		out.WriteString(asFg(b.bg).ANSI(true))
		if i > 0 {
			out.WriteString(blocks[i-1].bg.ANSI(false))
		}
		out.WriteString(separator)

		out.WriteString(b.bg.ANSI(false))
		out.WriteString(b.fg.ANSI(true))
		out.WriteString(" ")
		out.WriteString(b.content)
		out.WriteString(" ")
	}
	out.WriteString(color.Reset)
}

// asFg strips attribute flags so a background color reused as a
// separator foreground emits only its color half.
func asFg(c color.Color) color.Color {
	c.Bold = false
	c.Dim = false
	c.Italic = false
	c.Underline = false
	c.Reverse = false
	return c
}

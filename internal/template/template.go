// Package template implements pass 1 of the prompt pipeline: resolving
// ${name}, ${name.prop}, ${?cond:t:f}, and ${color:text} forms against
// the segment registry and the active theme's palette. Everything else
// — including bash \X and zsh %X escapes — passes through verbatim for
// the escape expander.
package template

import (
	"strings"

	"github.com/lushell/promptline/internal/color"
	"github.com/lushell/promptline/internal/prompt"
	"github.com/lushell/promptline/internal/segment"
	"github.com/lushell/promptline/internal/theme"
)

// Engine evaluates template syntax against a segment registry.
type Engine struct {
	segments *segment.Registry
}

// New returns an engine bound to reg.
func New(reg *segment.Registry) *Engine {
	return &Engine{segments: reg}
}

// Evaluate expands the template forms in format. Output is clipped at
// max bytes (PromptOutputMax when max <= 0).
func (e *Engine) Evaluate(format string, ctx *prompt.Context, th *theme.Theme, max int) string {
	out := prompt.NewCappedBuilder(max)
	e.scan(format, ctx, th, out, false)
	return out.String()
}

// scan walks src emitting into out. Inside conditional and color arms
// (inArm) the engine honors its own minimal escapes \n, \\, \$ so arm
// text can spell those literally; at the top level every backslash is
// left for pass 2.
func (e *Engine) scan(src string, ctx *prompt.Context, th *theme.Theme, out *prompt.CappedBuilder, inArm bool) {
	for i := 0; i < len(src); {
		c := src[i]

		if c == '$' && i+1 < len(src) && src[i+1] == '{' {
			end := matchBrace(src, i+2)
			if end < 0 {
				// Unterminated: verbatim to the end.
				out.WriteString(src[i:])
				return
			}
			e.emitExpr(src[i+2:end], src[i:end+1], ctx, th, out)
			i = end + 1
			continue
		}

		if inArm && c == '\\' && i+1 < len(src) {
			switch src[i+1] {
			case 'n':
				out.WriteByte('\n')
				i += 2
				continue
			case '\\':
				out.WriteByte('\\')
				i += 2
				continue
			case '$':
				out.WriteByte('$')
				i += 2
				continue
			}
		}

		out.WriteByte(c)
		i++
	}
}

// matchBrace returns the index of the '}' closing the expression whose
// body starts at from, honoring nested ${...}, or -1.
func matchBrace(src string, from int) int {
	depth := 0
	for i := from; i < len(src); i++ {
		switch {
		case src[i] == '$' && i+1 < len(src) && src[i+1] == '{':
			depth++
			i++
		case src[i] == '}':
			if depth == 0 {
				return i
			}
			depth--
		}
	}
	return -1
}

// emitExpr evaluates one ${...} body. raw is the full original text
// emitted verbatim when the expression does not resolve.
func (e *Engine) emitExpr(body, raw string, ctx *prompt.Context, th *theme.Theme, out *prompt.CappedBuilder) {
	if body == "" {
		out.WriteString(raw)
		return
	}

	if body[0] == '?' {
		e.emitConditional(body[1:], ctx, th, out)
		return
	}

	if idx := topLevelColon(body); idx >= 0 {
		name := body[:idx]
		if th != nil {
			if c, ok := th.Colors.Get(name); ok {
				e.emitColored(c, body[idx+1:], ctx, th, out)
				return
			}
		}
		out.WriteString(raw)
		return
	}

	if name, prop, hasProp := strings.Cut(body, "."); hasProp {
		e.emitProperty(name, prop, raw, ctx, out)
		return
	}

	if content, ok := e.segments.RenderFor(body, ctx, th); ok {
		out.WriteString(content)
		return
	}
	if !e.segments.Has(body) {
		// Unknown names pass through so pass 2 sees them as literals.
		out.WriteString(raw)
	}
	// Known but invisible or empty: emit nothing.
}

func (e *Engine) emitConditional(body string, ctx *prompt.Context, th *theme.Theme, out *prompt.CappedBuilder) {
	arms := splitTopLevel(body)
	name := arms[0]

	visible := false
	if seg, ok := e.segments.Find(name); ok {
		visible = seg.Visible(ctx) && (th == nil || th.SegmentShown(name))
	}

	switch {
	case visible && len(arms) > 1:
		e.scan(arms[1], ctx, th, out, true)
	case !visible && len(arms) > 2:
		e.scan(arms[2], ctx, th, out, true)
	}
}

func (e *Engine) emitColored(c color.Color, text string, ctx *prompt.Context, th *theme.Theme, out *prompt.CappedBuilder) {
	useColor := ctx.ColorDepth > 0
	if useColor {
		out.WriteString(color.Downgrade(c, ctx.HasTrueColor, ctx.Has256Color).ANSI(true))
	}
	e.scan(text, ctx, th, out, true)
	if useColor {
		out.WriteString(color.ResetFg)
	}
}

func (e *Engine) emitProperty(name, prop, raw string, ctx *prompt.Context, out *prompt.CappedBuilder) {
	seg, ok := e.segments.Find(name)
	if !ok {
		out.WriteString(raw)
		return
	}
	if !seg.Visible(ctx) {
		return
	}
	provider, ok := seg.(segment.PropertyProvider)
	if !ok {
		out.WriteString(raw)
		return
	}
	if value, ok := provider.Property(prop, ctx); ok {
		out.WriteString(value)
		return
	}
	out.WriteString(raw)
}

// topLevelColon returns the first ':' outside nested ${...}, or -1.
func topLevelColon(s string) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '$' && i+1 < len(s) && s[i+1] == '{':
			depth++
			i++
		case s[i] == '}' && depth > 0:
			depth--
		case s[i] == ':' && depth == 0:
			return i
		}
	}
	return -1
}

// splitTopLevel splits on ':' outside nested ${...}, keeping at most
// three parts (name, true-arm, false-arm).
func splitTopLevel(s string) []string {
	parts := []string{}
	start := 0
	depth := 0
	for i := 0; i < len(s) && len(parts) < 2; i++ {
		switch {
		case s[i] == '$' && i+1 < len(s) && s[i+1] == '{':
			depth++
			i++
		case s[i] == '}' && depth > 0:
			depth--
		case s[i] == ':' && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	parts = append(parts, s[start:])
	return parts
}

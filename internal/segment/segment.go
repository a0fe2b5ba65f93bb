// Package segment defines the named producers of prompt text fragments
// and the registry the template engine and powerline renderer resolve
// them from. Segments are registered once at startup and shared
// read-only afterwards.
package segment

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/lushell/promptline/internal/prompt"
	"github.com/lushell/promptline/internal/theme"
)

// Segment produces one prompt fragment. Render output may contain
// embedded SGR sequences; consumers that enforce their own colors strip
// them.
type Segment interface {
	Name() string
	Visible(ctx *prompt.Context) bool
	Render(ctx *prompt.Context, th *theme.Theme) string
}

// PropertyProvider is implemented by segments that expose named
// sub-values for the ${name.prop} template form.
type PropertyProvider interface {
	Property(prop string, ctx *prompt.Context) (string, bool)
}

// Registry maps segment names to segments.
type Registry struct {
	byName map[string]Segment
	order  []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Segment)}
}

// Register adds seg, rejecting duplicate names.
func (r *Registry) Register(seg Segment) error {
	name := seg.Name()
	if name == "" {
		return fmt.Errorf("segment with empty name")
	}
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("segment %q already registered", name)
	}
	r.byName[name] = seg
	r.order = append(r.order, name)
	return nil
}

// Find returns the segment registered under name.
func (r *Registry) Find(name string) (Segment, bool) {
	seg, ok := r.byName[name]
	return seg, ok
}

// Has reports whether name resolves.
func (r *Registry) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Names returns all registered names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// RenderFor resolves name, checks both the segment's own visibility and
// the theme's per-segment show flag, and renders with the theme's
// truncation and format overrides applied. ok is false when the segment
// is unknown, hidden, or rendered empty.
func (r *Registry) RenderFor(name string, ctx *prompt.Context, th *theme.Theme) (string, bool) {
	seg, found := r.byName[name]
	if !found {
		return "", false
	}
	if !seg.Visible(ctx) {
		return "", false
	}
	if th != nil && !th.SegmentShown(name) {
		return "", false
	}

	content := seg.Render(ctx, th)
	if content == "" {
		return "", false
	}
	if len(content) > prompt.SegmentOutputMax {
		content = content[:prompt.SegmentOutputMax]
	}

	if th != nil {
		if o, ok := th.Override(name); ok {
			content = applyOverride(content, o)
			if content == "" {
				return "", false
			}
		}
	}
	return content, true
}

// applyOverride applies truncation and the format override. A format
// override wraps the rendered content at its "{content}" placeholder.
func applyOverride(content string, o theme.SegmentOverride) string {
	if o.TruncationLength > 0 {
		content = TruncateLeft(content, o.TruncationLength)
	}
	if o.Format != "" {
		return strings.ReplaceAll(o.Format, "{content}", content)
	}
	return content
}

// TruncateLeft shortens s to at most width display cells, keeping the
// tail and prefixing an ellipsis when anything was dropped.
func TruncateLeft(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	const ellipsis = "…"
	target := width - runewidth.StringWidth(ellipsis)
	if target <= 0 {
		return ellipsis
	}

	runes := []rune(s)
	tailWidth := 0
	start := len(runes)
	for start > 0 {
		w := runewidth.RuneWidth(runes[start-1])
		if tailWidth+w > target {
			break
		}
		tailWidth += w
		start--
	}
	return ellipsis + string(runes[start:])
}

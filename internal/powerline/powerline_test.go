package powerline

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lushell/promptline/internal/color"
	"github.com/lushell/promptline/internal/gitstatus"
	"github.com/lushell/promptline/internal/prompt"
	"github.com/lushell/promptline/internal/segment"
	"github.com/lushell/promptline/internal/theme"
)

func testRegistry(t *testing.T) *segment.Registry {
	t.Helper()
	r := segment.NewRegistry()
	segment.RegisterBuiltins(r)
	return r
}

func testContext() *prompt.Context {
	return &prompt.Context{
		Username:     "alice",
		HostShort:    "box",
		CWD:          "/home/alice/project",
		CWDTilde:     "~/project",
		ColorDepth:   3,
		Has256Color:  true,
		HasTrueColor: true,
		Now:          time.Date(2026, 3, 14, 9, 0, 0, 0, time.Local),
	}
}

func powerTheme(enabled ...string) *theme.Theme {
	return &theme.Theme{
		Name:            "test-powerline",
		Layout:          theme.Layout{Style: theme.StylePowerline},
		EnabledSegments: enabled,
	}
}

func TestRender_When_TwoVisibleBlocks(t *testing.T) {
	t.Parallel()

	out := Render(powerTheme("user", "directory"), testRegistry(t), testContext(), LeftToRight, 0)

	assert.Equal(t, 2, strings.Count(out, "\x1b[48;2;"), "one bg set per color run")
	assert.GreaterOrEqual(t, strings.Count(out, "38;2;"), 2)
	assert.Equal(t, 2, strings.Count(out, "\ue0b0"), "N blocks -> N separators")
	assert.Contains(t, out, " alice ")
	assert.Contains(t, out, " ~/project ")
}

func TestRender_When_SeparatorCountMatchesVisibleBlocks(t *testing.T) {
	t.Parallel()

	reg := testRegistry(t)
	ctx := testContext()
	ctx.Git = &gitstatus.Snapshot{IsRepo: true, Branch: "main"}
	ctx.LastExitStatus = 1
	ctx.JobCount = 2

	for _, tc := range []struct {
		enabled []string
		visible int
	}{
		{[]string{"user"}, 1},
		{[]string{"user", "directory", "git"}, 3},
		{[]string{"user", "directory", "git", "status", "jobs"}, 5},
	} {
		out := Render(powerTheme(tc.enabled...), reg, ctx, LeftToRight, 0)
		assert.Equal(t, tc.visible, strings.Count(out, "\ue0b0"), "%v", tc.enabled)
	}

	// With a clean context, status and jobs drop out of the count.
	out := Render(powerTheme("user", "status", "jobs"), reg, testContext(), LeftToRight, 0)
	assert.Equal(t, 1, strings.Count(out, "\ue0b0"))
}

func TestRender_When_NoVisibleSegments(t *testing.T) {
	t.Parallel()

	// status and jobs are both invisible with a zeroed context.
	out := Render(powerTheme("status", "jobs"), testRegistry(t), testContext(), LeftToRight, 0)
	assert.Equal(t, "", out)
}

func TestRender_When_EmbeddedANSIStripped(t *testing.T) {
	t.Parallel()

	reg := testRegistry(t)
	ctx := testContext()
	ctx.Git = &gitstatus.Snapshot{IsRepo: true, Branch: "main", Unstaged: 1}

	// The git segment embeds palette SGR when rendered with a theme
	// carrying git colors; the powerline block must strip it.
	th := powerTheme("git")
	th.Colors = theme.Palette{"git_dirty": color.Basic(3)}

	out := Render(th, reg, ctx, LeftToRight, 0)
	assert.NotContains(t, out, "\x1b[33m", "embedded segment color must be stripped")
	assert.Contains(t, out, "main")
}

func TestRender_When_CapabilityDowngraded(t *testing.T) {
	t.Parallel()

	ctx := testContext()
	ctx.HasTrueColor = false
	ctx.ColorDepth = 2

	out := Render(powerTheme("user", "directory"), testRegistry(t), ctx, LeftToRight, 0)
	assert.NotContains(t, out, ";2;", "no RGB on a 256-color terminal")
	assert.Contains(t, out, "\x1b[48;5;")

	ctx.Has256Color = false
	ctx.ColorDepth = 1
	out = Render(powerTheme("user", "directory"), testRegistry(t), ctx, LeftToRight, 0)
	assert.NotContains(t, out, ";2;")
	assert.NotContains(t, out, ";5;")
}

func TestRender_When_PerSegmentOverrideColors(t *testing.T) {
	t.Parallel()

	fg := color.RGB(1, 2, 3)
	bg := color.RGB(9, 8, 7)
	th := powerTheme("user")
	th.Overrides = map[string]theme.SegmentOverride{
		"user": {FG: &fg, BG: &bg},
	}

	out := Render(th, testRegistry(t), testContext(), LeftToRight, 0)
	assert.Contains(t, out, "\x1b[38;2;1;2;3m")
	assert.Contains(t, out, "\x1b[48;2;9;8;7m")
}

func TestRender_When_ThemeShowFlagHides(t *testing.T) {
	t.Parallel()

	hidden := false
	th := powerTheme("user", "directory")
	th.Overrides = map[string]theme.SegmentOverride{
		"user": {Show: &hidden},
	}

	out := Render(th, testRegistry(t), testContext(), LeftToRight, 0)
	assert.NotContains(t, out, "alice")
	assert.Contains(t, out, "~/project")
	assert.Equal(t, 1, strings.Count(out, "\ue0b0"))
}

func TestRender_When_RightToLeft(t *testing.T) {
	t.Parallel()

	out := Render(powerTheme("user", "directory"), testRegistry(t), testContext(), RightToLeft, 0)

	assert.Equal(t, 2, strings.Count(out, "\ue0b2"))
	assert.True(t, strings.HasSuffix(out, "\x1b[0m"))
	// The leading separator precedes any background set.
	sepIdx := strings.Index(out, "\ue0b2")
	bgIdx := strings.Index(out, "\x1b[48;2;")
	require.GreaterOrEqual(t, sepIdx, 0)
	require.GreaterOrEqual(t, bgIdx, 0)
	assert.Less(t, sepIdx, bgIdx)
}

func TestRender_When_SeparatorTransitionUsesPreviousBackground(t *testing.T) {
	t.Parallel()

	out := Render(powerTheme("user", "directory"), testRegistry(t), testContext(), LeftToRight, 0)

	// user bg is #444444; directory bg is #005FAF. The internal
	// separator is fg=68;68;68 on bg=0;95;175.
	assert.Contains(t, out, "\x1b[38;2;68;68;68m\x1b[48;2;0;95;175m")
	// The trailing separator fades the last bg onto the default.
	assert.Contains(t, out, "\x1b[0m\x1b[38;2;0;95;175m\x1b[0m")
}

func TestStripANSI_When_MixedContent(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "hi there", StripANSI("\x1b[31mhi\x1b[0m there"))
	assert.Equal(t, "plain", StripANSI("plain"))
	assert.Equal(t, "ab", StripANSI("a\x1b[38;2;1;2;3mb"))
	assert.Equal(t, "", StripANSI("\x1b[31m"))
	// Truncated sequence at end of string must not loop or panic.
	assert.Equal(t, "x", StripANSI("x\x1b[38;5"))
}

func TestRender_When_OutputTruncates(t *testing.T) {
	t.Parallel()

	out := Render(powerTheme("user", "directory"), testRegistry(t), testContext(), LeftToRight, 16)
	assert.LessOrEqual(t, len(out), 16)
}

func TestRender_When_NilInputs(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", Render(nil, testRegistry(t), testContext(), LeftToRight, 0))
	assert.Equal(t, "", Render(powerTheme("user"), nil, testContext(), LeftToRight, 0))
	assert.Equal(t, "", Render(powerTheme("user"), testRegistry(t), nil, LeftToRight, 0))
}

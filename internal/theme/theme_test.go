package theme

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lushell/promptline/internal/color"
	"github.com/lushell/promptline/pkg/prompterr"
)

const oceanTheme = `
[theme]
name = "ocean"
description = "Deep blue powerline"
category = "dark"

[layout]
style = "powerline"
ps1 = "${directory} \\$ "
ps2 = "... "
rprompt = "%T"
newline_before_prompt = true

[colors]
primary = "#005FAF"
text = "252"
error = "red"
bogus = "notacolor"

[symbols]
prompt_char = "$"
branch = "\ue0a0"

[syntax]
keyword = "#FF8000"

[segments]
enabled = ["directory", "git", "status"]

[segments.git]
fg_color = "#FFFFFF"
bg_color = "#875FAF"
show = true
truncation_length = 24

[segments.status]
show = false
`

func TestParse_When_FullDocument(t *testing.T) {
	t.Parallel()

	th, err := Parse([]byte(oceanTheme), "fallback")
	require.NoError(t, err)

	assert.Equal(t, "ocean", th.Name)
	assert.Equal(t, "dark", th.Category)
	assert.Equal(t, StylePowerline, th.Layout.Style)
	assert.Equal(t, `${directory} \$ `, th.Layout.PS1Format)
	assert.True(t, th.Layout.NewlineBeforePrompt)
	assert.Equal(t, []string{"directory", "git", "status"}, th.EnabledSegments)

	primary, ok := th.Colors.Get("primary")
	require.True(t, ok)
	assert.Equal(t, color.RGB(0, 95, 175), primary)

	text, ok := th.Colors.Get("text")
	require.True(t, ok)
	assert.Equal(t, color.Indexed(252), text)

	errColor, ok := th.Colors.Get("error")
	require.True(t, ok)
	assert.Equal(t, color.Basic(1), errColor)

	// Malformed colors are skipped silently.
	_, ok = th.Colors.Get("bogus")
	assert.False(t, ok)

	kw, ok := th.Syntax.Get("keyword")
	require.True(t, ok)
	assert.Equal(t, color.RGB(255, 128, 0), kw)

	gitOverride, ok := th.Override("git")
	require.True(t, ok)
	require.NotNil(t, gitOverride.FG)
	assert.Equal(t, color.RGB(255, 255, 255), *gitOverride.FG)
	require.NotNil(t, gitOverride.BG)
	assert.Equal(t, color.RGB(135, 95, 175), *gitOverride.BG)
	assert.Equal(t, 24, gitOverride.TruncationLength)

	assert.True(t, th.SegmentShown("git"))
	assert.False(t, th.SegmentShown("status"))
	assert.True(t, th.SegmentShown("unconfigured"))
}

func TestParse_When_NameMissing(t *testing.T) {
	t.Parallel()

	th, err := Parse([]byte("[layout]\nps1 = \"$ \"\n"), "stem")
	require.NoError(t, err)
	assert.Equal(t, "stem", th.Name)
	assert.Equal(t, StylePlain, th.Layout.Style)
}

func TestParse_When_MalformedTOML(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("[theme\nname="), "x")
	assert.Error(t, err)
}

func TestRegistry_When_BuiltinsPresent(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	for _, name := range []string{"default", "minimal", "powerline"} {
		th, ok := r.Find(name)
		require.True(t, ok, name)
		assert.Equal(t, name, th.Name)
	}
	assert.Equal(t, "default", r.Active().Name)
}

func TestRegistry_When_SetActiveUnknown(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	err := r.SetActive("nope")
	assert.ErrorIs(t, err, prompterr.ErrInvalidParameter)
	assert.Equal(t, "default", r.Active().Name)
}

func TestRegistry_When_UserThemeOverridesBuiltin(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	custom := &Theme{Name: "default", Description: "replaced"}
	require.NoError(t, r.Register(custom, SourceUser, ""))

	th, ok := r.Find("default")
	require.True(t, ok)
	assert.Equal(t, "replaced", th.Description)
	// Active pointer follows the replacement.
	assert.Equal(t, "replaced", r.Active().Description)
}

func TestRegistry_When_SegmentValidatorFilters(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.KnownSegment = func(name string) bool { return name != "unknown" }

	th := &Theme{Name: "x", EnabledSegments: []string{"user", "unknown", "git"}}
	require.NoError(t, r.Register(th, SourceUser, ""))

	got, _ := r.Find("x")
	assert.Equal(t, []string{"user", "git"}, got.EnabledSegments)
}

func TestRegistry_When_RegisterInvalid(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	assert.ErrorIs(t, r.Register(nil, SourceUser, ""), prompterr.ErrInvalidParameter)
	assert.ErrorIs(t, r.Register(&Theme{}, SourceUser, ""), prompterr.ErrInvalidParameter)
}

func TestLoadUserThemes_When_XDGDirectoryHasThemes(t *testing.T) {
	dir := t.TempDir()
	themesDir := filepath.Join(dir, "promptline", "themes")
	require.NoError(t, os.MkdirAll(themesDir, 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(themesDir, "ocean.toml"), []byte(oceanTheme), 0o644))
	require.NoError(t, os.WriteFile(
		filepath.Join(themesDir, "broken.toml"), []byte("[theme\n"), 0o644))
	require.NoError(t, os.WriteFile(
		filepath.Join(themesDir, "notes.txt"), []byte("ignored"), 0o644))

	t.Setenv("XDG_CONFIG_HOME", dir)

	r := NewRegistry()
	err := r.LoadUserThemes()
	assert.Error(t, err, "broken file surfaces as the scan error")

	th, ok := r.Find("ocean")
	require.True(t, ok)
	assert.Equal(t, "Deep blue powerline", th.Description)

	var entry Entry
	for _, e := range r.List() {
		if e.Name == "ocean" {
			entry = e
		}
	}
	assert.Equal(t, SourceUser, entry.Source)
}

func TestReload_When_FileChangesOnDisk(t *testing.T) {
	dir := t.TempDir()
	themesDir := filepath.Join(dir, "promptline", "themes")
	require.NoError(t, os.MkdirAll(themesDir, 0o755))
	path := filepath.Join(themesDir, "ocean.toml")
	require.NoError(t, os.WriteFile(path, []byte(oceanTheme), 0o644))

	t.Setenv("XDG_CONFIG_HOME", dir)

	r := NewRegistry()
	require.NoError(t, r.LoadUserThemes())
	require.NoError(t, r.SetActive("ocean"))

	updated := []byte("[theme]\nname = \"ocean\"\ndescription = \"v2\"\n")
	require.NoError(t, os.WriteFile(path, updated, 0o644))
	require.NoError(t, r.Reload())

	assert.Equal(t, "v2", r.Active().Description)
}

func TestSeparators_When_Unconfigured(t *testing.T) {
	t.Parallel()

	th := &Theme{}
	assert.Equal(t, "\ue0b0", th.SeparatorLeft())
	assert.Equal(t, "\ue0b2", th.SeparatorRight())
}

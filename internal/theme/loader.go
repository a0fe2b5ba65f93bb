package theme

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/lushell/promptline/internal/color"
)

// Theme files are TOML with the sections [theme], [layout], [colors],
// [symbols], [syntax], [segments], and [segments.<name>].

type themeFile struct {
	Theme struct {
		Name        string `toml:"name"`
		Description string `toml:"description"`
		Category    string `toml:"category"`
	} `toml:"theme"`

	Layout struct {
		Style               string `toml:"style"`
		PS1                 string `toml:"ps1"`
		PS2                 string `toml:"ps2"`
		RPrompt             string `toml:"rprompt"`
		EnableTransient     bool   `toml:"enable_transient"`
		TransientFormat     string `toml:"transient_format"`
		NewlineBeforePrompt bool   `toml:"newline_before_prompt"`
	} `toml:"layout"`

	Colors map[string]string `toml:"colors"`

	Symbols struct {
		PromptChar     string `toml:"prompt_char"`
		RootChar       string `toml:"root_char"`
		Branch         string `toml:"branch"`
		SeparatorLeft  string `toml:"separator_left"`
		SeparatorRight string `toml:"separator_right"`
	} `toml:"symbols"`

	Syntax map[string]string `toml:"syntax"`

	// [segments] mixes the "enabled" array with [segments.<name>]
	// override sub-tables, so it decodes generically and is split
	// afterwards.
	Segments map[string]any `toml:"segments"`
}

type overrideFile struct {
	FGColor          string
	BGColor          string
	Show             *bool
	TruncationLength int
	Format           string
}

// splitSegments separates "enabled" from the override sub-tables.
func splitSegments(raw map[string]any) (enabled []string, overrides map[string]overrideFile) {
	overrides = make(map[string]overrideFile)
	for key, val := range raw {
		if key == "enabled" {
			if list, ok := val.([]any); ok {
				for _, item := range list {
					if name, ok := item.(string); ok {
						enabled = append(enabled, name)
					}
				}
			}
			continue
		}

		sub, ok := val.(map[string]any)
		if !ok {
			continue // unknown scalar key: ignored
		}
		var o overrideFile
		if str, ok := sub["fg_color"].(string); ok {
			o.FGColor = str
		}
		if str, ok := sub["bg_color"].(string); ok {
			o.BGColor = str
		}
		if b, ok := sub["show"].(bool); ok {
			o.Show = &b
		}
		if n, ok := sub["truncation_length"].(int64); ok {
			o.TruncationLength = int(n)
		}
		if str, ok := sub["format"].(string); ok {
			o.Format = str
		}
		overrides[key] = o
	}
	return enabled, overrides
}

// Parse decodes one TOML theme document. fallbackName is used when the
// [theme] section omits a name (callers pass the file stem).
func Parse(data []byte, fallbackName string) (*Theme, error) {
	var f themeFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse theme: %w", err)
	}

	enabled, rawOverrides := splitSegments(f.Segments)

	t := &Theme{
		Name:        f.Theme.Name,
		Description: f.Theme.Description,
		Category:    f.Theme.Category,
		Colors:      parsePalette(f.Colors),
		Syntax:      parsePalette(f.Syntax),
		Symbols: Symbols{
			PromptChar:     f.Symbols.PromptChar,
			RootChar:       f.Symbols.RootChar,
			Branch:         f.Symbols.Branch,
			SeparatorLeft:  f.Symbols.SeparatorLeft,
			SeparatorRight: f.Symbols.SeparatorRight,
		},
		Layout: Layout{
			Style:               StylePlain,
			PS1Format:           f.Layout.PS1,
			PS2Format:           f.Layout.PS2,
			RPromptFormat:       f.Layout.RPrompt,
			EnableTransient:     f.Layout.EnableTransient,
			TransientFormat:     f.Layout.TransientFormat,
			NewlineBeforePrompt: f.Layout.NewlineBeforePrompt,
		},
		EnabledSegments: enabled,
		Overrides:       make(map[string]SegmentOverride, len(rawOverrides)),
	}

	if f.Layout.Style == string(StylePowerline) {
		t.Layout.Style = StylePowerline
	}
	if t.Name == "" {
		t.Name = fallbackName
	}

	for name, o := range rawOverrides {
		var so SegmentOverride
		if c, ok := color.ParseSpec(o.FGColor); ok {
			fg := c
			so.FG = &fg
		}
		if c, ok := color.ParseSpec(o.BGColor); ok {
			bg := c
			so.BG = &bg
		}
		so.Show = o.Show
		so.TruncationLength = o.TruncationLength
		so.Format = o.Format
		t.Overrides[name] = so
	}

	return t, nil
}

func parsePalette(src map[string]string) Palette {
	if len(src) == 0 {
		return nil
	}
	p := make(Palette, len(src))
	for name, spec := range src {
		if c, ok := color.ParseSpec(spec); ok {
			p[name] = c
		}
		// Malformed color values are skipped, not fatal.
	}
	return p
}

// ParseFile loads one theme file.
func ParseFile(path string) (*Theme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Parse(data, stem)
}

// UserThemeDirs returns the directories scanned for theme files, in
// load order: system themes first, then the user's XDG directory so
// user definitions win on name conflicts.
func UserThemeDirs() []string {
	dirs := []string{"/etc/promptline/themes"}

	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		if home, err := os.UserHomeDir(); err == nil {
			configHome = filepath.Join(home, ".config")
		}
	}
	if configHome != "" {
		dirs = append(dirs, filepath.Join(configHome, "promptline", "themes"))
	}
	return dirs
}

// LoadUserThemes discovers and registers theme files from the standard
// locations. Unreadable or malformed files are skipped; the first error
// is returned after the scan completes.
func (r *Registry) LoadUserThemes() error {
	var firstErr error
	dirs := UserThemeDirs()
	for i, dir := range dirs {
		// The /etc directory loads first as "system"; later
		// directories are user-owned and win on name conflicts.
		source := SourceSystem
		if i > 0 {
			source = SourceUser
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue // missing directory is normal
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".toml") {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			t, err := ParseFile(path)
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			if err := r.Register(t, source, path); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

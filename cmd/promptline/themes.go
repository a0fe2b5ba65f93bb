package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/lushell/promptline"
)

var titler = cases.Title(language.English)

// listing styles, mirroring the terminal renderer conventions of the
// rest of the toolchain.
var (
	nameStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	activeStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("34"))
	sourceStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	descStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	categoryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

func runThemes(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("promptline themes", flag.ContinueOnError)
	fs.SetOutput(stderr)
	plainFlag := fs.Bool("plain", false, "Unstyled output (names only)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	composer, err := promptline.New(promptline.NewMemorySymbols())
	if err != nil {
		fmt.Fprintf(stderr, "promptline: %v\n", err)
		return 1
	}

	active := composer.ActiveTheme().Name
	for _, entry := range composer.Themes() {
		if *plainFlag {
			fmt.Fprintln(stdout, entry.Name)
			continue
		}

		name := nameStyle.Render(entry.Name)
		marker := " "
		if entry.Name == active {
			name = activeStyle.Render(entry.Name)
			marker = "*"
		}

		line := fmt.Sprintf("%s %s %s", marker, name,
			sourceStyle.Render("("+string(entry.Source)+")"))
		if entry.Category != "" {
			line += " " + categoryStyle.Render(titler.String(entry.Category))
		}
		fmt.Fprintln(stdout, line)
		if entry.Description != "" {
			fmt.Fprintln(stdout, "    "+descStyle.Render(entry.Description))
		}
	}
	return 0
}

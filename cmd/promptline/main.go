// promptline renders shell prompts from format strings mixing segment
// templates (${directory}), bash escapes (\u, \w), and zsh escapes
// (%n, %F{...}).
//
// Usage:
//
//	promptline                         render PS1 with the active theme
//	promptline -which rprompt          render the right prompt
//	promptline -format '\u@\h \$ '     render an explicit format
//	promptline -json < state.json      render with shell state from stdin
//	promptline themes                  list registered themes
//	promptline git-status [dir]        print a one-shot git snapshot
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/lushell/promptline"
	"github.com/lushell/promptline/internal/config"
	"github.com/lushell/promptline/internal/termcap"
	"github.com/lushell/promptline/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// shellState is the JSON document accepted on stdin with -json: the
// live values a shell would feed the composer before a render.
type shellState struct {
	LastExitStatus int    `json:"lastExitStatus"`
	JobCount       int    `json:"jobCount"`
	HistoryNumber  int    `json:"historyNumber"`
	CommandNumber  int    `json:"commandNumber"`
	CmdDurationMs  int64  `json:"cmdDurationMs"`
	CWD            string `json:"cwd,omitempty"`
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) > 0 {
		switch args[0] {
		case "themes":
			return runThemes(args[1:], stdout, stderr)
		case "git-status":
			return runGitStatus(args[1:], stdout, stderr)
		}
	}
	return runRender(args, stdin, stdout, stderr)
}

func runRender(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("promptline", flag.ContinueOnError)
	fs.SetOutput(stderr)
	whichFlag := fs.String("which", "ps1", "Prompt to render: ps1, ps2, rprompt")
	themeFlag := fs.String("theme", "", "Theme name (default: config active_theme)")
	formatFlag := fs.String("format", "", "Explicit format string overriding the theme")
	depthFlag := fs.Int("depth", -1, "Color depth override: 0=none, 1=8, 2=256, 3=truecolor")
	jsonFlag := fs.Bool("json", false, "Read shell state JSON from stdin")
	gitFlag := fs.Bool("git", false, "Collect git status for the cwd before rendering")
	versionFlag := fs.Bool("version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *versionFlag {
		fmt.Fprintf(stdout, "promptline %s (%s, %s)\n",
			version.Version, version.CommitHash, version.BuildDate)
		return 0
	}

	cfg := config.Load()

	symtab := promptline.NewMemorySymbols()
	composer, err := promptline.New(symtab)
	if err != nil {
		fmt.Fprintf(stderr, "promptline: %v\n", err)
		return 1
	}

	themeName := cfg.ActiveTheme
	if *themeFlag != "" {
		themeName = *themeFlag
	}
	if err := composer.SetTheme(themeName); err != nil {
		fmt.Fprintf(stderr, "promptline: unknown theme %q\n", themeName)
		return 1
	}

	applyColorMode(composer, cfg.ColorMode, *depthFlag)

	var state shellState
	if *jsonFlag {
		data, err := io.ReadAll(stdin)
		if err != nil {
			fmt.Fprintf(stderr, "promptline: reading stdin: %v\n", err)
			return 1
		}
		if err := json.Unmarshal(data, &state); err != nil {
			fmt.Fprintf(stderr, "promptline: parsing state: %v\n", err)
			return 1
		}
	}
	composer.SetLastExitStatus(state.LastExitStatus)
	composer.SetJobCount(state.JobCount)
	composer.SetCounters(state.HistoryNumber, state.CommandNumber)
	composer.SetCmdDuration(time.Duration(state.CmdDurationMs) * time.Millisecond)

	if *gitFlag {
		cwd := state.CWD
		if cwd == "" {
			cwd, _ = os.Getwd()
		}
		composer.RefreshGitStatus(cwd, time.Duration(cfg.GitTimeoutMS)*time.Millisecond)
	}

	which := promptline.PS1
	switch *whichFlag {
	case "ps1":
	case "ps2":
		which = promptline.PS2
	case "rprompt":
		which = promptline.RPrompt
	default:
		fmt.Fprintf(stderr, "promptline: unknown prompt %q\n", *whichFlag)
		return 2
	}

	if *formatFlag != "" {
		name := "PS1"
		if which == promptline.PS2 {
			name = "PS2"
		} else if which == promptline.RPrompt {
			name = "RPROMPT"
		}
		// Write the variable the way a shell would, then notify so
		// ownership flags and the PROMPT mirror stay consistent.
		symtab.Set(name, *formatFlag)
		composer.NotifyPromptVarSet(name, *formatFlag)
	}

	fmt.Fprintln(stdout, composer.RenderPrompt(which))
	return 0
}

// applyColorMode reconciles config color mode and the depth flag with
// the detected capabilities.
func applyColorMode(composer *promptline.Composer, mode string, depth int) {
	switch {
	case depth >= 0:
		composer.SetCaps(capsForDepth(depth))
	case mode == "never":
		composer.SetCaps(termcap.Caps{})
	case mode == "always":
		composer.SetCaps(capsForDepth(3))
	}
	// "auto" keeps the probe the composer ran at startup.
}

func capsForDepth(depth int) termcap.Caps {
	switch {
	case depth >= 3:
		return termcap.Caps{HasColors: true, Has256Color: true, HasTrueColor: true}
	case depth == 2:
		return termcap.Caps{HasColors: true, Has256Color: true}
	case depth == 1:
		return termcap.Caps{HasColors: true}
	default:
		return termcap.Caps{}
	}
}

func runGitStatus(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("promptline git-status", flag.ContinueOnError)
	fs.SetOutput(stderr)
	timeoutFlag := fs.Duration("timeout", 3*time.Second, "Per-command git timeout")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	dir := fs.Arg(0)
	if dir == "" {
		var err error
		if dir, err = os.Getwd(); err != nil {
			fmt.Fprintf(stderr, "promptline: %v\n", err)
			return 1
		}
	}

	composer, err := promptline.New(promptline.NewMemorySymbols())
	if err != nil {
		fmt.Fprintf(stderr, "promptline: %v\n", err)
		return 1
	}
	snap := composer.RefreshGitStatus(dir, *timeoutFlag)
	if !snap.IsRepo {
		fmt.Fprintln(stdout, "not a git repository")
		return 0
	}

	head := snap.Branch
	if snap.Detached {
		head = snap.Commit + " (detached)"
	}
	fmt.Fprintf(stdout, "branch:    %s\n", head)
	fmt.Fprintf(stdout, "staged:    %d\n", snap.Staged)
	fmt.Fprintf(stdout, "unstaged:  %d\n", snap.Unstaged)
	fmt.Fprintf(stdout, "untracked: %d\n", snap.Untracked)
	fmt.Fprintf(stdout, "ahead:     %d\n", snap.Ahead)
	fmt.Fprintf(stdout, "behind:    %d\n", snap.Behind)
	if snap.Merging {
		fmt.Fprintln(stdout, "state:     merging")
	}
	if snap.Rebasing {
		fmt.Fprintln(stdout, "state:     rebasing")
	}
	return 0
}

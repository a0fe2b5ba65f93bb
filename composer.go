// Package promptline is the unified prompt rendering pipeline of the
// lush line editor: it expands PS1/PS2 format strings mixing segment
// templates with bash and zsh escape grammars, drives the powerline
// block renderer, owns the theme and segment registries, and keeps a
// background worker feeding git status into prompt renders without
// ever blocking a draw.
package promptline

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/lushell/promptline/internal/asyncjob"
	"github.com/lushell/promptline/internal/expand"
	"github.com/lushell/promptline/internal/gitstatus"
	"github.com/lushell/promptline/internal/powerline"
	"github.com/lushell/promptline/internal/prompt"
	"github.com/lushell/promptline/internal/segment"
	"github.com/lushell/promptline/internal/subproc"
	"github.com/lushell/promptline/internal/template"
	"github.com/lushell/promptline/internal/termcap"
	"github.com/lushell/promptline/internal/theme"
	"github.com/lushell/promptline/internal/version"
	"github.com/lushell/promptline/pkg/prompterr"
)

// ShellName is the identity the \s escape expands to.
const ShellName = "lush"

// Which selects the prompt a render produces.
type Which int

const (
	PS1 Which = iota
	PS2
	RPrompt
)

// SymbolTable is the shell's variable store as the composer sees it.
type SymbolTable interface {
	Set(name, value string)
	Get(name string) (string, bool)
}

// Composer ties the registries, the expansion passes, and the async
// worker together behind the interface the shell calls.
type Composer struct {
	symtab   SymbolTable
	segments *segment.Registry
	themes   *theme.Registry
	worker   *asyncjob.Worker

	caps termcap.Caps

	// Latest published git snapshot, swapped by the worker callback
	// and read by renders.
	git atomic.Pointer[gitstatus.Snapshot]

	// needsRegen is set when a theme switch or git completion makes
	// the current prompt stale; cleared after each render.
	needsRegen atomic.Bool

	mu             sync.Mutex
	userManagedPS1 bool
	userManagedPS2 bool

	// Shell runtime state fed in before each render.
	lastExitStatus int
	jobCount       int
	historyNumber  int
	commandNumber  int
	cmdDurationMs  int64
}

// New builds a composer over the given symbol table: segment registry
// with built-ins, theme registry with built-ins plus user themes, and
// a stopped worker. The default theme's formats seed PS1/PS2.
func New(symtab SymbolTable) (*Composer, error) {
	if symtab == nil {
		return nil, prompterr.ErrInvalidParameter
	}

	c := &Composer{
		symtab:   symtab,
		segments: segment.NewRegistry(),
		caps:     termcap.Detect(),
	}
	segment.RegisterBuiltins(c.segments)

	c.themes = theme.NewRegistry()
	c.themes.KnownSegment = c.segments.Has
	if err := c.themes.LoadUserThemes(); err != nil {
		debugf("user theme load: %v", err)
	}

	c.worker = asyncjob.New(c.onGitComplete)

	c.applyThemeFormats(c.themes.Active())
	return c, nil
}

// Start launches the background worker.
func (c *Composer) Start() error { return c.worker.Start() }

// Close drains and joins the worker.
func (c *Composer) Close() {
	c.worker.Shutdown()
	c.worker.Wait()
}

// SetCaps overrides the detected terminal capabilities (the display
// layer may probe more accurately than the environment heuristic).
func (c *Composer) SetCaps(caps termcap.Caps) {
	c.mu.Lock()
	c.caps = caps
	c.mu.Unlock()
}

// SetLastExitStatus records the status the next render reports.
func (c *Composer) SetLastExitStatus(status int) {
	c.mu.Lock()
	c.lastExitStatus = status
	c.mu.Unlock()
}

// SetJobCount records the background job count for the next render.
func (c *Composer) SetJobCount(n int) {
	c.mu.Lock()
	c.jobCount = n
	c.mu.Unlock()
}

// SetCounters records history and command numbers for the next render.
func (c *Composer) SetCounters(history, command int) {
	c.mu.Lock()
	c.historyNumber = history
	c.commandNumber = command
	c.mu.Unlock()
}

// SetCmdDuration records the last command's wall time for the
// cmd_duration segment.
func (c *Composer) SetCmdDuration(d time.Duration) {
	c.mu.Lock()
	c.cmdDurationMs = d.Milliseconds()
	c.mu.Unlock()
}

// Segments exposes the segment registry for registration of
// shell-specific segments at startup.
func (c *Composer) Segments() *segment.Registry { return c.segments }

// Themes lists the registered themes.
func (c *Composer) Themes() []theme.Entry { return c.themes.List() }

// ActiveTheme returns the currently active theme.
func (c *Composer) ActiveTheme() *theme.Theme { return c.themes.Active() }

// SetTheme is the explicit theme-switch command: it activates the
// theme, returns both prompt variables to theme management, and writes
// the theme's format strings into the symbol table.
func (c *Composer) SetTheme(name string) error {
	if err := c.themes.SetActive(name); err != nil {
		return err
	}

	c.mu.Lock()
	c.userManagedPS1 = false
	c.userManagedPS2 = false
	c.mu.Unlock()

	c.applyThemeFormats(c.themes.Active())
	c.needsRegen.Store(true)
	return nil
}

// ReloadThemes reparses user theme files and swaps them in atomically.
func (c *Composer) ReloadThemes() error {
	err := c.themes.Reload()
	c.needsRegen.Store(true)
	return err
}

// applyThemeFormats writes the theme's formats into PS1/PS2, skipping
// any variable the user owns.
func (c *Composer) applyThemeFormats(th *theme.Theme) {
	if th == nil {
		return
	}

	c.mu.Lock()
	ps1Managed := c.userManagedPS1
	ps2Managed := c.userManagedPS2
	c.mu.Unlock()

	if !ps1Managed {
		format := th.Layout.PS1Format
		if format == "" {
			format = fallbackPrompt()
		}
		c.symtab.Set("PS1", format)
		c.symtab.Set("PROMPT", format)
	}
	if !ps2Managed {
		format := th.Layout.PS2Format
		if format == "" {
			format = "> "
		}
		c.symtab.Set("PS2", format)
	}
}

// NotifyPromptVarSet records an external write to PS1, PS2, or PROMPT.
// The variable becomes user-managed so theme switches leave it alone;
// PROMPT and PS1 mirror each other. An empty value is an unset: the
// variable returns to theme management and the theme format is
// restored.
func (c *Composer) NotifyPromptVarSet(name, value string) {
	switch name {
	case "PS1", "PROMPT":
		if value == "" {
			c.mu.Lock()
			c.userManagedPS1 = false
			c.mu.Unlock()
			c.applyThemeFormats(c.themes.Active())
			break
		}
		c.mu.Lock()
		c.userManagedPS1 = true
		c.mu.Unlock()
		if name == "PS1" {
			c.symtab.Set("PROMPT", value)
		} else {
			c.symtab.Set("PS1", value)
		}
	case "PS2":
		c.mu.Lock()
		c.userManagedPS2 = value != ""
		c.mu.Unlock()
		if value == "" {
			c.applyThemeFormats(c.themes.Active())
		}
	}
	c.needsRegen.Store(true)
}

// UserManaged reports the ownership flag for a prompt variable.
func (c *Composer) UserManaged(which Which) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if which == PS2 {
		return c.userManagedPS2
	}
	return c.userManagedPS1
}

// SubmitGitStatus queues an async git snapshot collection; the result
// is published for the next render.
func (c *Composer) SubmitGitStatus(cwd string, timeout time.Duration) (uint64, error) {
	return c.worker.SubmitGitStatus(cwd, timeout)
}

// WorkerStats returns the async worker's lifetime counters.
func (c *Composer) WorkerStats() (requests, completed, timeouts uint64) {
	return c.worker.Stats()
}

// onGitComplete runs on the worker goroutine; it only swaps a pointer.
func (c *Composer) onGitComplete(resp *asyncjob.Response) {
	if resp.Git != nil {
		c.git.Store(resp.Git)
		c.needsRegen.Store(true)
	}
}

// NeedsRegeneration reports whether state changed since the last
// render.
func (c *Composer) NeedsRegeneration() bool { return c.needsRegen.Load() }

// Context assembles the immutable per-render context.
func (c *Composer) Context() *prompt.Context {
	ctx := prompt.FromEnvironment()

	c.mu.Lock()
	ctx.LastExitStatus = c.lastExitStatus
	ctx.JobCount = c.jobCount
	ctx.HistoryNumber = c.historyNumber
	ctx.CommandNumber = c.commandNumber
	ctx.CmdDurationMs = c.cmdDurationMs
	caps := c.caps
	c.mu.Unlock()

	ctx.ColorDepth = caps.Depth()
	ctx.Has256Color = caps.Has256Color
	ctx.HasTrueColor = caps.HasTrueColor

	ctx.ShellName = ShellName
	ctx.VersionShort = version.Short()
	ctx.VersionFull = version.Full()

	ctx.Git = c.git.Load()
	return ctx
}

// RenderPrompt produces the final byte string for the requested
// prompt. Rendering never fails: malformed input degrades to the
// minimal fallback prompt.
func (c *Composer) RenderPrompt(which Which) string {
	th := c.themes.Active()
	ctx := c.Context()
	defer c.needsRegen.Store(false)

	if th != nil && th.Layout.Style == theme.StylePowerline && which != PS2 {
		return c.renderPowerline(th, ctx, which)
	}
	return c.renderTwoPass(th, ctx, which)
}

func (c *Composer) renderPowerline(th *theme.Theme, ctx *prompt.Context, which Which) string {
	dir := powerline.LeftToRight
	if which == RPrompt {
		dir = powerline.RightToLeft
	}

	out := powerline.Render(th, c.segments, ctx, dir, prompt.PromptOutputMax)
	if which == PS1 {
		if out == "" {
			return fallbackPrompt()
		}
		out += " "
		if th.Layout.NewlineBeforePrompt {
			out = "\n" + out
		}
	}
	return out
}

func (c *Composer) renderTwoPass(th *theme.Theme, ctx *prompt.Context, which Which) string {
	format, ok := c.formatFor(th, which)
	if which == RPrompt && format == "" {
		return ""
	}
	if !ok || !utf8.ValidString(format) {
		// Malformed formats never reach the terminal.
		if which == PS2 {
			return "> "
		}
		return fallbackPrompt()
	}

	engine := template.New(c.segments)
	intermediate := engine.Evaluate(format, ctx, th, prompt.PromptOutputMax)
	out := expand.Expand(intermediate, ctx, prompt.PromptOutputMax)

	if which == PS1 && th != nil && th.Layout.NewlineBeforePrompt {
		out = "\n" + out
	}
	return out
}

// formatFor resolves the format string for a prompt: the symbol table
// for PS1/PS2, the theme layout for RPROMPT (with an RPROMPT variable
// override).
func (c *Composer) formatFor(th *theme.Theme, which Which) (string, bool) {
	switch which {
	case PS1:
		if v, ok := c.symtab.Get("PS1"); ok {
			return v, true
		}
		return fallbackPrompt(), true
	case PS2:
		if v, ok := c.symtab.Get("PS2"); ok {
			return v, true
		}
		return "> ", true
	case RPrompt:
		if v, ok := c.symtab.Get("RPROMPT"); ok {
			return v, true
		}
		if th != nil {
			return th.Layout.RPromptFormat, true
		}
		return "", true
	}
	return "", false
}

// RenderTransient produces the compact prompt drawn over a finished
// command line when the active theme enables it. Empty when disabled.
func (c *Composer) RenderTransient() string {
	th := c.themes.Active()
	if th == nil || !th.Layout.EnableTransient {
		return ""
	}
	format := th.Layout.TransientFormat
	if format == "" {
		format = `\$ `
	}

	ctx := c.Context()
	engine := template.New(c.segments)
	intermediate := engine.Evaluate(format, ctx, th, prompt.PromptOutputMax)
	return expand.Expand(intermediate, ctx, prompt.PromptOutputMax)
}

// GitSnapshot returns the most recently published snapshot, nil before
// the first completion.
func (c *Composer) GitSnapshot() *gitstatus.Snapshot { return c.git.Load() }

// RefreshGitStatus synchronously collects a snapshot and publishes it.
// A zero timeout selects the prompt-path default. The CLI uses this;
// the shell prefers SubmitGitStatus.
func (c *Composer) RefreshGitStatus(cwd string, timeout time.Duration) *gitstatus.Snapshot {
	if timeout <= 0 {
		timeout = subproc.SyncTimeout
	}
	snap := gitstatus.Collect(cwd, timeout)
	c.git.Store(snap)
	c.needsRegen.Store(true)
	return snap
}

// fallbackPrompt is the minimal prompt used when no format is usable.
func fallbackPrompt() string {
	if os.Geteuid() == 0 {
		return "# "
	}
	return "$ "
}

func debugf(format string, args ...any) {
	if os.Getenv("PROMPTLINE_DEBUG") == "" {
		return
	}
	fmt.Fprintf(os.Stderr, "[promptline] "+format+"\n", args...)
}

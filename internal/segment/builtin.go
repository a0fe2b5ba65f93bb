package segment

import (
	"fmt"
	"strconv"
	"time"

	"github.com/lushell/promptline/internal/color"
	"github.com/lushell/promptline/internal/prompt"
	"github.com/lushell/promptline/internal/theme"
)

// cmdDurationThreshold hides the duration segment for quick commands.
const cmdDurationThreshold = 500 * time.Millisecond

// RegisterBuiltins installs every built-in segment. The name set here
// is the one theme enabled-segment lists are validated against.
func RegisterBuiltins(r *Registry) {
	for _, seg := range []Segment{
		userSegment{},
		hostSegment{},
		directorySegment{},
		gitSegment{},
		timeSegment{},
		statusSegment{},
		jobsSegment{},
		symbolSegment{},
		shlvlSegment{},
		sshSegment{},
		cmdDurationSegment{},
		virtualenvSegment{},
		containerSegment{},
		awsSegment{},
		kubernetesSegment{},
	} {
		// Built-in names are unique by construction.
		_ = r.Register(seg)
	}
}

// paletteANSI resolves a theme palette color to its downgraded SGR
// prefix, empty when the palette has no such entry or color is off.
func paletteANSI(th *theme.Theme, ctx *prompt.Context, name string) string {
	if th == nil || ctx.ColorDepth == 0 {
		return ""
	}
	c, ok := th.Colors.Get(name)
	if !ok {
		return ""
	}
	return color.Downgrade(c, ctx.HasTrueColor, ctx.Has256Color).ANSI(true)
}

type userSegment struct{}

func (userSegment) Name() string                        { return "user" }
func (userSegment) Visible(*prompt.Context) bool        { return true }
func (userSegment) Render(ctx *prompt.Context, _ *theme.Theme) string {
	return ctx.Username
}

type hostSegment struct{}

func (hostSegment) Name() string                 { return "host" }
func (hostSegment) Visible(*prompt.Context) bool { return true }
func (hostSegment) Render(ctx *prompt.Context, _ *theme.Theme) string {
	return ctx.HostShort
}

type directorySegment struct{}

func (directorySegment) Name() string                 { return "directory" }
func (directorySegment) Visible(*prompt.Context) bool { return true }
func (directorySegment) Render(ctx *prompt.Context, _ *theme.Theme) string {
	return ctx.CWDTilde
}

func (directorySegment) Property(prop string, ctx *prompt.Context) (string, bool) {
	switch prop {
	case "basename":
		return ctx.CWDBasename(), true
	case "full":
		return ctx.CWD, true
	}
	return "", false
}

type gitSegment struct{}

func (gitSegment) Name() string { return "git" }

func (gitSegment) Visible(ctx *prompt.Context) bool {
	return ctx.Git != nil && ctx.Git.IsRepo
}

// Render emits branch (or short commit when detached), dirt counters,
// divergence arrows, and an in-progress marker, colored clean/dirty
// from the palette.
func (gitSegment) Render(ctx *prompt.Context, th *theme.Theme) string {
	g := ctx.Git
	if g == nil || !g.IsRepo {
		return ""
	}

	glyph := ""
	if th != nil && th.Symbols.Branch != "" {
		glyph = th.Symbols.Branch
	}

	head := g.Branch
	if head == "" {
		head = g.Commit
		if head == "" {
			head = "HEAD"
		}
	}

	out := head
	if glyph != "" {
		out = glyph + " " + head
	}
	if g.Staged > 0 {
		out += fmt.Sprintf(" +%d", g.Staged)
	}
	if g.Unstaged > 0 {
		out += fmt.Sprintf(" !%d", g.Unstaged)
	}
	if g.Untracked > 0 {
		out += fmt.Sprintf(" ?%d", g.Untracked)
	}
	if g.Ahead > 0 {
		out += fmt.Sprintf(" ↑%d", g.Ahead)
	}
	if g.Behind > 0 {
		out += fmt.Sprintf(" ↓%d", g.Behind)
	}
	if g.Merging {
		out += " merge"
	} else if g.Rebasing {
		out += " rebase"
	}

	paletteName := "git_clean"
	if g.Dirty() {
		paletteName = "git_dirty"
	}
	if ansi := paletteANSI(th, ctx, paletteName); ansi != "" {
		return ansi + out + color.ResetFg
	}
	return out
}

func (gitSegment) Property(prop string, ctx *prompt.Context) (string, bool) {
	g := ctx.Git
	if g == nil {
		return "", false
	}
	switch prop {
	case "branch":
		return g.Branch, true
	case "commit":
		return g.Commit, true
	case "staged":
		return strconv.Itoa(g.Staged), true
	case "unstaged":
		return strconv.Itoa(g.Unstaged), true
	case "untracked":
		return strconv.Itoa(g.Untracked), true
	case "ahead":
		return strconv.Itoa(g.Ahead), true
	case "behind":
		return strconv.Itoa(g.Behind), true
	}
	return "", false
}

type timeSegment struct{}

func (timeSegment) Name() string                 { return "time" }
func (timeSegment) Visible(*prompt.Context) bool { return true }
func (timeSegment) Render(ctx *prompt.Context, _ *theme.Theme) string {
	return ctx.Now.Format("15:04:05")
}

type statusSegment struct{}

func (statusSegment) Name() string { return "status" }

func (statusSegment) Visible(ctx *prompt.Context) bool {
	return ctx.LastExitStatus != 0
}

func (statusSegment) Render(ctx *prompt.Context, th *theme.Theme) string {
	out := strconv.Itoa(ctx.LastExitStatus)
	if ansi := paletteANSI(th, ctx, "error"); ansi != "" {
		return ansi + out + color.ResetFg
	}
	return out
}

type jobsSegment struct{}

func (jobsSegment) Name() string { return "jobs" }

func (jobsSegment) Visible(ctx *prompt.Context) bool {
	return ctx.JobCount > 0
}

func (jobsSegment) Render(ctx *prompt.Context, _ *theme.Theme) string {
	return "⚙ " + strconv.Itoa(ctx.JobCount)
}

type symbolSegment struct{}

func (symbolSegment) Name() string                 { return "symbol" }
func (symbolSegment) Visible(*prompt.Context) bool { return true }
func (symbolSegment) Render(ctx *prompt.Context, th *theme.Theme) string {
	promptChar, rootChar := "$", "#"
	if th != nil {
		if th.Symbols.PromptChar != "" {
			promptChar = th.Symbols.PromptChar
		}
		if th.Symbols.RootChar != "" {
			rootChar = th.Symbols.RootChar
		}
	}
	if ctx.IsRoot {
		return rootChar
	}
	return promptChar
}

type shlvlSegment struct{}

func (shlvlSegment) Name() string { return "shlvl" }

func (shlvlSegment) Visible(ctx *prompt.Context) bool {
	return ctx.ShLvl > 1
}

func (shlvlSegment) Render(ctx *prompt.Context, _ *theme.Theme) string {
	return "⇅ " + strconv.Itoa(ctx.ShLvl)
}

type sshSegment struct{}

func (sshSegment) Name() string { return "ssh" }

func (sshSegment) Visible(ctx *prompt.Context) bool {
	return ctx.SSHSession
}

func (sshSegment) Render(ctx *prompt.Context, _ *theme.Theme) string {
	return "ssh:" + ctx.HostShort
}

type cmdDurationSegment struct{}

func (cmdDurationSegment) Name() string { return "cmd_duration" }

func (cmdDurationSegment) Visible(ctx *prompt.Context) bool {
	return time.Duration(ctx.CmdDurationMs)*time.Millisecond >= cmdDurationThreshold
}

func (cmdDurationSegment) Render(ctx *prompt.Context, _ *theme.Theme) string {
	d := time.Duration(ctx.CmdDurationMs) * time.Millisecond
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}

type virtualenvSegment struct{}

func (virtualenvSegment) Name() string { return "virtualenv" }

func (virtualenvSegment) Visible(ctx *prompt.Context) bool {
	return ctx.VirtualEnv != ""
}

func (virtualenvSegment) Render(ctx *prompt.Context, _ *theme.Theme) string {
	return "(" + ctx.VirtualEnv + ")"
}

type containerSegment struct{}

func (containerSegment) Name() string { return "container" }

func (containerSegment) Visible(ctx *prompt.Context) bool {
	return ctx.ContainerName != ""
}

func (containerSegment) Render(ctx *prompt.Context, _ *theme.Theme) string {
	return "⎈ " + ctx.ContainerName
}

type awsSegment struct{}

func (awsSegment) Name() string { return "aws" }

func (awsSegment) Visible(ctx *prompt.Context) bool {
	return ctx.AWSProfile != ""
}

func (awsSegment) Render(ctx *prompt.Context, _ *theme.Theme) string {
	return "aws:" + ctx.AWSProfile
}

type kubernetesSegment struct{}

func (kubernetesSegment) Name() string { return "kubernetes" }

func (kubernetesSegment) Visible(ctx *prompt.Context) bool {
	return ctx.KubeContext != ""
}

func (kubernetesSegment) Render(ctx *prompt.Context, _ *theme.Theme) string {
	return "☸ " + ctx.KubeContext
}

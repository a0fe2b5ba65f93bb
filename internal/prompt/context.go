// Package prompt holds the per-render context shared by every stage of
// the pipeline, plus the bounded output buffers that keep a hostile or
// runaway format string from corrupting the terminal.
package prompt

import (
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/lushell/promptline/internal/gitstatus"
)

// Output bounds. Segment renderers write into SegmentOutputMax-sized
// buffers; the assembled prompt is clipped at PromptOutputMax.
const (
	SegmentOutputMax = 1024
	PromptOutputMax  = 4096
)

// Context carries everything a render needs. It is built once per
// prompt draw and never mutated during the render.
type Context struct {
	Username  string
	HostShort string
	HostFull  string

	CWD      string // full path
	CWDTilde string // home folded to ~
	Home     string

	IsRoot         bool
	LastExitStatus int
	JobCount       int
	HistoryNumber  int
	CommandNumber  int

	// Color capability, negotiated once per render.
	ColorDepth   int // 0=none, 1=8-color, 2=256, 3=truecolor
	Has256Color  bool
	HasTrueColor bool

	TTY string // device tail, e.g. "pts/0"

	ShellName    string
	VersionShort string
	VersionFull  string

	// Environment-derived segment inputs, read at context creation.
	ShLvl         int
	SSHSession    bool
	VirtualEnv    string
	ContainerName string
	AWSProfile    string
	KubeContext   string
	CmdDurationMs int64

	// Now pins the render's wall clock so every time escape in one
	// prompt agrees.
	Now time.Time

	// Git is the most recently published snapshot, nil when none has
	// arrived yet.
	Git *gitstatus.Snapshot
}

// CWDBasename returns the last component of the tilde-folded cwd, with
// the home directory itself as "~" and the root as "/".
func (c *Context) CWDBasename() string {
	switch c.CWDTilde {
	case "~", "/", "":
		if c.CWDTilde == "" {
			return ""
		}
		return c.CWDTilde
	}
	return filepath.Base(c.CWDTilde)
}

// TildeFold rewrites path so a leading home prefix becomes "~".
func TildeFold(path, home string) string {
	if home == "" || !strings.HasPrefix(path, home) {
		return path
	}
	rest := path[len(home):]
	if rest == "" || rest[0] == '/' {
		return "~" + rest
	}
	return path
}

// FromEnvironment builds a context from the live process environment.
// Capability fields and shell identity are left for the caller.
func FromEnvironment() *Context {
	ctx := &Context{Now: time.Now()}

	if u, err := user.Current(); err == nil {
		ctx.Username = u.Username
		ctx.Home = u.HomeDir
	}
	if ctx.Home == "" {
		ctx.Home, _ = os.UserHomeDir()
	}

	if host, err := os.Hostname(); err == nil {
		ctx.HostFull = host
		ctx.HostShort = host
		if dot := strings.IndexByte(host, '.'); dot > 0 {
			ctx.HostShort = host[:dot]
		}
	}

	if cwd, err := os.Getwd(); err == nil {
		ctx.CWD = cwd
		ctx.CWDTilde = TildeFold(cwd, ctx.Home)
	}

	ctx.IsRoot = os.Geteuid() == 0
	ctx.TTY = ttyName()

	if lvl, err := strconv.Atoi(os.Getenv("SHLVL")); err == nil {
		ctx.ShLvl = lvl
	}
	ctx.SSHSession = os.Getenv("SSH_CONNECTION") != "" || os.Getenv("SSH_TTY") != ""
	if env := os.Getenv("VIRTUAL_ENV"); env != "" {
		ctx.VirtualEnv = filepath.Base(env)
	}
	ctx.ContainerName = containerName()
	ctx.AWSProfile = os.Getenv("AWS_PROFILE")
	ctx.KubeContext = os.Getenv("PROMPTLINE_KUBE_CONTEXT")

	return ctx
}

// ttyName resolves the controlling terminal device tail (e.g. "pts/0"),
// "?" when stdin is not a terminal.
func ttyName() string {
	target, err := os.Readlink("/proc/self/fd/0")
	if err != nil || !strings.HasPrefix(target, "/dev/") {
		return "?"
	}
	return strings.TrimPrefix(target, "/dev/")
}

// containerName detects a container runtime marker.
func containerName() string {
	if name := os.Getenv("container"); name != "" {
		return name
	}
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return "docker"
	}
	if _, err := os.Stat("/run/.containerenv"); err == nil {
		return "podman"
	}
	return ""
}

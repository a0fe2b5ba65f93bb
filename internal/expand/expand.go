// Package expand implements pass 2 of the prompt pipeline: a single
// left-to-right scan that expands bash backslash escapes and zsh
// percent escapes while copying embedded ANSI CSI sequences through
// untouched. The scan never fails; unknown escapes emit their raw
// bytes and oversized output truncates silently.
package expand

import (
	"path"
	"strconv"

	"github.com/lushell/promptline/internal/color"
	"github.com/lushell/promptline/internal/prompt"
)

// Expand scans format and returns the expanded byte string, clipped at
// max bytes (PromptOutputMax when max <= 0).
func Expand(format string, ctx *prompt.Context, max int) string {
	out := prompt.NewCappedBuilder(max)

	for i := 0; i < len(format); {
		c := format[i]

		// ANSI sequences from pass 1 are copied verbatim: ESC [
		// parameter bytes, then the final byte in 0x40-0x7E.
		if c == 0x1b {
			out.WriteByte(c)
			i++
			if i < len(format) && format[i] == '[' {
				out.WriteByte('[')
				i++
				for i < len(format) && format[i] < 0x40 {
					out.WriteByte(format[i])
					i++
				}
				if i < len(format) {
					out.WriteByte(format[i])
					i++
				}
			}
			continue
		}

		if c == '\\' && i+1 < len(format) {
			i = expandBash(format, i+1, ctx, out)
			continue
		}

		if c == '%' && i+1 < len(format) {
			i = expandZsh(format, i+1, ctx, out)
			continue
		}

		out.WriteByte(c)
		i++
	}

	return out.String()
}

// expandBash handles the bash escape whose selector byte sits at i
// (just past the backslash). Returns the index of the next unconsumed
// byte.
func expandBash(format string, i int, ctx *prompt.Context, out *prompt.CappedBuilder) int {
	c := format[i]
	i++

	switch c {
	case 'u':
		out.WriteString(ctx.Username)
	case 'h':
		out.WriteString(ctx.HostShort)
	case 'H':
		out.WriteString(ctx.HostFull)
	case 'w':
		out.WriteString(ctx.CWDTilde)
	case 'W':
		out.WriteString(ctx.CWDBasename())
	case 'd':
		out.WriteString(strftime("%a %b %d", ctx.Now))
	case 't':
		out.WriteString(strftime("%H:%M:%S", ctx.Now))
	case 'T':
		out.WriteString(strftime("%I:%M:%S", ctx.Now))
	case '@':
		out.WriteString(strftime("%I:%M %p", ctx.Now))
	case 'A':
		out.WriteString(strftime("%H:%M", ctx.Now))
	case '$':
		if ctx.IsRoot {
			out.WriteByte('#')
		} else {
			out.WriteByte('$')
		}
	case 'n':
		out.WriteByte('\n')
	case 'r':
		out.WriteByte('\r')
	case '\\':
		out.WriteByte('\\')
	case '[', ']':
		// Non-printing markers are consumed, never emitted.
	case '!':
		out.WriteString(strconv.Itoa(ctx.HistoryNumber))
	case '#':
		out.WriteString(strconv.Itoa(ctx.CommandNumber))
	case 'j':
		out.WriteString(strconv.Itoa(ctx.JobCount))
	case 'l':
		out.WriteString(path.Base(ctx.TTY))
	case 's':
		out.WriteString(ctx.ShellName)
	case 'v':
		out.WriteString(ctx.VersionShort)
	case 'V':
		out.WriteString(ctx.VersionFull)
	case 'e':
		out.WriteByte(0x1b)
	case 'a':
		out.WriteByte(0x07)
	case '0':
		// Octal \0NNN, up to three digits past the zero.
		val, digits := 0, 0
		for digits < 3 && i < len(format) && format[i] >= '0' && format[i] <= '7' {
			val = val*8 + int(format[i]-'0')
			i++
			digits++
		}
		if digits > 0 && val <= 255 {
			out.WriteByte(byte(val))
		}
	case 'x':
		// Hex \xNN, up to two digits.
		val, digits := 0, 0
		for digits < 2 && i < len(format) && isHexDigit(format[i]) {
			val = val*16 + hexValue(format[i])
			i++
			digits++
		}
		if digits > 0 {
			out.WriteByte(byte(val))
		}
	default:
		// Unknown escape: both raw bytes pass through.
		out.WriteByte('\\')
		out.WriteByte(c)
	}

	return i
}

// expandZsh handles the zsh escape whose selector byte sits at i (just
// past the percent). Returns the index of the next unconsumed byte.
func expandZsh(format string, i int, ctx *prompt.Context, out *prompt.CappedBuilder) int {
	c := format[i]
	i++

	switch c {
	case 'n':
		out.WriteString(ctx.Username)
	case 'm':
		out.WriteString(ctx.HostShort)
	case 'M':
		out.WriteString(ctx.HostFull)
	case 'd', '/':
		out.WriteString(ctx.CWD)
	case '~':
		out.WriteString(ctx.CWDTilde)
	case 'c', '.':
		out.WriteString(ctx.CWDBasename())
	case '#':
		if ctx.IsRoot {
			out.WriteByte('#')
		} else {
			out.WriteByte('%')
		}
	case '%':
		out.WriteByte('%')
	case 'T':
		out.WriteString(strftime("%H:%M", ctx.Now))
	case 't', '@':
		out.WriteString(strftime("%l:%M %p", ctx.Now))
	case '*':
		out.WriteString(strftime("%H:%M:%S", ctx.Now))
	case 'j':
		out.WriteString(strconv.Itoa(ctx.JobCount))
	case 'l':
		out.WriteString(ctx.TTY)
	case '?':
		out.WriteString(strconv.Itoa(ctx.LastExitStatus))
	case 'D':
		if i < len(format) && format[i] == '{' {
			spec, next := braceBody(format, i)
			out.WriteString(strftime(spec, ctx.Now))
			i = next
		} else {
			out.WriteString(strftime("%y-%m-%d", ctx.Now))
		}
	case 'B':
		out.WriteString("\x1b[1m")
	case 'b':
		out.WriteString("\x1b[22m")
	case 'U':
		out.WriteString("\x1b[4m")
	case 'u':
		out.WriteString("\x1b[24m")
	case 'S':
		out.WriteString("\x1b[7m")
	case 's':
		out.WriteString("\x1b[27m")
	case 'F':
		if i < len(format) && format[i] == '{' {
			spec, next := braceBody(format, i)
			emitColorSpec(out, spec, ctx.ColorDepth, true)
			i = next
		}
	case 'f':
		out.WriteString(color.ResetFg)
	case 'K':
		if i < len(format) && format[i] == '{' {
			spec, next := braceBody(format, i)
			emitColorSpec(out, spec, ctx.ColorDepth, false)
			i = next
		}
	case 'k':
		out.WriteString(color.ResetBg)
	default:
		out.WriteByte('%')
		out.WriteByte(c)
	}

	return i
}

// braceBody extracts the {...} body starting at the opening brace at i
// and returns it with the index just past the closing brace. A missing
// close brace consumes to the end of the string.
func braceBody(format string, i int) (string, int) {
	i++ // opening brace
	start := i
	for i < len(format) && format[i] != '}' {
		i++
	}
	body := format[start:i]
	if i < len(format) {
		i++ // closing brace
	}
	return body, i
}

// emitColorSpec writes the SGR for a %F{spec}/%K{spec} color at the
// given depth. Malformed specs emit nothing; hex colors degrade to the
// 256-color cube at depth 2 and disappear at depth 1 (there is no good
// 8-color approximation).
func emitColorSpec(out *prompt.CappedBuilder, spec string, depth int, fg bool) {
	if depth == 0 {
		return
	}
	c, ok := color.ParseSpec(spec)
	if !ok {
		return
	}

	switch c.Mode {
	case color.ModeRGB:
		switch {
		case depth >= 3:
			out.WriteString(c.ANSI(fg))
		case depth == 2:
			out.WriteString(color.Downgrade(c, false, true).ANSI(fg))
		}
	case color.ModeIndexed:
		if depth >= 2 {
			out.WriteString(c.ANSI(fg))
		} else {
			out.WriteString(color.Basic(c.Value % 8).ANSI(fg))
		}
	case color.ModeBasic:
		out.WriteString(c.ANSI(fg))
	}
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func hexValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	default:
		return int(c-'A') + 10
	}
}

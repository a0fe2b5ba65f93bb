package expand

import (
	"fmt"
	"strings"
	"time"
)

// strftime formats t using the C strftime specifiers the prompt escapes
// rely on. Unrecognized specifiers are emitted verbatim, matching the
// "graceful, never fatal" rendering policy.
func strftime(layout string, t time.Time) string {
	var sb strings.Builder
	for i := 0; i < len(layout); i++ {
		if layout[i] != '%' || i+1 >= len(layout) {
			sb.WriteByte(layout[i])
			continue
		}
		i++
		switch layout[i] {
		case 'a':
			sb.WriteString(t.Format("Mon"))
		case 'A':
			sb.WriteString(t.Format("Monday"))
		case 'b', 'h':
			sb.WriteString(t.Format("Jan"))
		case 'B':
			sb.WriteString(t.Format("January"))
		case 'd':
			sb.WriteString(t.Format("02"))
		case 'e':
			sb.WriteString(t.Format("_2"))
		case 'H':
			sb.WriteString(t.Format("15"))
		case 'I':
			sb.WriteString(t.Format("03"))
		case 'j':
			sb.WriteString(fmt.Sprintf("%03d", t.YearDay()))
		case 'l':
			// 12-hour, space padded.
			hour := t.Hour() % 12
			if hour == 0 {
				hour = 12
			}
			sb.WriteString(fmt.Sprintf("%2d", hour))
		case 'm':
			sb.WriteString(t.Format("01"))
		case 'M':
			sb.WriteString(t.Format("04"))
		case 'p':
			sb.WriteString(t.Format("PM"))
		case 'P':
			sb.WriteString(t.Format("pm"))
		case 'S':
			sb.WriteString(t.Format("05"))
		case 'y':
			sb.WriteString(t.Format("06"))
		case 'Y':
			sb.WriteString(t.Format("2006"))
		case 'z':
			sb.WriteString(t.Format("-0700"))
		case 'Z':
			sb.WriteString(t.Format("MST"))
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case '%':
			sb.WriteByte('%')
		default:
			sb.WriteByte('%')
			sb.WriteByte(layout[i])
		}
	}
	return sb.String()
}

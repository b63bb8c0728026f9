package answer

import (
	"strconv"
	"strings"
)

// extractor states
const (
	seekKey = iota
	seekString
	inString
	done
)

// answerExtractor pulls the decoded content of the "answer" field out of a
// JSON object while it is still streaming, so the user sees text before the
// object is complete. Feeding must happen in wire order.
type answerExtractor struct {
	state   int
	window  string // rolling buffer while locating the key
	escape  string // partial escape sequence carried across chunks
	emitted strings.Builder
}

const answerKey = `"answer"`

// feed consumes the next raw chunk and returns whatever new displayable
// answer text it completed. Returns "" when the chunk added nothing visible.
func (e *answerExtractor) feed(chunk string) string {
	var out strings.Builder
	for len(chunk) > 0 {
		switch e.state {
		case seekKey:
			e.window += chunk
			chunk = ""
			if idx := strings.Index(e.window, answerKey); idx >= 0 {
				chunk = e.window[idx+len(answerKey):]
				e.window = ""
				e.state = seekString
			} else if len(e.window) > len(answerKey) {
				// keep only a possible key prefix
				e.window = e.window[len(e.window)-len(answerKey):]
			}
		case seekString:
			i := 0
			for i < len(chunk) {
				c := chunk[i]
				i++
				if c == '"' {
					e.state = inString
					break
				}
				// skip the colon and interstitial whitespace
			}
			chunk = chunk[i:]
		case inString:
			i := 0
			for i < len(chunk) {
				c := chunk[i]
				if e.escape != "" {
					e.escape += string(c)
					i++
					if decoded, complete := decodeEscape(e.escape); complete {
						out.WriteString(decoded)
						e.escape = ""
					}
					continue
				}
				if c == '\\' {
					e.escape = `\`
					i++
					continue
				}
				if c == '"' {
					e.state = done
					i++
					break
				}
				out.WriteByte(c)
				i++
			}
			chunk = chunk[i:]
		case done:
			chunk = ""
		}
	}
	e.emitted.WriteString(out.String())
	return out.String()
}

// decodeEscape resolves a JSON escape sequence once enough bytes arrived.
// seq always starts with the backslash.
func decodeEscape(seq string) (string, bool) {
	if len(seq) < 2 {
		return "", false
	}
	switch seq[1] {
	case '"':
		return `"`, true
	case '\\':
		return `\`, true
	case '/':
		return "/", true
	case 'n':
		return "\n", true
	case 't':
		return "\t", true
	case 'r':
		return "\r", true
	case 'b':
		return "\b", true
	case 'f':
		return "\f", true
	case 'u':
		if len(seq) < 6 {
			return "", false
		}
		code, err := strconv.ParseUint(seq[2:6], 16, 32)
		if err != nil {
			return "", true // malformed, drop it
		}
		return string(rune(code)), true
	default:
		// unknown escape, pass through verbatim
		return seq[1:], true
	}
}

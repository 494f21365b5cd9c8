package skip

import (
	"fmt"
	"regexp"
	"strings"
)

// splitList splits a comma separated skip list. A backslash escapes the
// following byte and is kept so translate can see it.
func splitList(list string) []string {
	var entries []string
	var cur strings.Builder
	for i := 0; i < len(list); i++ {
		c := list[i]
		switch {
		case c == '\\' && i+1 < len(list):
			cur.WriteByte(c)
			cur.WriteByte(list[i+1])
			i++
		case c == ',':
			entries = append(entries, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	entries = append(entries, cur.String())
	return entries
}

// translate converts one skip entry into a regular expression fragment
// over normalized candidate paths ("./dir/file", "./dir/").
//
//	*      any run of non-separator bytes
//	?      one non-separator byte
//	[..]   character class, [!..] negated
//	\c     literal c
//	/x     anchored at the tree root
//	x/     directories only, and everything below them
func translate(entry string) (string, error) {
	glob := entry
	dirOnly := strings.HasSuffix(glob, "/") && !strings.HasSuffix(glob, `\/`)
	if dirOnly {
		glob = strings.TrimSuffix(glob, "/")
	}
	anchored := strings.HasPrefix(glob, "/")
	if anchored {
		glob = strings.TrimPrefix(glob, "/")
	}
	if glob == "" {
		return "", fmt.Errorf("empty name in %q", entry)
	}

	var re strings.Builder
	if anchored {
		re.WriteString(`^\./`)
	} else {
		re.WriteString(`/`)
	}

	for i := 0; i < len(glob); i++ {
		c := glob[i]
		switch c {
		case '*':
			re.WriteString(`[^/]*`)
		case '?':
			re.WriteString(`[^/]`)
		case '\\':
			if i+1 >= len(glob) {
				return "", fmt.Errorf("trailing backslash in %q", entry)
			}
			i++
			re.WriteString(regexp.QuoteMeta(string(glob[i])))
		case '[':
			end, class, err := translateClass(glob, i)
			if err != nil {
				return "", fmt.Errorf("%w in %q", err, entry)
			}
			re.WriteString(class)
			i = end
		default:
			re.WriteString(regexp.QuoteMeta(string(c)))
		}
	}

	if dirOnly {
		re.WriteString(`/`)
	} else {
		re.WriteString(`$`)
	}
	return re.String(), nil
}

// translateClass converts the bracket expression starting at glob[start]
// and returns the index of its closing bracket.
func translateClass(glob string, start int) (int, string, error) {
	var class strings.Builder
	class.WriteByte('[')
	i := start + 1
	if i < len(glob) && glob[i] == '!' {
		// Negated classes never match the separator.
		class.WriteString(`^/`)
		i++
	}
	// A leading ] is a member, not the terminator.
	first := i
	for ; i < len(glob); i++ {
		c := glob[i]
		switch {
		case c == ']' && i > first:
			class.WriteByte(']')
			return i, class.String(), nil
		case c == '\\' && i+1 < len(glob):
			i++
			writeClassByte(&class, glob[i])
		case c == '\\' || c == ']':
			class.WriteByte('\\')
			class.WriteByte(c)
		case c == '/':
			return 0, "", fmt.Errorf("separator inside character class")
		default:
			class.WriteByte(c)
		}
	}
	return 0, "", fmt.Errorf("unterminated character class")
}

func writeClassByte(b *strings.Builder, c byte) {
	isWord := c == '_' || ('0' <= c && c <= '9') || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
	if !isWord && c < 0x80 {
		b.WriteByte('\\')
	}
	b.WriteByte(c)
}

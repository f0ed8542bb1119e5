package testutil

import "strings"

// Dedent removes the leading whitespace common to all non-blank lines of text,
// and turns blank lines into empty ones. A newline at the very start of text
// is dropped, so a raw string may begin on the line after its backtick:
//
//	want := Dedent(`
//		vstack
//		  text a
//		`)
//
// is "vstack\n  text a\n".
func Dedent(text string) string {
	text = strings.TrimPrefix(text, "\n")
	lines := strings.Split(text, "\n")
	margin, found := "", false
	for i, line := range lines {
		if strings.TrimLeft(line, " \t") == "" {
			lines[i] = ""
			continue
		}
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if !found {
			margin, found = indent, true
		} else {
			margin = commonPrefix(margin, indent)
		}
	}
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, margin)
	}
	return strings.Join(lines, "\n")
}

func commonPrefix(a, b string) string {
	i := 0
	for i < len(a) && i < len(b) && a[i] == b[i] {
		i++
	}
	return a[:i]
}

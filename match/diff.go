package match

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// lineDiff renders a +/- line diff between expected and actual, expected
// first. Shared runs longer than a few lines are elided.
func lineDiff(expected, actual string) string {
	dmp := diffmatchpatch.New()
	ca, cb, lines := dmp.DiffLinesToChars(expected, actual)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(ca, cb, false), lines)

	var b strings.Builder
	for _, d := range diffs {
		prefix := "  "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		}
		for _, line := range splitEliding(d.Text, d.Type == diffmatchpatch.DiffEqual) {
			b.WriteString(prefix)
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func splitEliding(text string, equal bool) []string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if !equal || len(lines) <= 6 {
		return lines
	}
	out := append([]string(nil), lines[:3]...)
	out = append(out, "...")
	return append(out, lines[len(lines)-2:]...)
}

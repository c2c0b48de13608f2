package serialize

import (
	"regexp"
	"strings"
)

// voidElements never carry a close tag; they always stay on one line.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

var (
	tagRe     = regexp.MustCompile(`<[^>]+>`)
	tagNameRe = regexp.MustCompile(`^</?\s*([a-zA-Z0-9:_-]+)`)
)

type token struct {
	raw  string
	name string // tag name, empty for text
	kind tokenKind
}

type tokenKind int

const (
	tokenText tokenKind = iota
	tokenOpen
	tokenClose
	tokenVoid // void, self-closing, comment, doctype
)

// prettyPrint re-indents flat markup: void/self-closing elements stay on
// one line, a childless element collapses its open/close tags onto one
// line (likewise an element with a single text child), every other open
// tag increases the indent by one level until its close tag.
func prettyPrint(flat string) string {
	s := afterTagRe.ReplaceAllString(flat, ">")
	s = beforeTagRe.ReplaceAllString(s, "<")
	s = strings.TrimSpace(s)

	tokens := tokenize(s)
	var b strings.Builder
	depth := 0

	writeLine := func(line string) {
		for i := 0; i < depth; i++ {
			b.WriteString("  ")
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}

	for i := 0; i < len(tokens); i++ {
		t := tokens[i]
		switch t.kind {
		case tokenOpen:
			// <x></x> and <x>text</x> collapse onto one line.
			if i+1 < len(tokens) && tokens[i+1].kind == tokenClose && tokens[i+1].name == t.name {
				writeLine(t.raw + tokens[i+1].raw)
				i++
				continue
			}
			if i+2 < len(tokens) && tokens[i+1].kind == tokenText &&
				tokens[i+2].kind == tokenClose && tokens[i+2].name == t.name {
				writeLine(t.raw + strings.TrimSpace(tokens[i+1].raw) + tokens[i+2].raw)
				i += 2
				continue
			}
			writeLine(t.raw)
			depth++
		case tokenClose:
			if depth > 0 {
				depth--
			}
			writeLine(t.raw)
		case tokenText:
			if txt := strings.TrimSpace(t.raw); txt != "" {
				writeLine(txt)
			}
		case tokenVoid:
			writeLine(t.raw)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func tokenize(s string) []token {
	var tokens []token
	last := 0
	for _, loc := range tagRe.FindAllStringIndex(s, -1) {
		if loc[0] > last {
			tokens = append(tokens, token{raw: s[last:loc[0]], kind: tokenText})
		}
		raw := s[loc[0]:loc[1]]
		tokens = append(tokens, classify(raw))
		last = loc[1]
	}
	if last < len(s) {
		tokens = append(tokens, token{raw: s[last:], kind: tokenText})
	}
	return tokens
}

func classify(raw string) token {
	if strings.HasPrefix(raw, "<!--") || strings.HasPrefix(raw, "<!") {
		return token{raw: raw, kind: tokenVoid}
	}
	name := ""
	if m := tagNameRe.FindStringSubmatch(raw); m != nil {
		name = strings.ToLower(m[1])
	}
	switch {
	case strings.HasPrefix(raw, "</"):
		return token{raw: raw, name: name, kind: tokenClose}
	case strings.HasSuffix(raw, "/>") || voidElements[name]:
		return token{raw: raw, name: name, kind: tokenVoid}
	default:
		return token{raw: raw, name: name, kind: tokenOpen}
	}
}

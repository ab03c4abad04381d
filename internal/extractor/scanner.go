package extractor

import (
	"strings"
	"unicode/utf8"
)

// Unit is one callable unit isolated from a source file.
type Unit struct {
	Name string
	Body string // text strictly inside the outer braces
	Line int    // 1-based line of the fn keyword
}

// Scanner walks Rust source and yields fn items one at a time. Braces that appear inside
// comments, string literals and char literals never move the depth counter. A Scanner is
// single-use: once Next returns false it stays exhausted.
type Scanner struct {
	src     string
	pos     int
	unit    Unit
	skipped int
	done    bool

	linePos int
	line    int
}

// NewScanner returns a scanner over src.
func NewScanner(src string) *Scanner {
	return &Scanner{src: src, line: 1}
}

// Next advances to the next complete unit. It returns false when the source is exhausted.
func (s *Scanner) Next() bool {
	for !s.done {
		name, line, ok := s.seekFn()
		if !ok {
			s.done = true
			break
		}
		open, ok := s.seekBodyOpen()
		if !ok {
			continue
		}
		end, ok := s.closeBlock(open)
		if !ok {
			// unbalanced: drop this unit and keep looking inside it
			s.skipped++
			s.pos = open + 1
			continue
		}
		s.unit = Unit{Name: name, Body: s.src[open+1 : end], Line: line}
		s.pos = end + 1
		return true
	}
	s.unit = Unit{}
	return false
}

// Unit returns the unit found by the last successful call to Next.
func (s *Scanner) Unit() Unit {
	return s.unit
}

// Skipped reports how many fn items were dropped because their body never balanced.
func (s *Scanner) Skipped() int {
	return s.skipped
}

// Units drains a fresh scanner over src.
func Units(src string) []Unit {
	var out []Unit
	sc := NewScanner(src)
	for sc.Next() {
		out = append(out, sc.Unit())
	}
	return out
}

// seekFn moves past the next `fn <ident>` and returns the ident and the keyword's line.
func (s *Scanner) seekFn() (string, int, bool) {
	src := s.src
	i := s.pos
	for i < len(src) {
		if end := s.literalEnd(i); end > i {
			i = end
			continue
		}
		if !isIdentStart(src[i]) {
			i++
			continue
		}
		start := i
		i = identEnd(src, i)
		if src[start:i] != "fn" {
			continue
		}
		j := s.skipTrivia(i)
		if j < len(src) && isIdentStart(src[j]) {
			nameEnd := identEnd(src, j)
			s.pos = nameEnd
			return src[j:nameEnd], s.lineAt(start), true
		}
		i = j
	}
	s.pos = len(src)
	return "", 0, false
}

// seekBodyOpen finds the brace opening the current item's body. A `;` outside any
// parentheses or brackets first means the item is a bodiless declaration; `[u8; 32]` in
// a signature does not end it.
func (s *Scanner) seekBodyOpen() (int, bool) {
	src := s.src
	i := s.pos
	depth := 0
	for i < len(src) {
		if end := s.literalEnd(i); end > i {
			i = end
			continue
		}
		switch src[i] {
		case '(', '[':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		case '{':
			if depth == 0 {
				return i, true
			}
		case ';':
			if depth == 0 {
				s.pos = i + 1
				return 0, false
			}
		}
		i++
	}
	s.pos = len(src)
	return 0, false
}

// closeBlock returns the index of the brace matching the one at open.
func (s *Scanner) closeBlock(open int) (int, bool) {
	src := s.src
	depth := 0
	i := open
	for i < len(src) {
		if end := s.literalEnd(i); end > i {
			i = end
			continue
		}
		switch src[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
		i++
	}
	return 0, false
}

// skipTrivia skips whitespace and comments.
func (s *Scanner) skipTrivia(i int) int {
	for i < len(s.src) {
		c := s.src[i]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			i++
			continue
		}
		if strings.HasPrefix(s.src[i:], "//") || strings.HasPrefix(s.src[i:], "/*") {
			i = s.literalEnd(i)
			continue
		}
		break
	}
	return i
}

// literalEnd returns the index just past a comment, string or char literal starting at i,
// or i itself when none starts there.
func (s *Scanner) literalEnd(i int) int {
	src := s.src
	switch c := src[i]; {
	case c == '/' && i+1 < len(src) && src[i+1] == '/':
		if nl := strings.IndexByte(src[i:], '\n'); nl >= 0 {
			return i + nl
		}
		return len(src)
	case c == '/' && i+1 < len(src) && src[i+1] == '*':
		return blockCommentEnd(src, i)
	case c == '"':
		return quotedEnd(src, i+1)
	case c == '\'':
		return charEnd(src, i)
	case (c == 'r' || c == 'b') && (i == 0 || !isIdentByte(src[i-1])):
		return prefixedLiteralEnd(src, i)
	}
	return i
}

func blockCommentEnd(src string, i int) int {
	depth := 0
	for i < len(src)-1 {
		switch {
		case src[i] == '/' && src[i+1] == '*':
			depth++
			i += 2
		case src[i] == '*' && src[i+1] == '/':
			depth--
			i += 2
			if depth == 0 {
				return i
			}
		default:
			i++
		}
	}
	return len(src)
}

// quotedEnd scans an escaped string body starting just after its opening quote.
func quotedEnd(src string, i int) int {
	for i < len(src) {
		switch src[i] {
		case '\\':
			i += 2
		case '"':
			return i + 1
		default:
			i++
		}
	}
	return len(src)
}

// charEnd distinguishes char literals from lifetimes. A lifetime only consumes its quote.
func charEnd(src string, i int) int {
	if i+1 >= len(src) {
		return i + 1
	}
	if src[i+1] == '\\' {
		// '\n', '\'', '\x7b', '\u{7b}'
		limit := i + 12
		if limit > len(src) {
			limit = len(src)
		}
		if i+3 <= limit {
			if q := strings.IndexByte(src[i+3:limit], '\''); q >= 0 {
				return i + 3 + q + 1
			}
		}
		return i + 1
	}
	_, size := utf8.DecodeRuneInString(src[i+1:])
	if j := i + 1 + size; j < len(src) && src[j] == '\'' {
		return j + 1
	}
	return i + 1
}

// prefixedLiteralEnd handles r"", r#""#, b"", br"", b'x' forms. Plain identifiers
// starting with r or b return i.
func prefixedLiteralEnd(src string, i int) int {
	j := i
	if src[j] == 'b' {
		j++
		if j < len(src) && src[j] == '\'' {
			return charEnd(src, j)
		}
		if j < len(src) && src[j] == '"' {
			return quotedEnd(src, j+1)
		}
	}
	if j >= len(src) || src[j] != 'r' {
		return i
	}
	j++
	hashes := 0
	for j < len(src) && src[j] == '#' {
		hashes++
		j++
	}
	if j >= len(src) || src[j] != '"' {
		return i
	}
	closing := "\"" + strings.Repeat("#", hashes)
	if k := strings.Index(src[j+1:], closing); k >= 0 {
		return j + 1 + k + len(closing)
	}
	return len(src)
}

func (s *Scanner) lineAt(pos int) int {
	if pos < s.linePos {
		s.linePos, s.line = 0, 1
	}
	s.line += strings.Count(s.src[s.linePos:pos], "\n")
	s.linePos = pos
	return s.line
}

func identEnd(src string, i int) int {
	for i < len(src) && isIdentByte(src[i]) {
		i++
	}
	return i
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= utf8.RuneSelf
}

func isIdentByte(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

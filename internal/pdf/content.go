package pdf

import (
	"bytes"
	"strconv"
	"strings"
)

// kernSpace is the TJ displacement, in thousandths of an em, beyond which
// a gap between two strings is rendered as a space.
const kernSpace = -200

// ContentText recovers the visible text of a PDF page content stream from
// its text-showing operators (Tj, TJ, ' and "). Line-moving operators start
// a new line. Glyphs in fonts with custom encodings come through as their
// raw bytes.
func ContentText(stream []byte) string {
	s := &scanner{src: stream}
	var (
		out     strings.Builder
		operand []string
		inArray bool
		array   strings.Builder
	)
	newline := func() {
		if out.Len() > 0 && !strings.HasSuffix(out.String(), "\n") {
			out.WriteByte('\n')
		}
	}

	for {
		tok, kind := s.next()
		if kind == tokEOF {
			break
		}
		switch kind {
		case tokString:
			if inArray {
				array.WriteString(tok)
			} else {
				operand = append(operand, tok)
			}
		case tokNumber:
			if inArray {
				if v, err := strconv.ParseFloat(tok, 64); err == nil && v < kernSpace {
					array.WriteByte(' ')
				}
			}
		case tokArrayStart:
			inArray = true
			array.Reset()
		case tokArrayEnd:
			inArray = false
			operand = append(operand, array.String())
		case tokOperator:
			switch tok {
			case "Tj", "TJ":
				for _, o := range operand {
					out.WriteString(o)
				}
			case "'", `"`:
				newline()
				if len(operand) > 0 {
					out.WriteString(operand[len(operand)-1])
				}
			case "Td", "TD", "T*", "ET":
				newline()
			}
			operand = operand[:0]
		}
	}
	return strings.TrimSpace(out.String())
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokString
	tokNumber
	tokArrayStart
	tokArrayEnd
	tokOperator
	tokOther
)

type scanner struct {
	src []byte
	pos int
}

func isDelimiter(c byte) bool {
	return strings.IndexByte("()<>[]{}/%", c) >= 0
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\r' || c == '\t' || c == '\f' || c == 0
}

func (s *scanner) next() (string, tokenKind) {
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case isSpace(c):
			s.pos++
		case c == '%':
			for s.pos < len(s.src) && s.src[s.pos] != '\n' && s.src[s.pos] != '\r' {
				s.pos++
			}
		case c == '(':
			s.pos++
			return s.literal(), tokString
		case c == '<':
			if s.pos+1 < len(s.src) && s.src[s.pos+1] == '<' {
				s.pos += 2
				return "<<", tokOther
			}
			s.pos++
			return s.hex(), tokString
		case c == '>':
			s.pos++
			if s.pos < len(s.src) && s.src[s.pos] == '>' {
				s.pos++
			}
			return ">>", tokOther
		case c == '[':
			s.pos++
			return "[", tokArrayStart
		case c == ']':
			s.pos++
			return "]", tokArrayEnd
		case c == '/':
			s.pos++
			return "/" + s.word(), tokOther
		case c == '{' || c == '}' || c == ')':
			s.pos++
			return string(c), tokOther
		default:
			w := s.word()
			if w == "" {
				s.pos++
				continue
			}
			if _, err := strconv.ParseFloat(w, 64); err == nil {
				return w, tokNumber
			}
			return w, tokOperator
		}
	}
	return "", tokEOF
}

func (s *scanner) word() string {
	start := s.pos
	for s.pos < len(s.src) && !isSpace(s.src[s.pos]) && !isDelimiter(s.src[s.pos]) {
		s.pos++
	}
	return string(s.src[start:s.pos])
}

// literal reads a (...) string after the opening parenthesis, honouring
// nesting and backslash escapes.
func (s *scanner) literal() string {
	var b bytes.Buffer
	depth := 1
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		s.pos++
		switch c {
		case '(':
			depth++
			b.WriteByte(c)
		case ')':
			depth--
			if depth == 0 {
				return b.String()
			}
			b.WriteByte(c)
		case '\\':
			if s.pos >= len(s.src) {
				return b.String()
			}
			e := s.src[s.pos]
			s.pos++
			switch e {
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			case 'b':
				b.WriteByte('\b')
			case 'f':
				b.WriteByte('\f')
			case '\r', '\n':
				// Line continuation.
				if e == '\r' && s.pos < len(s.src) && s.src[s.pos] == '\n' {
					s.pos++
				}
			default:
				if e >= '0' && e <= '7' {
					v := int(e - '0')
					for i := 0; i < 2 && s.pos < len(s.src) && s.src[s.pos] >= '0' && s.src[s.pos] <= '7'; i++ {
						v = v*8 + int(s.src[s.pos]-'0')
						s.pos++
					}
					b.WriteByte(byte(v))
				} else {
					b.WriteByte(e)
				}
			}
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// hex reads a <...> string after the opening bracket.
func (s *scanner) hex() string {
	var digits []byte
	for s.pos < len(s.src) && s.src[s.pos] != '>' {
		if c := s.src[s.pos]; !isSpace(c) {
			digits = append(digits, c)
		}
		s.pos++
	}
	s.pos++
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, 0, len(digits)/2)
	for i := 0; i+1 < len(digits); i += 2 {
		v, err := strconv.ParseUint(string(digits[i:i+2]), 16, 8)
		if err != nil {
			continue
		}
		out = append(out, byte(v))
	}
	return string(out)
}

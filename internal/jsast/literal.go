package jsast

import (
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// StringValue returns the cooked value of a string literal node.
func StringValue(n *Node) (string, bool) {
	if n == nil || n.Kind != KindLiteral || n.Type != "string" {
		return "", false
	}
	raw := Source(n)
	if len(raw) < 2 {
		return "", false
	}
	return unescape(raw[1 : len(raw)-1])
}

// LiteralValue returns the value of a string, number, boolean or null
// literal. Numbers are float64, null is a nil value with ok set. Regular
// expression literals are not values and report false.
func LiteralValue(n *Node) (any, bool) {
	if n == nil || n.Kind != KindLiteral {
		return nil, false
	}
	switch n.Type {
	case "string":
		s, ok := StringValue(n)
		return s, ok
	case "number":
		return numberValue(Source(n))
	case "true":
		return true, true
	case "false":
		return false, true
	case "null":
		return nil, true
	}
	return nil, false
}

// MemberPath returns the dotted name of an identifier or a chain of plain
// property accesses, e.g. "Liferay.Loader.require". Computed and optional
// accesses report false.
func MemberPath(n *Node) (string, bool) {
	if n == nil {
		return "", false
	}
	switch n.Kind {
	case KindIdentifier:
		return n.Text, n.IsLeaf()
	case KindThisExpression:
		return "this", true
	case KindMemberExpression:
		for _, c := range n.Children {
			switch {
			case c.Field == "object", c.Field == "property":
			case c.Kind == KindToken && c.Text == ".":
			default:
				return "", false
			}
		}
		prop := n.ChildByField("property")
		if prop == nil || prop.Kind != KindIdentifier {
			return "", false
		}
		obj, ok := MemberPath(n.ChildByField("object"))
		if !ok {
			return "", false
		}
		return obj + "." + prop.Text, true
	}
	return "", false
}

func numberValue(raw string) (any, bool) {
	s := strings.ReplaceAll(raw, "_", "")
	if strings.HasSuffix(s, "n") {
		// BigInt
		return nil, false
	}
	if len(s) > 1 && s[0] == '0' && strings.ContainsAny(s[1:2], "xXoObB") {
		v, err := strconv.ParseInt(s, 0, 64)
		if err != nil {
			return nil, false
		}
		return float64(v), true
	}
	if len(s) > 1 && s[0] == '0' && isOctalLegacy(s[1:]) {
		v, err := strconv.ParseInt(s[1:], 8, 64)
		if err != nil {
			return nil, false
		}
		return float64(v), true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, false
	}
	return v, true
}

func isOctalLegacy(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '7' {
			return false
		}
	}
	return s != ""
}

// unescape decodes the body of a JavaScript string literal.
func unescape(body string) (string, bool) {
	if !strings.Contains(body, `\`) {
		return body, true
	}

	var b strings.Builder
	b.Grow(len(body))
	for i := 0; i < len(body); {
		c := body[i]
		if c != '\\' {
			b.WriteByte(c)
			i++
			continue
		}
		i++
		if i >= len(body) {
			return "", false
		}
		c = body[i]
		i++
		switch c {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case '0':
			b.WriteByte(0)
		case '\n':
			// line continuation
		case '\r':
			if i < len(body) && body[i] == '\n' {
				i++
			}
		case 'x':
			if i+2 > len(body) {
				return "", false
			}
			v, err := strconv.ParseUint(body[i:i+2], 16, 8)
			if err != nil {
				return "", false
			}
			b.WriteRune(rune(v))
			i += 2
		case 'u':
			r, next, ok := unicodeEscape(body, i)
			if !ok {
				return "", false
			}
			i = next
			if utf16.IsSurrogate(r) {
				// A surrogate pair arrives as two consecutive escapes.
				if i+1 < len(body) && body[i] == '\\' && body[i+1] == 'u' {
					if lo, after, ok := unicodeEscape(body, i+2); ok {
						if pair := utf16.DecodeRune(r, lo); pair != utf8.RuneError {
							b.WriteRune(pair)
							i = after
							continue
						}
					}
				}
				r = utf8.RuneError
			}
			b.WriteRune(r)
		default:
			// \' \" \\ and identity escapes
			r, size := utf8.DecodeRuneInString(body[i-1:])
			b.WriteRune(r)
			i += size - 1
		}
	}
	return b.String(), true
}

// unicodeEscape decodes the hex part of \uXXXX or \u{X...} starting at i.
func unicodeEscape(s string, i int) (rune, int, bool) {
	if i < len(s) && s[i] == '{' {
		end := strings.IndexByte(s[i:], '}')
		if end < 2 {
			return 0, 0, false
		}
		v, err := strconv.ParseUint(s[i+1:i+end], 16, 32)
		if err != nil || v > utf8.MaxRune {
			return 0, 0, false
		}
		return rune(v), i + end + 1, true
	}
	if i+4 > len(s) {
		return 0, 0, false
	}
	v, err := strconv.ParseUint(s[i:i+4], 16, 16)
	if err != nil {
		return 0, 0, false
	}
	return rune(v), i + 4, true
}

// Package textclean tidies recognized text before it is stored or sent.
// Steps, in order
// 1 drop invalid UTF-8
// 2 NFC composition
// 3 strip format characters (zero width joiners, BOM) and stray control characters
// 4 collapse horizontal whitespace runs, trim line ends
// 5 collapse three or more line breaks to a blank line, trim the edges
package textclean

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var chainPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFC,
			runes.Remove(runes.In(unicode.Cf)),
			runes.Remove(runes.Predicate(func(r rune) bool {
				return unicode.IsControl(r) && r != '\n' && r != '\t'
			})),
		)
	},
}

// Clean returns s with the steps above applied
func Clean(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToValidUTF8(s, "")
	s = strings.ReplaceAll(s, "\r\n", "\n")

	tr := chainPool.Get().(transform.Transformer)
	ns, _, err := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)
	if err != nil {
		ns = s
	}

	return collapse(ns)
}

func collapse(s string) string {
	lines := strings.Split(s, "\n")
	var b strings.Builder
	b.Grow(len(s))
	blank := 0
	for _, ln := range lines {
		ln = strings.Join(strings.FieldsFunc(ln, isHSpace), " ")
		if ln == "" {
			blank++
			continue
		}
		if b.Len() > 0 {
			if blank > 0 {
				b.WriteString("\n\n")
			} else {
				b.WriteByte('\n')
			}
		}
		blank = 0
		b.WriteString(ln)
	}
	return b.String()
}

func isHSpace(r rune) bool { return r != '\n' && unicode.IsSpace(r) }

// Truncate returns the first n runes of s
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// Package langs converts user supplied language codes into the forms the OCR backends expect.
// Users type ISO 639-1 ("en"), ISO 639-2 ("eng") or BCP-47 ("zh-Hant"); tesseract wants
// three letter traineddata names joined by "+"; Vision wants BCP-47 hints.
package langs

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Default is used when a request names no languages
const Default = "eng"

var (
	zhHant = language.MustParseScript("Hant")

	// tesseract names that do not follow the ISO 639-2/T code
	tessToHint = map[string]string{
		"chi_sim": "zh-Hans",
		"chi_tra": "zh-Hant",
	}
)

// Split breaks free form input like "en, ru uz" into codes
func Split(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '+' || r == ';' || r == '\t'
	})
}

// Normalize maps codes to tesseract names, keeping first occurrence order.
// An empty input yields [Default]. Unknown codes are reported together.
func Normalize(codes []string) ([]string, error) {
	out := make([]string, 0, len(codes))
	seen := make(map[string]struct{}, len(codes))
	var bad []string

	for _, raw := range codes {
		c := strings.ToLower(strings.TrimSpace(raw))
		if c == "" {
			continue
		}
		name, ok := tesseractName(c)
		if !ok {
			bad = append(bad, raw)
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	if len(bad) > 0 {
		return nil, fmt.Errorf("unknown language codes: %s", strings.Join(bad, ", "))
	}
	if len(out) == 0 {
		out = append(out, Default)
	}
	return out, nil
}

// Tesseract joins normalized codes the way tesseract takes them
func Tesseract(codes []string) string {
	if len(codes) == 0 {
		return Default
	}
	return strings.Join(codes, "+")
}

// Hints returns BCP-47 language hints for cloud OCR; unmappable codes are skipped
func Hints(codes []string) []string {
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if h, ok := tessToHint[c]; ok {
			out = append(out, h)
			continue
		}
		tag, err := language.Parse(c)
		if err != nil {
			continue
		}
		base, conf := tag.Base()
		if conf == language.No {
			continue
		}
		out = append(out, base.String())
	}
	return out
}

func tesseractName(c string) (string, bool) {
	if _, ok := tessToHint[c]; ok {
		return c, true
	}
	tag, err := language.Parse(c)
	if err != nil {
		return "", false
	}
	base, conf := tag.Base()
	if conf == language.No {
		return "", false
	}
	if base.String() == "zh" {
		if s, _ := tag.Script(); s == zhHant {
			return "chi_tra", true
		}
		return "chi_sim", true
	}
	iso3 := base.ISO3()
	if len(iso3) != 3 {
		return "", false
	}
	return iso3, true
}

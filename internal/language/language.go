package language

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	xlang "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Canonical parses code and returns the canonical BCP 47 form with a region
// when one is present, for example "zh-cn" becomes "zh-CN".
func Canonical(code string) (string, error) {
	tag, err := parse(code)
	if err != nil {
		return "", err
	}
	base, _ := tag.Base()
	region, conf := tag.Region()
	if conf == xlang.Exact {
		return base.String() + "-" + region.String(), nil
	}
	return base.String(), nil
}

// CloudVoiceCode returns the language code Cloud Text-to-Speech expects. A
// bare Chinese tag maps to Mandarin as spoken in mainland China.
func CloudVoiceCode(code string) (string, error) {
	tag, err := parse(code)
	if err != nil {
		return "", err
	}
	base, _ := tag.Base()
	region, _ := tag.Region()
	if base.String() == "zh" || base.String() == "cmn" {
		if region.String() == "TW" {
			return "cmn-TW", nil
		}
		return "cmn-CN", nil
	}
	return base.String() + "-" + region.String(), nil
}

// ToISO2 returns the two-letter ISO 639-1 code, or "" when none exists.
func ToISO2(code string) string {
	tag, err := parse(code)
	if err != nil {
		return ""
	}
	base, _ := tag.Base()
	if s := base.String(); len(s) == 2 {
		return s
	}
	return ""
}

// DisplayName returns an English name for code, or "Unknown" when it does not parse.
func DisplayName(code string) string {
	tag, err := parse(code)
	if err != nil {
		return "Unknown"
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return cases.Title(xlang.English).String(name)
	}
	return tag.String()
}

func parse(code string) (xlang.Tag, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(code), "_", "-")
	if cleaned == "" {
		return xlang.Und, fmt.Errorf("language: empty code")
	}
	tag, err := xlang.Parse(cleaned)
	if err != nil {
		return xlang.Und, fmt.Errorf("language: parse %q: %w", code, err)
	}
	return tag, nil
}

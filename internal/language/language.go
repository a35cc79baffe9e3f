package language

import (
	"errors"
	"fmt"
	"strings"

	textlang "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Auto is the source-language sentinel that asks the pipeline to detect the spoken language.
const Auto = "auto"

// ErrUnknownLanguage is returned for codes that are neither in the table nor valid BCP 47.
var ErrUnknownLanguage = errors.New("unknown language")

type entry struct {
	code2   string   // ISO 639-1 (2-letter)
	code3   string   // ISO 639-2 primary (3-letter)
	alt3    string   // ISO 639-2 alternate (e.g. "fre" vs "fra")
	display string   // Human-readable name
	words   []string // Full word forms (e.g. "english")
}

var languages = []entry{
	{"en", "eng", "", "English", []string{"english"}},
	{"es", "spa", "", "Spanish", []string{"spanish"}},
	{"fr", "fra", "fre", "French", []string{"french"}},
	{"de", "deu", "ger", "German", []string{"german"}},
	{"it", "ita", "", "Italian", []string{"italian"}},
	{"pt", "por", "", "Portuguese", []string{"portuguese"}},
	{"ja", "jpn", "", "Japanese", []string{"japanese"}},
	{"ko", "kor", "", "Korean", []string{"korean"}},
	{"zh", "zho", "chi", "Chinese", []string{"chinese"}},
	{"ru", "rus", "", "Russian", []string{"russian"}},
	{"ar", "ara", "", "Arabic", []string{"arabic"}},
	{"hi", "hin", "", "Hindi", []string{"hindi"}},
	{"nl", "nld", "dut", "Dutch", []string{"dutch"}},
	{"pl", "pol", "", "Polish", []string{"polish"}},
	{"sv", "swe", "", "Swedish", []string{"swedish"}},
	{"da", "dan", "", "Danish", []string{"danish"}},
	{"no", "nor", "", "Norwegian", []string{"norwegian"}},
	{"fi", "fin", "", "Finnish", []string{"finnish"}},
}

// Index maps built at init time.
var (
	byCode2 map[string]*entry
	byCode3 map[string]*entry
	byWord  map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages)*2)
	byWord = make(map[string]*entry, len(languages))
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byCode3[e.code3] = e
		if e.alt3 != "" {
			byCode3[e.alt3] = e
		}
		for _, w := range e.words {
			byWord[w] = e
		}
	}
}

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	if e, ok := byCode2[code]; ok {
		return e
	}
	if e, ok := byCode3[code]; ok {
		return e
	}
	if e, ok := byWord[code]; ok {
		return e
	}
	return nil
}

// ToISO2 converts any recognized language code or word to ISO 639-1 (2-letter).
// Returns empty string for unrecognized input.
// If the input is already a 2-letter code (even if unknown), it passes through.
func ToISO2(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	if e := lookup(code); e != nil {
		return e.code2
	}
	if len(code) == 2 {
		return code
	}
	return ""
}

// Normalize canonicalizes one language code. Table entries map to ISO 639-1;
// other well-formed BCP 47 tags (e.g. "pt-BR") are returned in canonical form.
func Normalize(code string) (string, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty code", ErrUnknownLanguage)
	}
	if strings.EqualFold(trimmed, Auto) {
		return Auto, nil
	}
	if e := lookup(trimmed); e != nil {
		return e.code2, nil
	}
	tag, err := textlang.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownLanguage, trimmed)
	}
	base, confidence := tag.Base()
	if confidence == textlang.No {
		return "", fmt.Errorf("%w: %q", ErrUnknownLanguage, trimmed)
	}
	if region, conf := tag.Region(); conf == textlang.Exact {
		return base.String() + "-" + region.String(), nil
	}
	return base.String(), nil
}

// DisplayName returns a human-readable language name for any recognized code.
// Returns "Unknown" for empty input, or the uppercased code for unrecognized input.
func DisplayName(code string) string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "Unknown"
	}
	if strings.EqualFold(trimmed, Auto) {
		return "Auto-detect"
	}
	if e := lookup(trimmed); e != nil {
		return e.display
	}
	if tag, err := textlang.Parse(trimmed); err == nil {
		if name := display.English.Tags().Name(tag); name != "" {
			return name
		}
	}
	return strings.ToUpper(trimmed)
}

// NormalizeList normalizes each code and removes duplicates while keeping the
// first occurrence order. Blank entries are skipped; "auto" is rejected
// because it only makes sense as a source language.
func NormalizeList(languages []string) ([]string, error) {
	if len(languages) == 0 {
		return nil, nil
	}
	normalized := make([]string, 0, len(languages))
	seen := make(map[string]struct{}, len(languages))
	for _, lang := range languages {
		if strings.TrimSpace(lang) == "" {
			continue
		}
		code, err := Normalize(lang)
		if err != nil {
			return nil, err
		}
		if code == Auto {
			return nil, fmt.Errorf("%w: %q is only valid as a source language", ErrUnknownLanguage, lang)
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		normalized = append(normalized, code)
	}
	return normalized, nil
}

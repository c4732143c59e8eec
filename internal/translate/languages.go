package translate

import "strings"

// languageNames maps ISO 639-1 codes to display titles for the languages the
// service knows how to handle.
var languageNames = map[string]string{
	"en": "English",
	"ru": "Russian",
	"de": "German",
	"fr": "French",
	"es": "Spanish",
	"it": "Italian",
	"pt": "Portuguese",
	"zh": "Chinese",
	"ja": "Japanese",
	"ko": "Korean",
	"ar": "Arabic",
	"tr": "Turkish",
	"kk": "Kazakh",
	"uk": "Ukrainian",
}

// LangTitle resolves a display title for a language code; unknown codes pass
// through unchanged so the caller still sees something meaningful.
func LangTitle(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "auto" {
		return "AUTO"
	}
	if title, ok := languageNames[code]; ok {
		return title
	}
	return code
}

// KnownLanguage reports whether the code belongs to the supported set.
func KnownLanguage(code string) bool {
	_, ok := languageNames[strings.ToLower(strings.TrimSpace(code))]
	return ok
}

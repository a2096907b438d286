package entity

import "strings"

// Language represents supported language codes using ISO-style abbreviations.
type Language string

const (
	LanguageUnspecified Language = ""
	LanguageEnglish     Language = "en"
	LanguageSpanish     Language = "es"
	LanguageFrench      Language = "fr"
	LanguageGerman      Language = "de"
	LanguageItalian     Language = "it"
	LanguageJapanese    Language = "ja"
	LanguageKorean      Language = "ko"
)

// Code returns the lowercase language code (without defaulting).
func (l Language) Code() string {
	return strings.TrimSpace(string(l))
}

// CodeOrDefault returns the language code, falling back to English when unspecified.
func (l Language) CodeOrDefault() string {
	if l.Code() == "" {
		return string(LanguageEnglish)
	}
	return l.Code()
}

// NormalizeLanguage ensures the language falls back to a supported value (defaults to English).
func NormalizeLanguage(lang Language) Language {
	switch lang {
	case LanguageEnglish, LanguageSpanish, LanguageFrench, LanguageGerman, LanguageItalian, LanguageJapanese, LanguageKorean:
		return lang
	default:
		return LanguageEnglish
	}
}

// ParseLanguage converts an arbitrary string into a supported Language value.
func ParseLanguage(code string) Language {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "en":
		return LanguageEnglish
	case "es":
		return LanguageSpanish
	case "fr":
		return LanguageFrench
	case "de":
		return LanguageGerman
	case "it":
		return LanguageItalian
	case "ja":
		return LanguageJapanese
	case "ko":
		return LanguageKorean
	default:
		return LanguageUnspecified
	}
}

// CEFRLevel is the A1..C2 ordinal proficiency scale used to tag both learners
// and quest content.
type CEFRLevel string

const (
	LevelA1 CEFRLevel = "A1"
	LevelA2 CEFRLevel = "A2"
	LevelB1 CEFRLevel = "B1"
	LevelB2 CEFRLevel = "B2"
	LevelC1 CEFRLevel = "C1"
	LevelC2 CEFRLevel = "C2"
)

// ParseCEFRLevel converts an arbitrary string into a CEFR level, returning
// false when the value is not one of the six levels.
func ParseCEFRLevel(raw string) (CEFRLevel, bool) {
	switch CEFRLevel(strings.ToUpper(strings.TrimSpace(raw))) {
	case LevelA1:
		return LevelA1, true
	case LevelA2:
		return LevelA2, true
	case LevelB1:
		return LevelB1, true
	case LevelB2:
		return LevelB2, true
	case LevelC1:
		return LevelC1, true
	case LevelC2:
		return LevelC2, true
	default:
		return "", false
	}
}

// NormalizeWordToken lowercases and trims a word for duplicate detection.
func NormalizeWordToken(word string) string {
	trimmed := strings.TrimSpace(word)
	if trimmed == "" {
		return ""
	}
	return strings.ToLower(trimmed)
}

package model

import "strings"

// Language tags a generated artifact. Only TypeScript and Python have
// dedicated templates and rules; any other tag is carried through as-is and
// handled by the generic branches.
type Language string

const (
	LanguageTypeScript Language = "typescript"
	LanguagePython     Language = "python"
)

// LanguageKind groups languages by their type discipline.
type LanguageKind int

const (
	KindUnknown LanguageKind = iota
	KindStaticallyTyped
	KindDynamicallyTyped
)

func (k LanguageKind) String() string {
	switch k {
	case KindStaticallyTyped:
		return "statically-typed"
	case KindDynamicallyTyped:
		return "dynamically-typed"
	default:
		return "unknown"
	}
}

var languageAliases = map[string]Language{
	"typescript":    LanguageTypeScript,
	"ts":            LanguageTypeScript,
	"node":          LanguageTypeScript,
	"nodejs":        LanguageTypeScript,
	"javascript-ts": LanguageTypeScript,
	"python":        LanguagePython,
	"py":            LanguagePython,
	"python3":       LanguagePython,
}

// ParseLanguage recognises a supported language from a free-form tag.
func ParseLanguage(s string) (Language, bool) {
	lang, ok := languageAliases[strings.ToLower(strings.TrimSpace(s))]
	return lang, ok
}

// Kind reports the type discipline of the language.
func (l Language) Kind() LanguageKind {
	switch l {
	case LanguageTypeScript:
		return KindStaticallyTyped
	case LanguagePython:
		return KindDynamicallyTyped
	default:
		return KindUnknown
	}
}

// Known reports whether the language has dedicated support.
func (l Language) Known() bool {
	return l == LanguageTypeScript || l == LanguagePython
}

func (l Language) String() string {
	if l == "" {
		return "unknown"
	}
	return string(l)
}

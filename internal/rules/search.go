package rules

import (
	"regexp"

	"github.com/buildmcp/buildmcp/internal/model"
)

var (
	searchLogic = regexp.MustCompile(`(?i)search|find|query`)

	caseInsensitiveIdioms = []string{
		".toLowerCase()", ".toLocaleLowerCase()", ".toUpperCase()", ".toLocaleUpperCase()",
		"localeCompare(", "sensitivity:",
		".lower()", ".casefold()", ".upper()", "re.IGNORECASE", "(?i)",
	}
	regexpCtorFlag = regexp.MustCompile(`RegExp\([^)]*,\s*["'][a-z]*i[a-z]*["']\s*\)`)
	regexLiteralI  = regexp.MustCompile(`/(?:[^/\\\n]|\\.)+/[gmsuy]*i[gmsuy]*\b`)
	pyReFlagI      = regexp.MustCompile(`\bre\.I\b`)
)

// HasCaseInsensitiveIdiom reports whether src contains a recognised
// case-insensitive comparison.
func HasCaseInsensitiveIdiom(src string) bool {
	return containsAny(src, caseInsensitiveIdioms...) ||
		regexpCtorFlag.MatchString(src) ||
		regexLiteralI.MatchString(src) ||
		pyReFlagI.MatchString(src)
}

// CaseInsensitiveSearchRule requires search logic to match case-insensitively.
var CaseInsensitiveSearchRule = Rule{
	Name:        "search.case_insensitive",
	Category:    model.CategorySearchSafety,
	Description: "Search, find and query logic compares text case-insensitively.",
	Applies: func(a model.GeneratedArtifact) bool {
		return searchLogic.MatchString(code(a))
	},
	Check: func(a model.GeneratedArtifact) (string, bool) {
		if HasCaseInsensitiveIdiom(code(a)) {
			return "", false
		}
		return "search logic compares text case-sensitively: normalise both sides (e.g. toLowerCase()/casefold()) or use a case-insensitive regex", true
	},
}

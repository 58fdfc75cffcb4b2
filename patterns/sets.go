package patterns

import (
	"regexp"
	"strings"
)

// KeywordSet - An ordered list of lowercase substrings describing one category of risk.
type KeywordSet struct {
	name     string
	keywords []string
}

func NewKeywordSet(name string, keywords ...string) *KeywordSet {
	lowered := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		lowered = append(lowered, k)
	}
	return &KeywordSet{name: name, keywords: lowered}
}

func (s *KeywordSet) Name() string {
	return s.name
}

// Keywords - Returns a copy of the keywords in table order.
func (s *KeywordSet) Keywords() []string {
	return append([]string(nil), s.keywords...)
}

// Matches - Returns every keyword contained in the already-lowercased text, in table order.
func (s *KeywordSet) Matches(lower string) []string {
	var matched []string
	for _, k := range s.keywords {
		if strings.Contains(lower, k) {
			matched = append(matched, k)
		}
	}
	return matched
}

// RegexSet - An ordered list of case-insensitive patterns.
type RegexSet struct {
	name     string
	patterns []*regexp.Regexp
}

// NewRegexSet - Compiles each expression case-insensitively. Returns the first compilation error.
func NewRegexSet(name string, expressions ...string) (*RegexSet, error) {
	compiled := make([]*regexp.Regexp, 0, len(expressions))
	for _, expr := range expressions {
		re, err := regexp.Compile("(?i)" + expr)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, re)
	}
	return &RegexSet{name: name, patterns: compiled}, nil
}

func mustRegexSet(name string, expressions ...string) *RegexSet {
	s, err := NewRegexSet(name, expressions...)
	if err != nil {
		panic(err) // built-in tables are checked by tests
	}
	return s
}

func (s *RegexSet) Name() string {
	return s.name
}

// Expressions - Returns the source expressions (including the case-insensitive flag) in table order.
func (s *RegexSet) Expressions() []string {
	exprs := make([]string, len(s.patterns))
	for i, re := range s.patterns {
		exprs[i] = re.String()
	}
	return exprs
}

// CountMatches - Returns how many patterns match anywhere in the text. Each pattern counts at most once.
func (s *RegexSet) CountMatches(lower string) int {
	count := 0
	for _, re := range s.patterns {
		if re.MatchString(lower) {
			count++
		}
	}
	return count
}

// ExtensionSet - An ordered list of file suffixes, each with a severity tier.
type ExtensionSet struct {
	name       string
	extensions []Extension
}

func NewExtensionSet(name string, extensions ...Extension) *ExtensionSet {
	normalized := make([]Extension, 0, len(extensions))
	for _, ext := range extensions {
		ext.Suffix = strings.ToLower(strings.TrimSpace(ext.Suffix))
		if ext.Suffix == "" {
			continue
		}
		normalized = append(normalized, ext)
	}
	return &ExtensionSet{name: name, extensions: normalized}
}

func (s *ExtensionSet) Name() string {
	return s.name
}

// Extensions - Returns a copy of the extensions in table order.
func (s *ExtensionSet) Extensions() []Extension {
	return append([]Extension(nil), s.extensions...)
}

// Matches - Returns every extension the text ends with. This is a suffix match, not a substring match.
func (s *ExtensionSet) Matches(lower string) []Extension {
	var matched []Extension
	for _, ext := range s.extensions {
		if strings.HasSuffix(lower, ext.Suffix) {
			matched = append(matched, ext)
		}
	}
	return matched
}

// BrandSet - Brand names which, alongside an account-action context word, indicate a phishing attempt.
type BrandSet struct {
	name         string
	brands       []string
	contextWords []string
}

func NewBrandSet(name string, brands []string, contextWords []string) *BrandSet {
	return &BrandSet{
		name:         name,
		brands:       NewKeywordSet(name, brands...).keywords,
		contextWords: NewKeywordSet(name, contextWords...).keywords,
	}
}

func (s *BrandSet) Name() string {
	return s.name
}

func (s *BrandSet) Brands() []string {
	return append([]string(nil), s.brands...)
}

func (s *BrandSet) ContextWords() []string {
	return append([]string(nil), s.contextWords...)
}

// FirstMatch - Returns the first brand (in table order) found in the text, provided at least one context word is
// also present. Only one brand is ever reported.
func (s *BrandSet) FirstMatch(lower string) (string, bool) {
	hasContext := false
	for _, w := range s.contextWords {
		if strings.Contains(lower, w) {
			hasContext = true
			break
		}
	}
	if !hasContext {
		return "", false
	}
	for _, b := range s.brands {
		if strings.Contains(lower, b) {
			return b, true
		}
	}
	return "", false
}

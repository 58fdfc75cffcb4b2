package patterns

// Tables - The complete matching vocabulary used by the trust scorer. Tables are built once and never mutated.
type Tables struct {
	NSFW       *KeywordSet
	Toxic      *KeywordSet
	Domains    *RegexSet
	Extensions *ExtensionSet
	Brands     *BrandSet
}

var defaultNSFWKeywords = []string{
	"nude", "porn", "xxx", "sex", "explicit", "18+", "onlyfans",
	"pussy", "boobs", "nsfw", "camgirl", "strip", "hot video",
}

var defaultToxicKeywords = []string{
	"hate", "kill", "suicide", "loser", "die", "stupid", "retard",
	"abuse", "bastard", "racist", "dumb", "ugly", "slur",
}

// Account phrasing ("login ... account") is left to the brand check so that phishing text isn't counted twice.
var defaultDomainExpressions = []string{
	`bit\.ly`,
	`tinyurl\.com`,
	`rb\.gy`,
	`shorturl\.at`,
	`\bt\.co/`,
	`free.*(download|gift|money|movie|update|iphone)`,
	`win.*(prize|lottery|bonus|cash)`,
	`verify.*account`,
	`bank.*alert`,
	`https?://(\d{1,3}\.){3}\d{1,3}`,
	`\b[a-z]+[0-9]+[a-z]*\.(com|net|org)\b`,
	`@mazon|amaz0n|faceb00k|paypa1|g00gle|goog1e|instagr@m`,
}

var defaultExtensions = []Extension{
	{Suffix: ".exe", Severity: SeverityHigh},
	{Suffix: ".scr", Severity: SeverityStandard},
	{Suffix: ".bat", Severity: SeverityStandard},
	{Suffix: ".cmd", Severity: SeverityStandard},
	{Suffix: ".dll", Severity: SeverityStandard},
	{Suffix: ".apk", Severity: SeverityHigh},
	{Suffix: ".zip", Severity: SeverityStandard},
	{Suffix: ".rar", Severity: SeverityStandard},
}

var defaultSpoofBrands = []string{
	"facebook", "instagram", "paypal", "amazon", "google", "microsoft", "bank",
}

// DefaultContextWords - Words which turn a brand mention into a likely phishing attempt.
var DefaultContextWords = []string{"login", "secure", "account"}

// Default - Builds the built-in tables.
func Default() *Tables {
	return &Tables{
		NSFW:       NewKeywordSet("nsfw", defaultNSFWKeywords...),
		Toxic:      NewKeywordSet("toxic", defaultToxicKeywords...),
		Domains:    mustRegexSet("domains", defaultDomainExpressions...),
		Extensions: NewExtensionSet("extensions", defaultExtensions...),
		Brands:     NewBrandSet("brands", defaultSpoofBrands, DefaultContextWords),
	}
}

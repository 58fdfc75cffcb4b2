package trust

// Category - Which signal produced a finding.
type Category string

const CategoryNSFW Category = "nsfw"
const CategoryToxic Category = "toxic"
const CategorySuspiciousDomain Category = "suspicious_domain"
const CategoryFileType Category = "file_type"
const CategoryBrandSpoof Category = "brand_spoof"
const CategoryClassifier Category = "classifier"

// SuspicionThreshold - Scores strictly below this are suspicious.
const SuspicionThreshold = 70

// NoRedFlagsReason - The reason given when nothing was found.
const NoRedFlagsReason = "No red flags"

// Finding - One entry in the reason trail. Detail is the human-readable fragment used in the combined reason.
type Finding struct {
	Category Category `json:"category"`
	Detail   string   `json:"detail"`
	Penalty  int      `json:"penalty"`
}

type AnalysisResult struct {
	Score        int       `json:"score"`
	IsSuspicious bool      `json:"is_suspicious"`
	Reason       string    `json:"reason"`
	Findings     []Finding `json:"findings"`
}

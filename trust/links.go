package trust

import "regexp"

// urlRegex looks for http:// or https:// followed by non-whitespace characters.
var urlRegex = regexp.MustCompile(`(?i)https?://[^\s"<>\x60]+`)

// ExtractURLs - Returns the http(s) URLs in the text, in order of appearance. Never nil.
func ExtractURLs(text string) []string {
	urls := urlRegex.FindAllString(text, -1)
	if urls == nil {
		return make([]string, 0)
	}
	return urls
}

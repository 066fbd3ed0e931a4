package url

import (
	"net/url"
	"strings"
)

// Resolution is the outcome of resolving address-bar input.
type Resolution struct {
	URL      string
	IsSearch bool
}

// Resolve turns address-bar input into the URL to navigate to.
//
// Input is navigated to directly only when it parses as a URL AND the raw
// text contains a dot. Everything else becomes a search query, so bare
// words never reach the renderer as host names:
//
//	"openai.com"       → https://openai.com
//	"weather"          → <engine>?q=weather
//	"machine learning" → <engine>?q=machine+learning
//	"a.b c"            → https://a.b%20c (parses and has a dot)
func Resolve(input, searchEngine string) Resolution {
	parsed, err := FromUserInput(input)
	if err == nil && strings.Contains(input, ".") {
		return Resolution{URL: parsed.String()}
	}
	return Resolution{URL: BuildSearchQuery(searchEngine, input), IsSearch: true}
}

// BuildSearchQuery builds a search URL from free text. Words are split on
// whitespace, escaped, and joined with "+". The engine is either a base URL,
// which gets "?q=" appended, or a template with a "%s" placeholder.
//
//	BuildSearchQuery("https://duckduckgo.com", "machine learning")
//	→ "https://duckduckgo.com?q=machine+learning"
func BuildSearchQuery(engine, keywords string) string {
	words := strings.Fields(keywords)
	for i, w := range words {
		words[i] = url.QueryEscape(w)
	}
	query := strings.Join(words, "+")

	if strings.Contains(engine, "%s") {
		return strings.Replace(engine, "%s", query, 1)
	}
	return engine + "?q=" + query
}

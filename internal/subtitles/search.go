package subtitles

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Provider identifies a public subtitle site.
type Provider string

const (
	ProviderOpenSubtitles Provider = "opensubtitles"
	ProviderSubDL         Provider = "subdl"
	ProviderYTS           Provider = "yts"
)

// Providers lists the supported sites in display order.
func Providers() []Provider {
	return []Provider{ProviderOpenSubtitles, ProviderSubDL, ProviderYTS}
}

// Label returns the human readable provider name.
func (p Provider) Label() string {
	switch p {
	case ProviderOpenSubtitles:
		return "OpenSubtitles"
	case ProviderSubDL:
		return "SubDL"
	case ProviderYTS:
		return "YTS-Subs"
	default:
		return string(p)
	}
}

// Link is one provider search URL.
type Link struct {
	Provider Provider
	Query    string
	URL      string
}

var (
	nonAlnum   = regexp.MustCompile(`(?i)[^a-z0-9]`)
	whitespace = regexp.MustCompile(`\s+`)
)

// SearchQuery turns a video name into a provider query: the extension is
// dropped and every run of punctuation becomes a single space.
// "The.Show.S01E02-GRP.mkv" becomes "The Show S01E02 GRP".
func SearchQuery(videoName string) string {
	cleaned := nonAlnum.ReplaceAllString(BaseName(videoName), " ")
	return whitespace.ReplaceAllString(strings.TrimSpace(cleaned), " ")
}

// SearchURL builds the search page URL for query on provider.
func SearchURL(provider Provider, query string) (string, error) {
	query = whitespace.ReplaceAllString(strings.TrimSpace(query), " ")
	if query == "" {
		return "", errors.New("empty search query")
	}
	switch provider {
	case ProviderOpenSubtitles:
		plus := strings.ReplaceAll(query, " ", "+")
		return "https://www.opensubtitles.com/en/en/search-all/q-" + plus +
			"/hearing_impaired-include/machine_translated-/trusted_sources-", nil
	case ProviderSubDL:
		return "https://subdl.com/search/" + url.PathEscape(query), nil
	case ProviderYTS:
		return "https://yts-subs.com/search/" + url.PathEscape(query), nil
	default:
		return "", fmt.Errorf("unknown subtitle provider %q", provider)
	}
}

// SearchLinks returns one link per provider for videoName. It returns nil
// when the name has nothing searchable left after cleaning.
func SearchLinks(videoName string) []Link {
	query := SearchQuery(videoName)
	if query == "" {
		return nil
	}
	links := make([]Link, 0, len(Providers()))
	for _, provider := range Providers() {
		target, err := SearchURL(provider, query)
		if err != nil {
			continue
		}
		links = append(links, Link{Provider: provider, Query: query, URL: target})
	}
	return links
}

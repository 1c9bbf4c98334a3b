package utils

import "strings"

// providerAliases maps normalized provider names to a canonical form so that
// the name the user configured and the name TMDB reports compare equal
// (e.g. "Apple TV Plus" vs "Apple TV+").
var providerAliases = map[string]string{
	"appletv":            "apple tv plus",
	"appletvplus":        "apple tv plus",
	"amazonprime":        "amazon prime video",
	"amazonprimevideo":   "amazon prime video",
	"primevideo":         "amazon prime video",
	"disney":             "disney plus",
	"disneyplus":         "disney plus",
	"hbomax":             "max",
	"paramount":          "paramount plus",
	"paramountplus":      "paramount plus",
	"youtubepremium":     "youtube premium",
	"crunchyrollpremium": "crunchyroll",
}

// NormalizeProvider reduces a streaming provider name to a canonical form
// for case-insensitive, alias-aware comparison.
func NormalizeProvider(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, "+", " plus")

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	compact := b.String()

	if canonical, ok := providerAliases[compact]; ok {
		return NormalizeTitle(canonical)
	}
	return NormalizeTitle(name)
}

// NormalizeProviderSet normalizes a list of provider names into a lookup set.
func NormalizeProviderSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		if n := NormalizeProvider(name); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

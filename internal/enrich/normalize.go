package enrich

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"cinelog/internal/tmdb"
)

// normalize flattens provider payloads into the enrichment record. Empty
// sequences and zero-valued optionals are dropped (nil), so consumers can
// tell "absent" from "reported".
func normalize(details *tmdb.Details, credits *tmdb.Credits) *Result {
	result := &Result{TMDBID: details.ID}

	for _, genre := range details.Genres {
		if name := strings.TrimSpace(genre.Name); name != "" {
			result.Genres = append(result.Genres, name)
		}
	}

	for _, member := range credits.Crew {
		if member.Job != "Director" {
			continue
		}
		if name := strings.TrimSpace(member.Name); name != "" {
			result.Directors = append(result.Directors, name)
		}
		if len(result.Directors) == maxDirectors {
			break
		}
	}

	for _, member := range credits.Cast {
		if name := strings.TrimSpace(member.Name); name != "" {
			result.Cast = append(result.Cast, name)
		}
		if len(result.Cast) == maxCast {
			break
		}
	}

	if details.Runtime > 0 {
		runtime := details.Runtime
		result.Runtime = &runtime
	}
	if details.Budget > 0 {
		budget := details.Budget
		result.Budget = &budget
	}
	if details.Revenue > 0 {
		revenue := details.Revenue
		result.Revenue = &revenue
	}
	if details.Popularity > 0 {
		popularity := details.Popularity
		result.Popularity = &popularity
	}
	if details.VoteAverage > 0 {
		vote := details.VoteAverage
		result.VoteAverage = &vote
	}
	if lang := strings.TrimSpace(details.OriginalLanguage); lang != "" {
		result.OriginalLanguage = &lang
	}
	if len(details.ProductionCountries) > 0 {
		first := details.ProductionCountries[0]
		if name := CountryName(first.ISO31661, first.Name); name != "" {
			result.Country = &name
		}
	}

	return result
}

// CountryName renders an ISO 3166-1 code as an English display name,
// falling back to the provider-supplied name when the code does not parse.
func CountryName(code, fallback string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return strings.TrimSpace(fallback)
	}
	region, err := language.ParseRegion(code)
	if err != nil {
		return strings.TrimSpace(fallback)
	}
	if name := display.English.Regions().Name(region); name != "" {
		return name
	}
	return strings.TrimSpace(fallback)
}

// LanguageName renders an ISO 639-1 code ("en", "ja") as an English display
// name, or returns the code unchanged when it does not parse.
func LanguageName(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return code
}

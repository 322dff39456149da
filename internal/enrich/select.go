package enrich

import "cinelog/internal/tmdb"

// selectBest picks the candidate to enrich from. Candidates at or below the
// popularity floor are low-signal (shorts, fan uploads, homonyms) and are
// dropped, unless that would discard everything. Among the survivors an
// exact release-year match wins; otherwise the first provider-ranked
// candidate does.
func selectBest(results []tmdb.SearchResult, year int, floor float64) *tmdb.SearchResult {
	if len(results) == 0 {
		return nil
	}

	survivors := make([]tmdb.SearchResult, 0, len(results))
	for _, candidate := range results {
		if candidate.Popularity > floor {
			survivors = append(survivors, candidate)
		}
	}
	if len(survivors) == 0 {
		survivors = results
	}

	if year > 0 {
		for i := range survivors {
			if survivors[i].Year() == year {
				return &survivors[i]
			}
		}
	}
	return &survivors[0]
}

package enrich

// Result is the flat, immutable enrichment record produced for one movie.
// Pointer fields distinguish "provider reported zero" from "absent"; absent
// values persist as NULL so the stored schema stays stable.
type Result struct {
	TMDBID           int64
	Genres           []string
	Directors        []string
	Cast             []string
	Runtime          *int
	Budget           *int64
	Revenue          *int64
	Popularity       *float64
	VoteAverage      *float64
	OriginalLanguage *string
	Country          *string
}

package query

// Query is a search phrase plus an optional target website substring.
// It does not change for the lifetime of a run.
type Query struct {
	phrase  string
	website string
}

// New creates a query. An empty website disables match tracking.
func New(phrase, website string) Query {
	return Query{phrase: phrase, website: website}
}

// Phrase returns the search phrase as submitted.
func (q Query) Phrase() string { return q.phrase }

// Website returns the target website substring.
func (q Query) Website() string { return q.website }

// TracksWebsite reports whether a target website was supplied.
func (q Query) TracksWebsite() bool { return q.website != "" }

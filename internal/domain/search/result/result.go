package result

import (
	"strings"

	"github.com/kailas-cloud/serprank/internal/domain/search/query"
)

// Link is a single result URL with its global 1-based rank.
type Link struct {
	rank int
	url  string
}

// NewLink creates a ranked link.
func NewLink(rank int, url string) Link {
	return Link{rank: rank, url: url}
}

// Rank returns the 1-based position across all fetched pages.
func (l Link) Rank() int { return l.rank }

// URL returns the result URL.
func (l Link) URL() string { return l.url }

// Outcome is the result of one search run: all links in rank order,
// the matched rank (if any) and the path of the saved record.
type Outcome struct {
	query       query.Query
	links       []Link
	matchedRank int
	filePath    string
}

// Query returns the query the outcome was produced for.
func (o *Outcome) Query() query.Query { return o.query }

// Links returns the links in rank order.
func (o *Outcome) Links() []Link { return o.links }

// MatchedRank returns the rank of the first link containing the target website.
func (o *Outcome) MatchedRank() (int, bool) {
	return o.matchedRank, o.matchedRank > 0
}

// FilePath returns where the record was saved.
func (o *Outcome) FilePath() string { return o.filePath }

// IsMatch reports whether the link contains the target website (case-insensitive).
// Always false when no website was supplied.
func (o *Outcome) IsMatch(l Link) bool {
	return o.query.TracksWebsite() && containsFold(l.url, o.query.Website())
}

// Builder accumulates links in the order they are received.
type Builder struct {
	query       query.Query
	needle      string
	links       []Link
	matchedRank int
}

// NewBuilder starts an outcome for q.
func NewBuilder(q query.Query) *Builder {
	return &Builder{query: q, needle: strings.ToLower(q.Website())}
}

// Add appends url with the next rank. The first link containing the target
// website fixes the matched rank; later matches never overwrite it.
func (b *Builder) Add(url string) Link {
	l := Link{rank: len(b.links) + 1, url: url}
	b.links = append(b.links, l)

	if b.needle != "" && b.matchedRank == 0 && strings.Contains(strings.ToLower(url), b.needle) {
		b.matchedRank = l.rank
	}
	return l
}

// Len returns the number of links collected so far.
func (b *Builder) Len() int { return len(b.links) }

// Build freezes the outcome with the saved record path.
func (b *Builder) Build(filePath string) Outcome {
	links := make([]Link, len(b.links))
	copy(links, b.links)
	return Outcome{
		query:       b.query,
		links:       links,
		matchedRank: b.matchedRank,
		filePath:    filePath,
	}
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

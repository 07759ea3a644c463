// Package page describes a single page of provider results.
package page

// Page is one provider response: result links in rank order and the
// start offset of the following page, if the provider advertised one.
type Page struct {
	Links     []string
	NextStart int
	HasNext   bool
}

// IsEmpty reports whether the page carried no results.
func (p Page) IsEmpty() bool { return len(p.Links) == 0 }

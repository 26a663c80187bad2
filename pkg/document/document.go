// Package document defines the metadata record attached to every indexed
// chunk of legal text.
package document

import "time"

// Document is one semantic chunk of source text with its provenance.
// Documents are created by the offline indexing pipeline and are immutable
// afterwards; removing one means rebuilding the whole index.
type Document struct {
	// ID is the stable external identifier recorded alongside the vector
	// at index-build time. It is the join key between search results and
	// stored metadata.
	ID string `json:"id"`

	// Title is the heading of the chunk (e.g. an article title).
	Title string `json:"title"`

	// Content is the full body text of the chunk.
	Content string `json:"content"`

	// Book, TitleGroup and Chapter locate the chunk in the source
	// document hierarchy. All are optional.
	Book       string `json:"book,omitempty"`
	TitleGroup string `json:"title_group,omitempty"`
	Chapter    string `json:"chapter,omitempty"`

	// CreatedAt is set by the relational store on insert. The static
	// store leaves it zero.
	CreatedAt time.Time `json:"created_at,omitempty"`
}

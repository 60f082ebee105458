// Package score assigns relevance scores and display titles to albums.
// Relevance is a pure function of tags, top classifier confidence, and
// asset count, always within [0, 100]. Titling picks the most specific
// eligible template, with randomness only among templates of equal
// specificity.
package score

// Package sections turns raw model analysis output into display-ready
// section lists.
//
// Analysis output arrives in one of two shapes: a JSON document with a
// nested sections array, or markdown with emoji-tagged headings and
// bullet items. ParseAnalysis normalizes both into []Section. The
// transform is best effort by contract: malformed input produces fewer
// sections, never an error, because a partial display beats a failed
// task view.
package sections

// Package analysis assembles the Markdown document returned by the analyze
// endpoint. The document is a fixed placeholder: a localized title, a mode
// heading, an optional article line and three localized sections.
//
// Languages form a closed set. Each Language owns a rendering function that
// produces its Sections, so adding a language means adding a constant and a
// case to Language.sections.
package analysis

// Package wikixml reads a MediaWiki export document as a token stream and
// groups its pages into batches without holding more than one page body in
// memory at a time.
package wikixml

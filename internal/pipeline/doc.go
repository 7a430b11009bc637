// Package pipeline wires the decompressor, parser, extraction workers and
// sink into one bounded streaming run.
//
// The only contract to implement is Extractor. This keeps the pipeline
// swappable and testable.
package pipeline

// Package wiki holds the page-level data model of the link graph and the
// pure functions that turn a page body into its outbound link set.
//
// Nothing here blocks or spawns goroutines; the pipeline owns concurrency.
package wiki

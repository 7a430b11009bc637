// Package archive turns a compressed dump on disk into an ordered stream of
// plaintext chunks and exposes that stream as a pull-based reader.
//
// Open sniffs the codec and fails fast. Decompress runs the codec on its own
// goroutine and publishes chunks on a bounded channel, so a slow consumer
// stalls decompression instead of growing memory. ChunkReader reassembles
// the chunks behind io.Reader and ReadN.
package archive

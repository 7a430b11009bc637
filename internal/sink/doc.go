// Package sink serializes site records as JSON lines.
//
// A single Run loop owns the destination. Producers never write to it
// directly; they send Messages and finish with one end-of-stream Message
// each, so Run knows when the last producer is done without anyone closing
// the shared channel.
package sink

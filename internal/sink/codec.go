package sink

import (
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Encoders maps an output file suffix to a compressing writer. The
// returned closer must flush the codec trailer without closing w.
var Encoders = map[string]func(w io.Writer) (io.WriteCloser, error){}

// RegisterEncoder adds or replaces the encoder for suffix (last wins).
func RegisterEncoder(suffix string, fn func(io.Writer) (io.WriteCloser, error)) {
	Encoders[suffix] = fn
}

func init() {
	RegisterEncoder(".gz", func(w io.Writer) (io.WriteCloser, error) {
		return gzip.NewWriter(w), nil
	})
	zst := func(w io.Writer) (io.WriteCloser, error) {
		return zstd.NewWriter(w, zstd.WithEncoderConcurrency(1))
	}
	RegisterEncoder(".zst", zst)
	RegisterEncoder(".zstd", zst)
}

func encoderFor(path string) (func(io.Writer) (io.WriteCloser, error), bool) {
	for sfx, fn := range Encoders {
		if strings.HasSuffix(path, sfx) {
			return fn, true
		}
	}
	return nil, false
}

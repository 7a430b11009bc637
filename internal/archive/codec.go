package archive

import (
	"bytes"
	"compress/bzip2"
	"io"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Codec describes one archive compression format.
type Codec struct {
	Name     string
	Magic    []byte
	Suffixes []string
	// NewReader wraps the raw stream. The returned closer releases codec
	// resources only; the underlying file is closed by the Source.
	NewReader func(io.Reader) (io.ReadCloser, error)
}

// Identity is used when no registered codec matches.
var Identity = Codec{
	Name: "identity",
	NewReader: func(r io.Reader) (io.ReadCloser, error) {
		return io.NopCloser(r), nil
	},
}

var codecs = map[string]Codec{}

// RegisterCodec adds or replaces a codec (last wins).
func RegisterCodec(c Codec) { codecs[c.Name] = c }

// Codecs lists registered codec names in sorted order.
func Codecs() []string {
	names := make([]string, 0, len(codecs))
	for n := range codecs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// detect picks a codec by magic bytes first, then by file suffix.
func detect(path string, head []byte) Codec {
	for _, c := range codecs {
		if len(c.Magic) > 0 && bytes.HasPrefix(head, c.Magic) {
			return c
		}
	}
	for _, c := range codecs {
		for _, sfx := range c.Suffixes {
			if strings.HasSuffix(path, sfx) {
				return c
			}
		}
	}
	return Identity
}

func init() {
	RegisterCodec(Codec{
		Name:     "bzip2",
		Magic:    []byte("BZh"),
		Suffixes: []string{".bz2"},
		NewReader: func(r io.Reader) (io.ReadCloser, error) {
			return io.NopCloser(bzip2.NewReader(r)), nil
		},
	})
	RegisterCodec(Codec{
		Name:     "gzip",
		Magic:    []byte{0x1f, 0x8b},
		Suffixes: []string{".gz"},
		NewReader: func(r io.Reader) (io.ReadCloser, error) {
			return gzip.NewReader(r)
		},
	})
	RegisterCodec(Codec{
		Name:     "zstd",
		Magic:    []byte{0x28, 0xb5, 0x2f, 0xfd},
		Suffixes: []string{".zst", ".zstd"},
		NewReader: func(r io.Reader) (io.ReadCloser, error) {
			d, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
			if err != nil {
				return nil, err
			}
			return d.IOReadCloser(), nil
		},
	})
}

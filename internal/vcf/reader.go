package vcf

import (
	"bufio"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// NewLineReader returns a buffered reader over r, transparently
// decompressing gzip and bgzip input. Compression is detected from the
// magic bytes (0x1f, 0x8b), not from the file name. The returned closer
// releases the decompressor and is nil for plain input.
func NewLineReader(r io.Reader) (*bufio.Reader, io.Closer, error) {
	br := bufio.NewReader(r)

	magic, err := br.Peek(2)
	if err != nil && err != io.EOF {
		return nil, nil, fmt.Errorf("read magic bytes: %w", err)
	}

	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, nil, fmt.Errorf("create gzip reader: %w", err)
		}
		return bufio.NewReader(gz), gz, nil
	}

	return br, nil, nil
}

package index

import "io"

// RangeReader returns a reader over the given byte ranges of r, in order.
// Ranges are read lazily.
func RangeReader(r io.ReaderAt, ranges []ByteRange) io.Reader {
	readers := make([]io.Reader, len(ranges))
	for i, br := range ranges {
		readers[i] = io.NewSectionReader(r, br.Offset, br.Length)
	}
	return io.MultiReader(readers...)
}

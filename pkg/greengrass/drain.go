package greengrass

// ChunkReader is an ordered, stateful byte source read in bounded chunks.
//
// ReadChunk places at most len(p) bytes into p. A successful read of zero
// bytes means the source is exhausted; there is no other end-of-stream
// marker.
type ChunkReader interface {
	ReadChunk(p []byte) (n int, err error)
}

// ChunkReaderFunc adapts a function to ChunkReader
type ChunkReaderFunc func(p []byte) (int, error)

// ReadChunk calls f(p)
func (f ChunkReaderFunc) ReadChunk(p []byte) (int, error) {
	return f(p)
}

// Drain reads chunks from src into buf until src reports a zero-byte chunk.
// It returns the number of bytes placed at the start of buf.
//
// Each chunk is offered the remaining capacity of buf, so once buf is full
// the source is still asked for one more, zero-length chunk. The first
// chunk error stops the drain and is returned unchanged together with the
// bytes read before it.
//
// A source that fills buf exactly and then reports zero bytes cannot be
// told apart from one that had more data than buf could hold; see Filled.
func Drain(src ChunkReader, buf []byte) (int, error) {
	return DrainAt(src, buf, 0)
}

// DrainAt is Drain with the first total bytes of buf already accumulated.
// Reading starts at buf[total:].
func DrainAt(src ChunkReader, buf []byte, total int) (int, error) {
	if total < 0 || total > len(buf) {
		return 0, &SDKError{Op: "Drain", Err: ErrInvalidParameter}
	}

	for {
		remaining := buf[total:len(buf):len(buf)]
		n, err := src.ReadChunk(remaining)
		if err != nil {
			return total, err
		}
		if n < 0 || n > len(remaining) {
			return total, &ChunkOverflowError{Offered: len(remaining), Returned: n}
		}
		if n == 0 {
			return total, nil
		}
		total += n
	}
}

// Filled reports whether a drain of total bytes used all of buf, in which
// case the source may have held more data than was read.
func Filled(total int, buf []byte) bool {
	return len(buf) > 0 && total == len(buf)
}

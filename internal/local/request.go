package local

import (
	"github.com/aws/aws-greengrass-core-sdk-c/pkg/greengrass"
	"github.com/google/uuid"
)

// request is a local request handle. Each operation replaces the pending
// response; reads return it in chunks of at most chunkSize bytes.
type request struct {
	id        string
	chunkSize int
	body      []byte
	offset    int
	closed    bool
}

func newRequest(chunkSize int) *request {
	return &request{
		id:        uuid.New().String(),
		chunkSize: chunkSize,
	}
}

func (r *request) ID() string {
	return r.id
}

func (r *request) respond(body []byte) {
	r.body = append([]byte(nil), body...)
	r.offset = 0
}

// ReadChunk implements greengrass.ChunkReader
func (r *request) ReadChunk(p []byte) (int, error) {
	if r.closed {
		return 0, &greengrass.SDKError{Op: "ReadChunk", Err: greengrass.ErrInvalidState}
	}
	return readChunk(r.body, &r.offset, r.chunkSize, p), nil
}

func (r *request) Close() error {
	if r.closed {
		return &greengrass.SDKError{Op: "Close", Err: greengrass.ErrInvalidState}
	}
	r.closed = true
	r.body = nil
	return nil
}

// readChunk copies the next chunk of body at *offset into p
func readChunk(body []byte, offset *int, chunkSize int, p []byte) int {
	if len(p) > chunkSize {
		p = p[:chunkSize]
	}
	n := copy(p, body[*offset:])
	*offset += n
	return n
}

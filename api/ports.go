package api

import (
	"errors"
	"io"
	"strconv"
)

// Pusher writes outbound file content.
// Push must write exactly the size declared for the operation. Returning
// an error aborts the operation, use common.Errno to pick its errno.
type Pusher interface {
	Push(out io.Writer) error
}

// Puller receives inbound file content chunk by chunk.
// total is the length of the whole content. Returning an error aborts the
// download, use common.Errno to pick its errno.
type Puller interface {
	Pull(total int64, chunk []byte) error
}

// PullFunc adapts a function to Puller.
type PullFunc func(total int64, chunk []byte) error

func (f PullFunc) Pull(total int64, chunk []byte) error {
	return f(total, chunk)
}

// BufferPusher pushes Buff[Offset:Offset+Length].
type BufferPusher struct {
	Buff   []byte
	Offset int
	Length int
}

// NewBufferPusher pushes the whole buffer.
func NewBufferPusher(buff []byte) *BufferPusher {
	return &BufferPusher{Buff: buff, Length: len(buff)}
}

func (p *BufferPusher) Push(out io.Writer) error {
	if p.Offset < 0 || p.Length < 0 || p.Offset+p.Length > len(p.Buff) {
		return errors.New("buffer range [" + strconv.Itoa(p.Offset) + ", " +
			strconv.Itoa(p.Offset+p.Length) + ") out of bounds")
	}
	if p.Length == 0 {
		return nil
	}
	_, err := out.Write(p.Buff[p.Offset : p.Offset+p.Length])
	return err
}

// StreamPusher pushes Size bytes read from Reader.
type StreamPusher struct {
	Reader io.Reader
	Size   int64
}

func (p *StreamPusher) Push(out io.Writer) error {
	_, err := io.CopyN(out, p.Reader, p.Size)
	return err
}

// WriterPuller copies every chunk to Writer.
type WriterPuller struct {
	Writer io.Writer
}

func (p *WriterPuller) Pull(total int64, chunk []byte) error {
	_, err := p.Writer.Write(chunk)
	return err
}

// countingWriter counts bytes written through it.
type countingWriter struct {
	out io.Writer
	n   int64
}

func (w *countingWriter) Write(p []byte) (int, error) {
	n, err := w.out.Write(p)
	w.n += int64(n)
	return n, err
}

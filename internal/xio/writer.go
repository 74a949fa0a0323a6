package xio

import (
	"io"
	"net/http"
)

// NewResponseWriteCloser adapts an http.ResponseWriter (or any writer) to an io.WriteCloser.
// Closing flushes buffered response data but never closes the underlying connection.
func NewResponseWriteCloser(w io.Writer) io.WriteCloser {
	return &responseWriteCloser{
		Writer: w,
	}
}

type responseWriteCloser struct {
	io.Writer
}

func (rwc *responseWriteCloser) Close() error {
	if flusher, ok := rwc.Writer.(http.Flusher); ok {
		flusher.Flush()
	}
	return nil
}

package main

import (
	"context"
	"io"
)

// stdio adapts a reader and writer to the console's Port.
type stdio struct {
	io.Writer
	in   chan []byte
	rest []byte
}

func newStdio(r io.Reader, w io.Writer) *stdio {
	s := &stdio{Writer: w, in: make(chan []byte, 4)}
	go func() {
		defer close(s.in)
		for {
			buf := make([]byte, 256)
			n, err := r.Read(buf)
			if n > 0 {
				s.in <- buf[:n]
			}
			if err != nil {
				return
			}
		}
	}()
	return s
}

func (s *stdio) RecvSomeContext(ctx context.Context, buf []byte) (int, error) {
	if len(s.rest) > 0 {
		n := copy(buf, s.rest)
		s.rest = s.rest[n:]
		return n, nil
	}
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case b, ok := <-s.in:
		if !ok {
			return 0, io.EOF
		}
		n := copy(buf, b)
		s.rest = b[n:]
		return n, nil
	}
}

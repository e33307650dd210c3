package kfmt

import "io"

// PrefixWriter is an io.Writer that wraps another io.Writer and injects a
// prefix at the beginning of each line.
type PrefixWriter struct {
	// A writer where all writes get sent to. If nil, writes are sent to
	// the early print buffer.
	Sink io.Writer

	// The prefix injected at the beginning of each line.
	Prefix []byte

	// midLine is set while the last written byte was not a line feed.
	midLine bool
}

// Write writes len(p) bytes from p to the underlying data stream and returns
// back the number of bytes written. The injected prefix is not included in the
// number of written bytes returned by this method.
func (w *PrefixWriter) Write(p []byte) (int, error) {
	var written, lineStart int

	for i := 0; i < len(p); i++ {
		if p[i] != '\n' && i != len(p)-1 {
			continue
		}

		if !w.midLine {
			doWrite(w.Sink, w.Prefix)
		}

		n, err := w.sinkWrite(p[lineStart : i+1])
		written += n
		if err != nil {
			return written, err
		}

		w.midLine = p[i] != '\n'
		lineStart = i + 1
	}

	return written, nil
}

func (w *PrefixWriter) sinkWrite(p []byte) (int, error) {
	if w.Sink == nil {
		return earlyPrintBuffer.Write(p)
	}

	return w.Sink.Write(p)
}

package kfmt

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestRingBuffer(t *testing.T) {
	var (
		buf    bytes.Buffer
		expStr = "acpi: located RSDP; walking RSDT"
	)

	t.Run("read/write", func(t *testing.T) {
		var rb ringBuffer
		n, err := rb.Write([]byte(expStr))
		if err != nil {
			t.Fatal(err)
		}

		if n != len(expStr) {
			t.Fatalf("expected to write %d bytes; wrote %d", len(expStr), n)
		}

		if got := readByteByByte(&buf, &rb); got != expStr {
			t.Fatalf("expected to read %q; got %q", expStr, got)
		}
	})

	t.Run("overflow drops oldest bytes", func(t *testing.T) {
		var rb ringBuffer
		rb.Write([]byte(strings.Repeat("x", ringBufferSize-1)))
		rb.Write([]byte("abc"))

		if rb.count != ringBufferSize {
			t.Fatalf("expected buffer to be full; count = %d", rb.count)
		}

		if exp := 2; rb.start != exp {
			t.Fatalf("expected write to push start to %d; got %d", exp, rb.start)
		}

		got := readByteByByte(&buf, &rb)
		if exp := strings.Repeat("x", ringBufferSize-3) + "abc"; got != exp {
			t.Fatalf("unexpected buffer contents; got suffix %q", got[len(got)-5:])
		}
	})

	t.Run("wrap around with io.Copy", func(t *testing.T) {
		rb := ringBuffer{start: ringBufferSize - 2}
		if _, err := rb.Write([]byte(expStr)); err != nil {
			t.Fatal(err)
		}

		var out bytes.Buffer
		io.Copy(&out, &rb)

		if got := out.String(); got != expStr {
			t.Fatalf("expected to read %q; got %q", expStr, got)
		}
	})

	t.Run("empty buffer", func(t *testing.T) {
		var rb ringBuffer
		if n, err := rb.Read(make([]byte, 4)); n != 0 || err != io.EOF {
			t.Fatalf("expected (0, io.EOF); got (%d, %v)", n, err)
		}
	})
}

func readByteByByte(buf *bytes.Buffer, r io.Reader) string {
	buf.Reset()
	var b = make([]byte, 1)
	for {
		_, err := r.Read(b)
		if err == io.EOF {
			break
		}

		buf.Write(b)
	}
	return buf.String()
}

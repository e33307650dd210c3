package kfmt

import (
	"gophersmp/kernel/sync"
	"io"
	"unsafe"
)

// maxBufSize defines the buffer size for formatting numbers.
const maxBufSize = 32

var (
	errMissingArg   = []byte("(MISSING)")
	errWrongArgType = []byte("%!(WRONGTYPE)")
	errNoVerb       = []byte("%!(NOVERB)")
	errExtraArg     = []byte("%!(EXTRA)")
	trueValue       = []byte("true")
	falseValue      = []byte("false")

	// numFmtBuf holds the digits of the integer being formatted plus an
	// optional sign.
	numFmtBuf [maxBufSize + 1]byte

	// singleByte is used as a shared buffer for passing single characters
	// to doWrite.
	singleByte = []byte(" ")

	// earlyPrintBuffer is a ring buffer that stores Printf output before an
	// output sink is attached.
	earlyPrintBuffer ringBuffer

	// outputSink is a io.Writer where Printf will send its output. If set
	// to nil, then the output will be redirected to the earlyPrintBuffer.
	outputSink io.Writer

	// outputLock serializes calls to Printf. Once application processors
	// are brought online more than one core may be printing at any time.
	outputLock sync.Spinlock
)

// SetOutputSink sets the default target for calls to Printf to w and copies
// any data accumulated in the earlyPrintBuffer to it.
func SetOutputSink(w io.Writer) {
	outputLock.Acquire()
	outputSink = w
	if w != nil {
		io.Copy(w, &earlyPrintBuffer)
	}
	outputLock.Release()
}

// GetOutputSink returns the currently active output sink for Printf. A nil
// value indicates that output is being buffered.
func GetOutputSink() io.Writer {
	return outputSink
}

// Printf provides a minimal Printf implementation that can be safely used
// before the Go runtime has been properly initialized. This implementation
// does not allocate any memory.
//
// The following subset of formatting verbs is supported:
//
// Strings:
//
//	%s the uninterpreted bytes of the string or byte slice
//
// Integers:
//
//	%o base 8
//	%d base 10
//	%x base 16, with lower-case letters for a-f
//
// Booleans:
//
//	%t "true" or "false"
//
// Width is specified by an optional decimal number immediately preceding the
// verb. Strings and base-10 integers are left-padded with spaces; base-8 and
// base-16 integers are left-padded with zeroes.
//
// Pointers (%p) are not supported as formatting them requires the reflect
// package which makes the compiler emit allocating conversions for the
// argument slice.
//
// Calls to Printf are serialized so output from different cores is never
// interleaved within a single call.
func Printf(format string, args ...interface{}) {
	outputLock.Acquire()
	Fprintf(outputSink, format, args...)
	outputLock.Release()
}

// Fprintf behaves exactly like Printf but it writes the formatted output to
// the specified io.Writer. Fprintf does not acquire the output lock.
func Fprintf(w io.Writer, format string, args ...interface{}) {
	var (
		argIndex int
		padLen   int
		inVerb   bool
	)

	for i := 0; i < len(format); i++ {
		ch := format[i]

		if !inVerb {
			if ch == '%' {
				inVerb, padLen = true, 0
				continue
			}

			// passing a format sub-slice to doWrite triggers a memory
			// allocation so we need to do this one byte at a time.
			singleByte[0] = ch
			doWrite(w, singleByte)
			continue
		}

		switch {
		case ch == '%':
			singleByte[0] = '%'
			doWrite(w, singleByte)
			inVerb = false
		case ch >= '0' && ch <= '9':
			padLen = (padLen * 10) + int(ch-'0')
		case ch == 'd' || ch == 'x' || ch == 'o' || ch == 's' || ch == 't':
			inVerb = false
			if argIndex >= len(args) {
				doWrite(w, errMissingArg)
				continue
			}

			fmtArg(w, ch, args[argIndex], padLen)
			argIndex++
		default:
			// unknown verb; report it and resume copying the format
			doWrite(w, errNoVerb)
			inVerb = false
		}
	}

	if inVerb {
		doWrite(w, errNoVerb)
	}

	for ; argIndex < len(args); argIndex++ {
		doWrite(w, errExtraArg)
	}
}

func fmtArg(w io.Writer, verb byte, arg interface{}, padLen int) {
	switch verb {
	case 'o':
		fmtInt(w, arg, 8, padLen)
	case 'd':
		fmtInt(w, arg, 10, padLen)
	case 'x':
		fmtInt(w, arg, 16, padLen)
	case 's':
		fmtString(w, arg, padLen)
	case 't':
		fmtBool(w, arg)
	}
}

// fmtBool prints a formatted version of boolean value v.
func fmtBool(w io.Writer, v interface{}) {
	bVal, ok := v.(bool)
	switch {
	case !ok:
		doWrite(w, errWrongArgType)
	case bVal:
		doWrite(w, trueValue)
	default:
		doWrite(w, falseValue)
	}
}

// fmtString prints a formatted version of string or []byte value v, applying
// the padding specified by padLen.
func fmtString(w io.Writer, v interface{}, padLen int) {
	switch castedVal := v.(type) {
	case string:
		fmtRepeat(w, ' ', padLen-len(castedVal))
		for i := 0; i < len(castedVal); i++ {
			singleByte[0] = castedVal[i]
			doWrite(w, singleByte)
		}
	case []byte:
		fmtRepeat(w, ' ', padLen-len(castedVal))
		doWrite(w, castedVal)
	default:
		doWrite(w, errWrongArgType)
	}
}

// fmtRepeat writes count bytes with value ch.
func fmtRepeat(w io.Writer, ch byte, count int) {
	singleByte[0] = ch
	for i := 0; i < count; i++ {
		doWrite(w, singleByte)
	}
}

// toUint64 extracts the magnitude and sign of any built-in integer type.
func toUint64(v interface{}) (mag uint64, neg, ok bool) {
	var sval int64

	switch t := v.(type) {
	case uint8:
		return uint64(t), false, true
	case uint16:
		return uint64(t), false, true
	case uint32:
		return uint64(t), false, true
	case uint64:
		return t, false, true
	case uint:
		return uint64(t), false, true
	case uintptr:
		return uint64(t), false, true
	case int8:
		sval = int64(t)
	case int16:
		sval = int64(t)
	case int32:
		sval = int64(t)
	case int64:
		sval = t
	case int:
		sval = int64(t)
	default:
		return 0, false, false
	}

	if sval < 0 {
		return uint64(-sval), true, true
	}
	return uint64(sval), false, true
}

// fmtInt prints out a formatted version of v in the requested base, applying
// the padding specified by padLen. Digits are rendered right-to-left into
// numFmtBuf so no reversal pass is needed.
func fmtInt(w io.Writer, v interface{}, base uint64, padLen int) {
	uval, neg, ok := toUint64(v)
	if !ok {
		doWrite(w, errWrongArgType)
		return
	}

	if padLen >= maxBufSize {
		padLen = maxBufSize - 1
	}

	padCh := byte('0')
	if base == 10 {
		padCh = ' '
	}

	pos := len(numFmtBuf)
	for {
		pos--
		if digit := byte(uval % base); digit < 10 {
			numFmtBuf[pos] = '0' + digit
		} else {
			numFmtBuf[pos] = 'a' + digit - 10
		}

		if uval /= base; uval == 0 || pos == 1 {
			break
		}
	}

	// Space-padded values carry the sign next to the digits; zero-padded
	// values carry it in front of the padding.
	if neg && padCh == ' ' {
		pos--
		numFmtBuf[pos] = '-'
	}

	for width := len(numFmtBuf) - pos; width < padLen && pos > 1; width++ {
		pos--
		numFmtBuf[pos] = padCh
	}

	if neg && padCh == '0' {
		pos--
		numFmtBuf[pos] = '-'
	}

	doWrite(w, numFmtBuf[pos:])
}

// doWrite is a proxy that uses the runtime.noescape hack to hide p from the
// compiler's escape analysis. Without this hack, the compiler cannot properly
// detect that p does not escape (due to the call to the yet unknown outputSink
// io.Writer) and plays it safe by flagging it as escaping. The resulting
// allocation would crash the kernel if Printf is called before the Go
// allocator is initialized.
func doWrite(w io.Writer, p []byte) {
	doRealWrite(w, noEscape(unsafe.Pointer(&p)))
}

func doRealWrite(w io.Writer, bufPtr unsafe.Pointer) {
	p := *(*[]byte)(bufPtr)
	if w != nil {
		w.Write(p)
	} else {
		earlyPrintBuffer.Write(p)
	}
}

// noEscape hides a pointer from escape analysis. This function is copied over
// from runtime/stubs.go
//
//go:nosplit
func noEscape(p unsafe.Pointer) unsafe.Pointer {
	x := uintptr(p)
	return unsafe.Pointer(x ^ 0)
}

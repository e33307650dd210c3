package kfmt

import (
	"bytes"
	"errors"
	"testing"
)

func TestPrefixWriter(t *testing.T) {
	specs := []struct {
		input string
		exp   string
	}{
		{
			"",
			"",
		},
		{
			"\n",
			"[acpi] \n",
		},
		{
			"no line break anywhere",
			"[acpi] no line break anywhere",
		},
		{
			"line feed at the end\n",
			"[acpi] line feed at the end\n",
		},
		{
			"\nAPIC at 0xbfee0000\nSRAT at 0xbfee1000\nFACP at 0xbfee2000\ndone",
			"[acpi] \n[acpi] APIC at 0xbfee0000\n[acpi] SRAT at 0xbfee1000\n[acpi] FACP at 0xbfee2000\n[acpi] done",
		},
	}

	var (
		buf bytes.Buffer
		w   = PrefixWriter{
			Sink:   &buf,
			Prefix: []byte("[acpi] "),
		}
	)

	for specIndex, spec := range specs {
		buf.Reset()
		w.midLine = false

		wrote, err := w.Write([]byte(spec.input))
		if err != nil {
			t.Errorf("[spec %d] unexpected error: %v", specIndex, err)
		}

		if expLen := len(spec.input); expLen != wrote {
			t.Errorf("[spec %d] expected writer to write %d bytes; wrote %d", specIndex, expLen, wrote)
		}

		if got := buf.String(); got != spec.exp {
			t.Errorf("[spec %d] expected output:\n%q\ngot:\n%q", specIndex, spec.exp, got)
		}
	}
}

func TestPrefixWriterAcrossCalls(t *testing.T) {
	var (
		buf bytes.Buffer
		w   = PrefixWriter{Sink: &buf, Prefix: []byte("> ")}
	)

	Fprintf(&w, "core %d: ", 3)
	Fprintf(&w, "online\n")
	Fprintf(&w, "core %d: online\n", 4)

	if exp, got := "> core 3: online\n> core 4: online\n", buf.String(); got != exp {
		t.Fatalf("expected output:\n%q\ngot:\n%q", exp, got)
	}
}

func TestPrefixWriterWithoutSink(t *testing.T) {
	defer func() {
		earlyPrintBuffer = ringBuffer{}
	}()
	earlyPrintBuffer = ringBuffer{}

	w := PrefixWriter{Prefix: []byte("[hal] ")}
	Fprintf(&w, "ACPI: initialized\n")

	var buf bytes.Buffer
	buf.ReadFrom(&earlyPrintBuffer)

	if exp, got := "[hal] ACPI: initialized\n", buf.String(); got != exp {
		t.Fatalf("expected early print buffer to contain:\n%q\ngot:\n%q", exp, got)
	}
}

func TestPrefixWriterErrors(t *testing.T) {
	specs := []string{
		"no line break anywhere",
		"\nthe big brown\nfog jumped\nover the lazy\ndog",
	}

	var (
		expErr = errors.New("write failed")
		w      = PrefixWriter{
			Sink:   writerThatAlwaysErrors{expErr},
			Prefix: []byte("prefix: "),
		}
	)

	for specIndex, spec := range specs {
		w.midLine = false
		_, err := w.Write([]byte(spec))
		if err != expErr {
			t.Errorf("[spec %d] expected error: %v; got %v", specIndex, expErr, err)
		}
	}
}

type writerThatAlwaysErrors struct {
	err error
}

func (w writerThatAlwaysErrors) Write(_ []byte) (int, error) {
	return 0, w.err
}

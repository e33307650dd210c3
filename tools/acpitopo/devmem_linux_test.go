//go:build linux

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestDevMemReadPhys(t *testing.T) {
	img := make([]byte, 3*os.Getpagesize())
	for i := range img {
		img[i] = byte(i)
	}

	path := filepath.Join(t.TempDir(), "mem")
	if err := os.WriteFile(path, img, 0600); err != nil {
		t.Fatal(err)
	}

	mem, err := openDevMem(path)
	if err != nil {
		t.Fatal(err)
	}
	defer mem.Close()

	specs := []struct {
		addr uintptr
		len  int
	}{
		{0, 16},
		{0x41, 8},
		// Straddles a page boundary.
		{uintptr(os.Getpagesize()) - 4, 12},
		{uintptr(2 * os.Getpagesize()), 0},
	}

	for specIndex, spec := range specs {
		buf := make([]byte, spec.len)
		if err := mem.ReadPhys(spec.addr, buf); err != nil {
			t.Errorf("[spec %d] unexpected error: %v", specIndex, err)
			continue
		}

		if exp := img[spec.addr : int(spec.addr)+spec.len]; !bytes.Equal(buf, exp) {
			t.Errorf("[spec %d] expected to read %v; got %v", specIndex, exp, buf)
		}
	}
}

func TestOpenDevMemError(t *testing.T) {
	if _, err := openDevMem(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected an error")
	}
}

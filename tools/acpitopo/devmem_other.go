//go:build !linux

package main

import (
	"errors"
	"gophersmp/kernel"
)

type devMem struct{}

func openDevMem(string) (*devMem, error) {
	return nil, errors.New("reading physical memory is only supported on linux; use -synthetic")
}

func (*devMem) ReadPhys(uintptr, []byte) *kernel.Error { return nil }

func (*devMem) Close() error { return nil }

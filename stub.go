package main

import "gophersmp/kernel/kmain"

var (
	multibootInfoPtr uintptr
	apEntry          bool
)

// main makes a dummy call to the actual kernel entrypoints. It is
// intentionally defined to prevent the Go compiler from optimizing away the
// real kernel code.
//
// Global variables are used as arguments to prevent the compiler from
// inlining the calls and removing Kmain and APMain from the generated .o file.
func main() {
	if apEntry {
		kmain.APMain()
	}

	kmain.Kmain(multibootInfoPtr)
}

package engine

import (
	"fmt"
	"io"
)

// TraceTo returns a frame func that writes one line per frame to w.
func TraceTo(w io.Writer) func(Frame) {
	return func(f Frame) {
		fmt.Fprintln(w, f.String())
	}
}

// Package console implements the software side of the kernel's text
// console: the VGA/serial write primitive is external hardware, but the
// formatting logic built on top of it (puts/puti) is pure software and is
// owned by this package.
//
// Output goes to a package-registered io.Writer so that tests can capture
// it and so that a future boot stage can redirect it to a real terminal
// driver without this package depending on one.
package console

import (
	"io"
	"strconv"
)

// out is the active output sink. It defaults to io.Discard so that calling
// Puts/Puti before a sink has been registered is safe and silent, matching
// the pre-paging boot environment where no terminal may exist yet.
var out io.Writer = io.Discard

// SetOutput registers the writer that Puts and Puti send their output to.
func SetOutput(w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	out = w
}

// Puts writes s to the active console followed by a newline.
func Puts(s string) {
	io.WriteString(out, s)
	io.WriteString(out, "\n")
}

// Puti writes the base-10 representation of n to the active console
// followed by a newline.
func Puti(n int64) {
	io.WriteString(out, strconv.FormatInt(n, 10))
	io.WriteString(out, "\n")
}

// Logf writes a diagnostic line prefixed with the originating module name.
// Every non-fatal error a caller recovers from is surfaced through a call
// to Logf before its sentinel value is returned.
func Logf(module, message string) {
	Puts("[" + module + "] " + message)
}

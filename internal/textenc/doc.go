// Package textenc converts subtitle bytes between named character encodings
// and the UTF-8 working encoding used by the parser and renderer.
//
// Names are resolved through the WHATWG and IANA registries, a byte order
// mark on the input always wins over the declared name, and "auto" asks the
// charset detector for its best guess.
package textenc

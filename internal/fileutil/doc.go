// Package fileutil holds the locked, atomic file replacement used for every
// file srtmerge writes.
package fileutil

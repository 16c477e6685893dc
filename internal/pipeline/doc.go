// Package pipeline runs the srtmerge commands end to end.
//
// Run is the merge workflow: preflight, decode and parse each lane, index
// sync, manual shifts, automatic alignment, then render and write the ASS
// script atomically. Each step executes as a named stage so logs carry the
// stage, lane and run correlation id. ShiftFile, AlignFiles and Inspect reuse
// the same loading path for the smaller commands.
package pipeline

// Package subtitles parses SubRip tracks, aligns two independently timed
// tracks, and renders them as a two-lane Advanced SubStation Alpha script.
//
// Tracks are plain cue slices in file order. Shift moves a track in time,
// SearchAligner and IndexAligner compute the offset that superimposes one
// track on another, and Merge/RenderASS produce the final top/bottom script.
// Text is expected in the working encoding (UTF-8); byte-level transcoding
// lives in internal/textenc.
package subtitles

package subtitles

import "errors"

var (
	// ErrMalformedTimestamp marks a timestamp with non-numeric fields or more
	// than four fractional digits.
	ErrMalformedTimestamp = errors.New("malformed timestamp")
	// ErrMalformedHeader marks a timing line without the "-->" separator.
	ErrMalformedHeader = errors.New("malformed timing line")
	// ErrEmptyTrack marks a track that parsed to zero cues.
	ErrEmptyTrack = errors.New("track contains no subtitles")
	// ErrIndexOutOfRange marks a sync index outside its track.
	ErrIndexOutOfRange = errors.New("subtitle index out of range")
)

package subtitles

// Shift adds delta seconds to every cue in place. Results below zero are kept
// as-is.
func Shift(track Track, delta float64) {
	for i := range track {
		track[i].Start += delta
		track[i].Stop += delta
	}
}

// Shifted returns a shifted copy and leaves track untouched.
func Shifted(track Track, delta float64) Track {
	out := track.Clone()
	Shift(out, delta)
	return out
}

// ClampAtZero moves any start or stop time below zero up to zero and returns
// how many cues were touched.
func ClampAtZero(track Track) int {
	clamped := 0
	for i := range track {
		if track[i].Start >= 0 && track[i].Stop >= 0 {
			continue
		}
		track[i].Start = max(track[i].Start, 0)
		track[i].Stop = max(track[i].Stop, 0)
		clamped++
	}
	return clamped
}

// StartingBeforeZero counts entries whose start lies before zero.
func StartingBeforeZero(entries []Entry) int {
	n := 0
	for _, entry := range entries {
		if entry.Start < 0 {
			n++
		}
	}
	return n
}

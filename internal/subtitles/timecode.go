package subtitles

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const maxFractionDigits = 4

// formatEpsilon absorbs binary representation error before truncating to a
// whole centisecond or millisecond (3723.45*100 is 372344.99999999994).
const formatEpsilon = 1e-6

// ParseTimestamp converts "H:MM:SS,fff" or "H:MM:SS.ff" into seconds. Hours are
// unbounded and the fraction may carry one to four digits.
func ParseTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("%w: empty value", ErrMalformedTimestamp)
	}
	first := strings.IndexByte(value, ':')
	if first < 0 {
		return 0, fmt.Errorf("%w %q: missing hour separator", ErrMalformedTimestamp, value)
	}
	second := strings.IndexByte(value[first+1:], ':')
	if second < 0 {
		return 0, fmt.Errorf("%w %q: missing minute separator", ErrMalformedTimestamp, value)
	}
	second += first + 1
	rest := value[second+1:]
	dot := strings.IndexAny(rest, ",.")
	if dot < 0 {
		return 0, fmt.Errorf("%w %q: missing fraction separator", ErrMalformedTimestamp, value)
	}

	hours, err := parseField(value[:first])
	if err != nil {
		return 0, fmt.Errorf("%w %q: hour: %v", ErrMalformedTimestamp, value, err)
	}
	minutes, err := parseField(value[first+1 : second])
	if err != nil {
		return 0, fmt.Errorf("%w %q: minute: %v", ErrMalformedTimestamp, value, err)
	}
	seconds, err := parseField(rest[:dot])
	if err != nil {
		return 0, fmt.Errorf("%w %q: second: %v", ErrMalformedTimestamp, value, err)
	}
	fractionText := rest[dot+1:]
	if len(fractionText) > maxFractionDigits {
		return 0, fmt.Errorf("%w %q: too many decimals (%d)", ErrMalformedTimestamp, value, len(fractionText))
	}
	fraction, err := parseField(fractionText)
	if err != nil {
		return 0, fmt.Errorf("%w %q: fraction: %v", ErrMalformedTimestamp, value, err)
	}

	// Dividing the exact integer count keeps 01:02:03,450 at exactly 3723.45.
	scale := int64(math.Pow10(len(fractionText)))
	limit := math.MaxInt64 / scale / 4
	if int64(hours) > limit/3600 || int64(minutes) > limit/60 || int64(seconds) > limit {
		return 0, fmt.Errorf("%w %q: out of range", ErrMalformedTimestamp, value)
	}
	whole := int64(hours)*3600 + int64(minutes)*60 + int64(seconds)
	return float64(whole*scale+int64(fraction)) / float64(scale), nil
}

func parseField(text string) (int, error) {
	if text == "" {
		return 0, fmt.Errorf("empty field")
	}
	for _, r := range text {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("non-numeric %q", text)
		}
	}
	return strconv.Atoi(text)
}

// FormatASSTimestamp renders seconds as "H:MM:SS.cc". The sub-centisecond
// remainder is truncated. Negative values keep a leading minus sign; libass
// reads "-0:00:01.50" as +1.5s, so callers should warn before writing them.
func FormatASSTimestamp(seconds float64) string {
	sign, abs := splitSign(seconds)
	centis := int64(math.Floor(abs*100 + formatEpsilon))
	h := centis / 360000
	m := centis / 6000 % 60
	s := centis / 100 % 60
	cs := centis % 100
	return fmt.Sprintf("%s%d:%02d:%02d.%02d", sign, h, m, s, cs)
}

// FormatSRTTimestamp renders seconds as "HH:MM:SS,mmm" rounded to the nearest
// millisecond. SRT has no negative times, so values below zero render as zero.
func FormatSRTTimestamp(seconds float64) string {
	millis := int64(math.Round(max(seconds, 0) * 1000))
	h := millis / 3600000
	m := millis / 60000 % 60
	s := millis / 1000 % 60
	ms := millis % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

func splitSign(seconds float64) (string, float64) {
	if seconds < 0 {
		return "-", -seconds
	}
	return "", seconds
}

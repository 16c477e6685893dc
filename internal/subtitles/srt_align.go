package subtitles

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"srtmerge/internal/logging"
)

// Search defaults mirror the range a player's offset slider usually covers.
const (
	DefaultSearchMin   = -10.0
	DefaultSearchMax   = 10.0
	DefaultSearchStep  = 0.05
	DefaultMatchWindow = 8.0
)

// Strategy names reported on an Alignment.
const (
	StrategySearch = "search"
	StrategyIndex  = "index"
)

// offsetPrecision snaps grid offsets so -10 + 200*0.05 lands on exactly 0.
const offsetPrecision = 1e9

// Alignment is the offset that maps other onto reference: shifting other by
// Offset superimposes it on reference.
type Alignment struct {
	Strategy   string      `json:"strategy" yaml:"strategy"`
	Offset     float64     `json:"offset" yaml:"offset"`
	Distance   float64     `json:"distance" yaml:"distance"`
	Candidates []Candidate `json:"candidates,omitempty" yaml:"candidates,omitempty"`
}

// Candidate records the distances evaluated for one grid offset.
type Candidate struct {
	Offset   float64 `json:"offset" yaml:"offset"`
	Forward  float64 `json:"forward" yaml:"forward"`
	Backward float64 `json:"backward" yaml:"backward"`
}

// Total is the symmetric distance used to rank candidates.
func (c Candidate) Total() float64 {
	return c.Forward + c.Backward
}

// Aligner computes the time offset between two tracks.
type Aligner interface {
	Align(ctx context.Context, reference, other Track) (Alignment, error)
}

// AlignmentDistance measures how far other is from reference once reference
// is moved back by offset, using the default match window.
func AlignmentDistance(reference, other Track, offset float64) float64 {
	return alignmentDistance(reference, other, offset, DefaultMatchWindow)
}

// alignmentDistance sums |start| and |stop| gaps between every reference cue
// (shifted by -offset) and the other cue whose start is closest within
// ±window/2, edges included. Reference cues without a match inside the window
// add nothing: they are skipped, not penalized. other must be sorted by start.
func alignmentDistance(reference, other Track, offset, window float64) float64 {
	half := window / 2
	var distance float64
	for _, cue := range reference {
		start := cue.Start - offset
		stop := cue.Stop - offset
		idx, ok := closestStart(other, start, half)
		if !ok {
			continue
		}
		distance += math.Abs(other[idx].Start-start) + math.Abs(other[idx].Stop-stop)
	}
	return distance
}

// closestStart binary-searches the first cue at or after target-half, then
// scans forward while cues stay inside target+half.
func closestStart(track Track, target, half float64) (int, bool) {
	lo := sort.Search(len(track), func(i int) bool {
		return track[i].Start >= target-half
	})
	best := -1
	bestGap := math.Inf(1)
	for i := lo; i < len(track) && track[i].Start <= target+half; i++ {
		if gap := math.Abs(track[i].Start - target); gap < bestGap {
			best = i
			bestGap = gap
		}
	}
	return best, best >= 0
}

// SearchAligner brute-forces offsets from Min to Max in Step increments and
// keeps the first offset with the lowest symmetric distance.
type SearchAligner struct {
	Min    float64
	Max    float64
	Step   float64
	Window float64
	Logger *slog.Logger
}

// DefaultSearchAligner returns the -10s..+10s, 50ms grid with an 8s window.
func DefaultSearchAligner() SearchAligner {
	return SearchAligner{
		Min:    DefaultSearchMin,
		Max:    DefaultSearchMax,
		Step:   DefaultSearchStep,
		Window: DefaultMatchWindow,
	}
}

func (s SearchAligner) validate() error {
	if s.Step <= 0 {
		return fmt.Errorf("search step must be positive, got %v", s.Step)
	}
	if s.Max < s.Min {
		return fmt.Errorf("search range is empty (%v > %v)", s.Min, s.Max)
	}
	if s.Window <= 0 {
		return fmt.Errorf("match window must be positive, got %v", s.Window)
	}
	return nil
}

// Align implements Aligner.
func (s SearchAligner) Align(ctx context.Context, reference, other Track) (Alignment, error) {
	if err := s.validate(); err != nil {
		return Alignment{}, err
	}
	if err := RequireCues(reference, "reference track"); err != nil {
		return Alignment{}, err
	}
	if err := RequireCues(other, "other track"); err != nil {
		return Alignment{}, err
	}
	logger := s.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	ref := SortedByStart(reference)
	oth := SortedByStart(other)
	steps := int(math.Floor((s.Max-s.Min)/s.Step + 1e-9))

	result := Alignment{
		Strategy:   StrategySearch,
		Distance:   math.MaxFloat64,
		Candidates: make([]Candidate, 0, steps+1),
	}
	for i := 0; i <= steps; i++ {
		if err := ctx.Err(); err != nil {
			return Alignment{}, err
		}
		offset := math.Round((s.Min+float64(i)*s.Step)*offsetPrecision) / offsetPrecision
		candidate := Candidate{
			Offset:   offset,
			Forward:  alignmentDistance(ref, oth, offset, s.Window),
			Backward: alignmentDistance(oth, ref, -offset, s.Window),
		}
		result.Candidates = append(result.Candidates, candidate)
		logger.Debug("alignment candidate",
			logging.Float64("offset", candidate.Offset),
			logging.Float64("forward_distance", candidate.Forward),
			logging.Float64("backward_distance", candidate.Backward),
		)
		if candidate.Total() < result.Distance {
			result.Distance = candidate.Total()
			result.Offset = candidate.Offset
		}
	}
	return result, nil
}

// IndexAligner pins one cue of each track together: the offset is the start
// gap between reference[Reference] and other[Other].
type IndexAligner struct {
	Reference int
	Other     int
}

// Align implements Aligner.
func (a IndexAligner) Align(_ context.Context, reference, other Track) (Alignment, error) {
	if a.Reference < 0 || a.Reference >= len(reference) {
		return Alignment{}, fmt.Errorf("%w: reference index %d (track has %d subtitles)", ErrIndexOutOfRange, a.Reference, len(reference))
	}
	if a.Other < 0 || a.Other >= len(other) {
		return Alignment{}, fmt.Errorf("%w: other index %d (track has %d subtitles)", ErrIndexOutOfRange, a.Other, len(other))
	}
	offset := reference[a.Reference].Start - other[a.Other].Start
	return Alignment{
		Strategy: StrategyIndex,
		Offset:   offset,
		Distance: AlignmentDistance(SortedByStart(reference), SortedByStart(other), offset),
	}, nil
}

// Align runs the default grid search and returns the best offset for other
// and its symmetric distance.
func Align(reference, other Track) (float64, float64, error) {
	result, err := DefaultSearchAligner().Align(context.Background(), reference, other)
	if err != nil {
		return 0, 0, err
	}
	return result.Offset, result.Distance, nil
}

// SyncByIndex returns the offset that moves other[otherIndex] onto
// reference[refIndex].
func SyncByIndex(reference Track, refIndex int, other Track, otherIndex int) (float64, error) {
	result, err := IndexAligner{Reference: refIndex, Other: otherIndex}.Align(context.Background(), reference, other)
	if err != nil {
		return 0, err
	}
	return result.Offset, nil
}

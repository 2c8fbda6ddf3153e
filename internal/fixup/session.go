// Package fixup walks an operator through the out-of-order points of an alignment
// and applies their choices.
package fixup

import (
	"fmt"
	"sort"

	"github.com/hyperjump/interleave/internal/align"
	apperrors "github.com/hyperjump/interleave/internal/errors"
	"github.com/hyperjump/interleave/internal/models"
)

// State is the position of a Session in its life cycle.
type State int

const (
	// Aligning means no point has been looked for yet.
	Aligning State = iota
	// AwaitingUserChoice means Point holds the position to confirm.
	AwaitingUserChoice
	// Done means no unconfirmed out-of-order position remains.
	Done
)

func (s State) String() string {
	switch s {
	case Aligning:
		return "aligning"
	case AwaitingUserChoice:
		return "awaiting_user_choice"
	case Done:
		return "done"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// PersistFunc stores the mapping and the sorted fixed set after every pick.
type PersistFunc func(mapping []int, fixed []int) error

// Option configures a Session.
type Option func(*Session)

// WithFixed marks indices as already confirmed.
func WithFixed(fixed []int) Option {
	return func(s *Session) {
		for _, i := range fixed {
			if i >= 0 && i < len(s.mapping) {
				s.fixed[i] = true
			}
		}
	}
}

// WithSentinelPoints makes every unconfirmed Unmatched entry a point to fix, in source
// order together with the out-of-order ones. Used for fully manual alignment.
func WithSentinelPoints(enabled bool) Option {
	return func(s *Session) { s.sentinelPoints = enabled }
}

// WithPersist sets the function called after every pick.
func WithPersist(fn PersistFunc) Option {
	return func(s *Session) { s.persist = fn }
}

// Session is the fix-up state machine over one mapping, either a paragraph mapping
// (which may hold Unmatched entries) or a sentence assignment.
//
// Out-of-order detection ignores Unmatched entries: they are neither flagged nor used
// as neighbours. Confirmed positions are not flagged unless they are out of order with
// an adjacent confirmed position. Callers serialize access.
type Session struct {
	mapping        []int
	nDst           int
	fixed          map[int]bool
	sentinelPoints bool
	persist        PersistFunc

	state State
	point *models.FixupPoint
	last  *choice
}

// choice is a confirmed (src, dst) pair.
type choice struct{ src, dst int }

// NewSession starts a session over a copy of mapping, whose values index nDst
// destination items. The session is in the Aligning state until Next is called.
func NewSession(mapping []int, nDst int, opts ...Option) *Session {
	s := &Session{
		mapping: append([]int(nil), mapping...),
		nDst:    nDst,
		fixed:   make(map[int]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current state.
func (s *Session) State() State { return s.state }

// Point returns the point awaiting a choice, or nil.
func (s *Session) Point() *models.FixupPoint {
	if s.point == nil {
		return nil
	}
	p := *s.point
	return &p
}

// Mapping returns a copy of the current mapping.
func (s *Session) Mapping() []int {
	return append([]int(nil), s.mapping...)
}

// Fixed returns the confirmed indices in ascending order.
func (s *Session) Fixed() []int {
	out := make([]int, 0, len(s.fixed))
	for i := range s.fixed {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// IsFixed reports whether index i has been confirmed.
func (s *Session) IsFixed(i int) bool { return s.fixed[i] }

// Next finds the first unconfirmed point in source order and moves to
// AwaitingUserChoice, or to Done when there is none.
func (s *Session) Next() (*models.FixupPoint, bool) {
	v := s.view()
	remaining := 0
	first := -1
	for i := range s.mapping {
		if v.isPoint(i) {
			remaining++
			if first < 0 {
				first = i
			}
		}
	}
	if first < 0 {
		s.state, s.point = Done, nil
		return nil, false
	}
	s.state = AwaitingUserChoice
	s.point = &models.FixupPoint{
		SrcIndex:         first,
		SuggestedDst:     v.suggest(first),
		CurrentDst:       s.mapping[first],
		LastConfirmedDst: v.lastBefore(first),
		RemainingFlagged: remaining,
	}
	return s.Point(), true
}

// Pick confirms dst for the point at src, which must be the current point. Repeating
// the pick that was just applied only persists again.
func (s *Session) Pick(src, dst int) error {
	if s.state == AwaitingUserChoice && s.point != nil && s.point.SrcIndex == src {
		return s.PickAt(src, dst)
	}
	if s.last != nil && *s.last == (choice{src, dst}) {
		return s.save()
	}
	if s.state != AwaitingUserChoice || s.point == nil {
		return apperrors.NewInput("state", "no point is awaiting a choice (state %s)", s.state)
	}
	return apperrors.NewInput("src", "position %d is not awaiting a choice (current %d)", src, s.point.SrcIndex)
}

// PickAt sets mapping[src] = dst, confirms src, persists, and moves to the next point.
// Repeating the same pick leaves the mapping unchanged. dst may be Unmatched; a matched
// dst must keep order with the closest confirmed positions on both sides. If
// persisting fails the pick is undone.
func (s *Session) PickAt(src, dst int) error {
	if src < 0 || src >= len(s.mapping) {
		return apperrors.NewInput("src", "index %d outside [0, %d)", src, len(s.mapping))
	}
	if dst < models.Unmatched || dst >= s.nDst {
		return apperrors.NewInput("dst", "index %d outside [-1, %d)", dst, s.nDst)
	}
	if dst != models.Unmatched {
		lo, hi := s.fixedBounds(src)
		if dst < lo || dst > hi {
			return apperrors.NewInput("dst", "index %d out of order with confirmed positions (allowed [%d, %d])", dst, lo, hi)
		}
	}

	prev, wasFixed := s.mapping[src], s.fixed[src]
	s.mapping[src] = dst
	s.fixed[src] = true
	if err := s.save(); err != nil {
		s.mapping[src] = prev
		if !wasFixed {
			delete(s.fixed, src)
		}
		return err
	}
	s.last = &choice{src, dst}
	s.Next()
	return nil
}

func (s *Session) save() error {
	if s.persist == nil {
		return nil
	}
	if err := s.persist(s.Mapping(), s.Fixed()); err != nil {
		return fmt.Errorf("persist fix-up: %w", err)
	}
	return nil
}

// fixedBounds returns the values of the closest confirmed matched positions before and
// after i. Missing sides are open: 0 and nDst-1.
func (s *Session) fixedBounds(i int) (lo, hi int) {
	lo, hi = 0, s.nDst-1
	for k := i - 1; k >= 0; k-- {
		if s.fixed[k] && s.mapping[k] != models.Unmatched {
			lo = s.mapping[k]
			break
		}
	}
	for k := i + 1; k < len(s.mapping); k++ {
		if s.fixed[k] && s.mapping[k] != models.Unmatched {
			hi = s.mapping[k]
			break
		}
	}
	return lo, hi
}

// Flags returns the out-of-order flag of every position.
func (s *Session) Flags() []bool {
	return s.view().flags
}

// Suggested returns the interpolated destination of every position. Unmatched
// positions stay Unmatched.
func (s *Session) Suggested() []int {
	v := s.view()
	out := make([]int, len(s.mapping))
	for i := range out {
		if s.mapping[i] == models.Unmatched {
			out[i] = models.Unmatched
			continue
		}
		out[i] = v.suggest(i)
	}
	return out
}

// view is the out-of-order analysis of the matched subsequence.
type view struct {
	s      *Session
	flags  []bool
	interp map[int]int
}

func (s *Session) view() *view {
	var idx, vals []int
	fixed := make(map[int]bool)
	for i, d := range s.mapping {
		if d == models.Unmatched {
			continue
		}
		if s.fixed[i] {
			fixed[len(idx)] = true
		}
		idx = append(idx, i)
		vals = append(vals, d)
	}
	subFlags := align.FlagOutOfOrder(vals, fixed)
	subInterp := align.InterpolatedIndices(vals, subFlags)

	v := &view{s: s, flags: make([]bool, len(s.mapping)), interp: make(map[int]int, len(idx))}
	for k, i := range idx {
		v.flags[i] = subFlags[k]
		v.interp[i] = subInterp[k]
		// Confirmed neighbours out of order with each other, possible only with a
		// fixed set loaded from an older record.
		if k > 0 && fixed[k] && fixed[k-1] && vals[k] < vals[k-1] {
			v.flags[i] = true
			v.flags[idx[k-1]] = true
		}
	}
	return v
}

func (v *view) isPoint(i int) bool {
	if v.s.fixed[i] {
		return v.flags[i]
	}
	if v.s.mapping[i] == models.Unmatched {
		return v.s.sentinelPoints
	}
	return v.flags[i]
}

// lastBefore returns the closest matched value before i, or 0.
func (v *view) lastBefore(i int) int {
	for k := i - 1; k >= 0; k-- {
		if d := v.s.mapping[k]; d != models.Unmatched {
			return d
		}
	}
	return 0
}

func (v *view) suggest(i int) int {
	if d, ok := v.interp[i]; ok {
		lo, hi := v.s.fixedBounds(i)
		if lo <= hi {
			d = max(lo, min(d, hi))
		}
		return d
	}
	// Unmatched: the item after the last matched one.
	next := 0
	for k := i - 1; k >= 0; k-- {
		if d := v.s.mapping[k]; d != models.Unmatched {
			next = d + 1
			break
		}
	}
	if next > v.s.nDst-1 {
		next = v.s.nDst - 1
	}
	if next < 0 {
		next = 0
	}
	return next
}

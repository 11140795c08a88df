package merge

import (
	"pitchpulse/internal/dataset"
	apperrors "pitchpulse/internal/errors"
)

// How selects the join type.
type How int

const (
	// Inner keeps only rows whose key appears on both sides.
	Inner How = iota
	// Left keeps every left row; unmatched rows carry the zero right
	// value and Matched false.
	Left
)

// Pair is one joined row. Right is meaningful only when Matched is true.
type Pair[L, R any] struct {
	Left    L
	Right   R
	Matched bool
}

// JoinOnPlayerDate joins two tables on the compound (player, date) key.
//
// A key duplicated on both sides would silently multiply rows, so it is
// rejected with a JoinAmbiguityError naming the offending key and the
// right-hand table. A key duplicated on one side only fans out, which is
// the expected relational behavior.
func JoinOnPlayerDate[L, R any](
	left []L, right []R,
	leftKey func(L) dataset.Key, rightKey func(R) dataset.Key,
	how How, rightName string,
) ([]Pair[L, R], error) {
	rightIdx := make(map[dataset.Key][]R, len(right))
	for _, r := range right {
		k := rightKey(r)
		rightIdx[k] = append(rightIdx[k], r)
	}

	leftCount := make(map[dataset.Key]int, len(left))
	for _, l := range left {
		leftCount[leftKey(l)]++
	}

	for k, rs := range rightIdx {
		if len(rs) > 1 && leftCount[k] > 1 {
			return nil, apperrors.NewJoinAmbiguityError(rightName, k.Player, k.Date)
		}
	}

	out := make([]Pair[L, R], 0, len(left))
	for _, l := range left {
		matches, ok := rightIdx[leftKey(l)]
		if !ok {
			if how == Left {
				var zero R
				out = append(out, Pair[L, R]{Left: l, Matched: false, Right: zero})
			}
			continue
		}
		for _, r := range matches {
			out = append(out, Pair[L, R]{Left: l, Right: r, Matched: true})
		}
	}
	return out, nil
}

// RequireUnique validates that every (player, date) key appears at most
// once in the table, returning a JoinAmbiguityError for the first
// duplicate found.
func RequireUnique[T any](records []T, keyOf func(T) dataset.Key, tableName string) error {
	seen := make(map[dataset.Key]struct{}, len(records))
	for _, rec := range records {
		k := keyOf(rec)
		if _, dup := seen[k]; dup {
			return apperrors.NewJoinAmbiguityError(tableName, k.Player, k.Date)
		}
		seen[k] = struct{}{}
	}
	return nil
}

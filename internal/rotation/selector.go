package rotation

import (
	"errors"
	"sort"
)

// Member is one entry in a group's ordered rotation list.
type Member struct {
	UserID        string
	OrderPosition int
}

// Selection is the outcome of a successful round-robin pick.
type Selection struct {
	UserID    string
	NewCursor int
}

// ErrEmptyGroup indicates the group has no members to assign.
var ErrEmptyGroup = errors.New("rotation: group has no members")

// ErrAllSkipped indicates every candidate holds a skip for the target period.
var ErrAllSkipped = errors.New("rotation: all candidates skipped for period")

// SelectNext computes the next assignee for a group in round-robin order.
//
// Members are ordered by ascending OrderPosition and scanned starting at the
// cursor, which is interpreted modulo the live member count. A candidate is
// eligible unless its user id appears in skipped. The new cursor points one
// past the chosen member, so skipped candidates consume their turn
// permanently and are not re-queued on the next call. When no candidate is
// eligible, ErrAllSkipped is returned and the caller's state must remain
// untouched.
func SelectNext(members []Member, cursor int, skipped map[string]bool) (Selection, error) {
	n := len(members)
	if n == 0 {
		return Selection{}, ErrEmptyGroup
	}

	ordered := make([]Member, n)
	copy(ordered, members)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].OrderPosition < ordered[j].OrderPosition
	})

	cursor = ((cursor % n) + n) % n

	for k := 0; k < n; k++ {
		idx := (cursor + k) % n
		candidate := ordered[idx]
		if skipped[candidate.UserID] {
			continue
		}
		return Selection{UserID: candidate.UserID, NewCursor: (idx + 1) % n}, nil
	}

	return Selection{}, ErrAllSkipped
}

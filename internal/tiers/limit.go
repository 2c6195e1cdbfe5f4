package tiers

import "strconv"

// Limit is either a finite non-negative ceiling or unlimited. It replaces
// the usual "-1 means unlimited" convention so comparison sites never touch
// a sentinel value.
type Limit struct {
	n         int
	unlimited bool
}

// returns a limit with no ceiling
func Unlimited() Limit {
	return Limit{unlimited: true}
}

// returns a finite limit of n
func LimitOf(n int) Limit {
	return Limit{n: n}
}

func (l Limit) IsUnlimited() bool {
	return l.unlimited
}

// returns the finite ceiling; only meaningful when not unlimited
func (l Limit) N() int {
	return l.n
}

// reports whether one more unit fits under the limit given current usage
func (l Limit) Allows(used int) bool {
	if l.unlimited {
		return true
	}

	return used < l.n
}

// returns how many units remain under the limit; zero when exhausted,
// -1 when unlimited (API boundary convention only)
func (l Limit) Remaining(used int) int {
	if l.unlimited {
		return -1
	}

	if used >= l.n {
		return 0
	}

	return l.n - used
}

func (l Limit) String() string {
	if l.unlimited {
		return "unlimited"
	}

	return strconv.Itoa(l.n)
}

package tiers

import "fmt"

// service tiers, ordered from lowest to highest.
// Admin is the administrative tier and bypasses quota checks entirely.
const (
	TierStarter Tier = iota
	TierPro
	TierTeam
	TierEnterprise
	TierAdmin
)

// Tier is a closed, ordered set of service levels. The zero value is Starter,
// which is also the signup default.
type Tier int

var tierNames = map[Tier]string{
	TierStarter:    "starter",
	TierPro:        "pro",
	TierTeam:       "team",
	TierEnterprise: "enterprise",
	TierAdmin:      "admin",
}

var tiersByName = map[string]Tier{
	"starter":    TierStarter,
	"pro":        TierPro,
	"team":       TierTeam,
	"enterprise": TierEnterprise,
	"admin":      TierAdmin,
}

func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}

	return fmt.Sprintf("tier(%d)", int(t))
}

// reports whether the tier is a member of the closed set
func (t Tier) Valid() bool {
	_, ok := tierNames[t]
	return ok
}

// reports whether t is at or above other in the tier ordering
func (t Tier) AtLeast(other Tier) bool {
	return t >= other
}

// parses a stored tier name; unknown names fall back to Starter so a bad row
// can never grant elevated limits
func ParseTier(name string) Tier {
	if t, ok := tiersByName[name]; ok {
		return t
	}

	return TierStarter
}

// MarshalText implements encoding.TextMarshaler so tiers appear as names in
// JSON responses rather than ordinals
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (t *Tier) UnmarshalText(text []byte) error {
	*t = ParseTier(string(text))
	return nil
}

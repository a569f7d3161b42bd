// internal/app/system/status/status.go
package status

// GP lifecycle statuses. A GP only ever moves forward: active is the sole
// starting state and the others are terminal.
const (
	Active    = "active"
	Expired   = "expired"
	Converted = "converted"
	Failed    = "failed"
)

// User account statuses.
const (
	UserActive   = "active"
	UserDisabled = "disabled"
)

// IsTerminal reports whether a GP status is final.
func IsTerminal(s string) bool {
	return s == Expired || s == Converted || s == Failed
}

// IsValidGP reports whether s is a known GP status.
func IsValidGP(s string) bool {
	return s == Active || IsTerminal(s)
}

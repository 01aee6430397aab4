package ledger

import (
	"fmt"
	"regexp"
)

// MaxInstanceLength bounds an instance name, which becomes part of every key.
const MaxInstanceLength = 63

// InstancePattern matches valid instance names: lowercase alphanumeric,
// hyphens allowed but not at the start or end.
var InstancePattern = regexp.MustCompile(`^[a-z0-9]([-a-z0-9]*[a-z0-9])?$`)

// ValidateInstance checks that name can namespace a ledger.
func ValidateInstance(name string) error {
	if name == "" {
		return fmt.Errorf("instance name cannot be empty")
	}
	if len(name) > MaxInstanceLength {
		return fmt.Errorf("instance name too long: %d characters (max: %d)", len(name), MaxInstanceLength)
	}
	if !InstancePattern.MatchString(name) {
		return fmt.Errorf("invalid instance name '%s': must be lowercase alphanumeric with hyphens (not at start/end)", name)
	}
	return nil
}

package domain

import (
	"regexp"
)

var interfaceRegex = regexp.MustCompile(`^[a-zA-Z0-9\-_.]+$`)

// IsValidInterface checks if the string is a safe interface name.
// VLAN sub-interfaces (eth0.100) are accepted.
func IsValidInterface(iface string) bool {
	// IFNAMSIZ is 16 including the terminator
	if len(iface) == 0 || len(iface) > 15 {
		return false
	}
	return interfaceRegex.MatchString(iface)
}

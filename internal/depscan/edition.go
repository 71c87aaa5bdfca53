package depscan

import "strings"

// Edition is the licensed edition of the scanning tool in use.
type Edition int

const (
	EditionUnknown Edition = iota
	EditionCommunity
	EditionDeveloper
	EditionEnterprise
)

// ParseEdition maps a textual edition name to an Edition, case-insensitively.
// Unrecognized names map to EditionUnknown.
func ParseEdition(s string) Edition {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "COMMUNITY":
		return EditionCommunity
	case "DEVELOPER":
		return EditionDeveloper
	case "ENTERPRISE":
		return EditionEnterprise
	default:
		return EditionUnknown
	}
}

func (e Edition) String() string {
	switch e {
	case EditionCommunity:
		return "COMMUNITY"
	case EditionDeveloper:
		return "DEVELOPER"
	case EditionEnterprise:
		return "ENTERPRISE"
	default:
		return "UNKNOWN"
	}
}

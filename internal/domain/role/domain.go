package role

import (
	"errors"
	"slices"
	"strings"
)

var ErrUnknownRole = errors.New("unknown role")

type Role string

const (
	Admin     Role = "admin"
	National  Role = "national"
	County    Role = "county"
	Subcounty Role = "subcounty"
	Facility  Role = "facility"
)

type Permission string

const (
	UsersRead          Permission = "users:read"
	UsersWrite         Permission = "users:write"
	LocationsRead      Permission = "locations:read"
	LocationsWrite     Permission = "locations:write"
	NotificationsRead  Permission = "notifications:read"
	NotificationsWrite Permission = "notifications:write"
	ReportsRead        Permission = "reports:read"
	ReportsExport      Permission = "reports:export"
)

var table = map[Role][]Permission{
	Admin: {
		UsersRead, UsersWrite, LocationsRead, LocationsWrite,
		NotificationsRead, NotificationsWrite, ReportsRead, ReportsExport,
	},
	National:  {UsersRead, LocationsRead, NotificationsRead, ReportsRead, ReportsExport},
	County:    {UsersRead, LocationsRead, NotificationsRead, ReportsRead, ReportsExport},
	Subcounty: {LocationsRead, NotificationsRead, NotificationsWrite, ReportsRead, ReportsExport},
	Facility:  {LocationsRead, NotificationsRead, NotificationsWrite, ReportsRead},
}

// All lists roles from widest to narrowest.
func All() []Role { return []Role{Admin, National, County, Subcounty, Facility} }

func Parse(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := table[r]; !ok {
		return "", ErrUnknownRole
	}
	return r, nil
}

func Permissions(r Role) []Permission { return slices.Clone(table[r]) }

func Can(r Role, p Permission) bool { return slices.Contains(table[r], p) }

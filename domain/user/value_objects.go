package user

import (
	"regexp"
	"strings"
)

type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleStaff    Role = "STAFF"
	RoleDriver   Role = "DRIVER"
	RoleCustomer Role = "CUSTOMER"
)

// ParseRole is case-insensitive.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToUpper(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleStaff, RoleDriver, RoleCustomer:
		return r, nil
	}
	return "", NewUnknownRoleError(s)
}

// Staff roles may act on any order.
func (r Role) Staff() bool {
	return r == RoleAdmin || r == RoleStaff
}

var emailPattern = regexp.MustCompile(`^[a-z0-9._%+-]+@([a-z0-9-]+\.)+[a-z]{2,}$`)

// Email is a lower-cased address. The zero value means no address on file.
type Email struct {
	addr string
}

func ParseEmail(s string) (Email, error) {
	addr := strings.ToLower(strings.TrimSpace(s))
	if !emailPattern.MatchString(addr) {
		return Email{}, NewInvalidEmailError(s)
	}
	return Email{addr: addr}, nil
}

func (e Email) IsZero() bool { return e.addr == "" }

func (e Email) Domain() string {
	if i := strings.LastIndexByte(e.addr, '@'); i >= 0 {
		return e.addr[i+1:]
	}
	return ""
}

func (e Email) String() string { return e.addr }

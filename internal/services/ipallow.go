package services

import (
	"net"
	"strings"

	"github.com/jmoiron/sqlx"
)

// IsIPWhitelisted checks the caller's IP against the active allowlist rows.
// Entries may be literal addresses or CIDR ranges. Consulted once, before
// password authentication, on the admin login path; pure read-only lookup.
func IsIPWhitelisted(db *sqlx.DB, clientIP string) (bool, error) {
	ip := net.ParseIP(strings.TrimSpace(clientIP))
	if ip == nil {
		return false, ErrBadRequest("Unable to determine IP address")
	}
	entries := []string{}
	if err := db.Select(&entries, `SELECT ip_address FROM whitelisted_ips WHERE is_active = TRUE`); err != nil {
		return false, WrapError(err, "load ip allowlist")
	}
	for _, entry := range entries {
		if MatchIP(ip, entry) {
			return true, nil
		}
	}
	return false, nil
}

// MatchIP reports whether ip matches an allowlist entry, literal or CIDR.
func MatchIP(ip net.IP, entry string) bool {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return false
	}
	if strings.Contains(entry, "/") {
		_, network, err := net.ParseCIDR(entry)
		if err != nil {
			return false
		}
		return network.Contains(ip)
	}
	literal := net.ParseIP(entry)
	return literal != nil && literal.Equal(ip)
}

package services

import (
	"net"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchIP(t *testing.T) {
	cases := []struct {
		ip    string
		entry string
		want  bool
	}{
		{"203.0.113.10", "203.0.113.10", true},
		{"203.0.113.10", "203.0.113.11", false},
		{"203.0.113.10", "203.0.113.0/24", true},
		{"203.0.114.10", "203.0.113.0/24", false},
		{"2001:db8::1", "2001:db8::/32", true},
		{"203.0.113.10", "not-an-ip", false},
		{"203.0.113.10", "", false},
	}
	for _, tc := range cases {
		ip := net.ParseIP(tc.ip)
		require.NotNil(t, ip, tc.ip)
		assert.Equal(t, tc.want, MatchIP(ip, tc.entry), "%s vs %s", tc.ip, tc.entry)
	}
}

func TestIsIPWhitelisted(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	db := sqlx.NewDb(mockDB, "sqlmock")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT ip_address FROM whitelisted_ips WHERE is_active = TRUE")).
		WillReturnRows(sqlmock.NewRows([]string{"ip_address"}).
			AddRow("198.51.100.7").
			AddRow("10.0.0.0/8"))

	allowed, err := IsIPWhitelisted(db, "10.20.30.40")
	require.NoError(t, err)
	assert.True(t, allowed)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT ip_address FROM whitelisted_ips WHERE is_active = TRUE")).
		WillReturnRows(sqlmock.NewRows([]string{"ip_address"}).AddRow("198.51.100.7"))

	allowed, err = IsIPWhitelisted(db, "203.0.113.10")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestIsIPWhitelistedRejectsUnparsableIP(t *testing.T) {
	mockDB, _, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	db := sqlx.NewDb(mockDB, "sqlmock")

	_, err = IsIPWhitelisted(db, "garbage")
	assert.EqualError(t, err, "Unable to determine IP address")
}

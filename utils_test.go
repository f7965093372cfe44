package storekit

import (
	"database/sql"
	"testing"
	"time"
)

func TestQuoteIdent(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"customer", `"customer"`},
		{"order", `"order"`},
		{"weird name", `"weird name"`},
		{`evil"name`, `"evil""name"`},
	}

	for _, tt := range tests {
		if got := quoteIdent(tt.in); got != tt.want {
			t.Errorf("quoteIdent(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestJoinColumns(t *testing.T) {
	if got := joinColumns([]string{"a", "b", "c"}); got != "a, b, c" {
		t.Errorf("Unexpected join: %s", got)
	}
	if got := joinColumns(nil); got != "" {
		t.Errorf("Expected empty string for nil, got %q", got)
	}
}

func TestTruncateSQL(t *testing.T) {
	long := "SELECT * FROM a_very_long_table_name WHERE something = 'value'"
	short := truncateSQL(long, 20)
	if len(short) > 24 {
		t.Errorf("Expected truncation, got %q", short)
	}
	if truncateSQL("SELECT 1", 20) != "SELECT 1" {
		t.Error("Expected short SQL to pass through")
	}
}

func TestPoolStatsFromSQL(t *testing.T) {
	stats := sql.DBStats{
		MaxOpenConnections: 25,
		OpenConnections:    10,
		InUse:              4,
		Idle:               6,
		WaitCount:          3,
		WaitDuration:       2 * time.Second,
	}

	ps := PoolStatsFromSQL(stats)
	if ps.MaxOpenConnections != 25 || ps.InUse != 4 || ps.Idle != 6 {
		t.Errorf("Unexpected pool stats: %+v", ps)
	}
	if ps.WaitCount != 3 || ps.WaitDuration != 2*time.Second {
		t.Errorf("Expected wait stats to carry over: %+v", ps)
	}
}

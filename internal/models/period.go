package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Period models an academic period ("2025-1"). Exactly one period is active
// system-wide; activation is flipped transactionally, never cached in
// process state.
type Period struct {
	ID        string    `db:"id" json:"id"`
	Label     string    `db:"label" json:"label"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// PeriodFilter defines filters supported by period listings.
type PeriodFilter struct {
	IsActive  *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// NextPeriodLabel computes the successor of a "YYYY-N" period label: term 1
// rolls to term 2 of the same year, anything else rolls to term 1 of the
// next year.
func NextPeriodLabel(label string) (string, error) {
	parts := strings.SplitN(strings.TrimSpace(label), "-", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("malformed period label %q", label)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return "", fmt.Errorf("malformed period year in %q", label)
	}
	if parts[1] == "1" {
		return fmt.Sprintf("%d-2", year), nil
	}
	return fmt.Sprintf("%d-1", year+1), nil
}

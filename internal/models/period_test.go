package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextPeriodLabel(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"2025-1", "2025-2"},
		{"2025-2", "2026-1"},
		{"1999-2", "2000-1"},
		{"2030-3", "2031-1"},
	}
	for _, tc := range cases {
		got, err := NextPeriodLabel(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
	}
}

func TestNextPeriodLabelMalformed(t *testing.T) {
	for _, in := range []string{"", "2025", "abcd-1", "-1"} {
		_, err := NextPeriodLabel(in)
		assert.Error(t, err, in)
	}
}

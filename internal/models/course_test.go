package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRequisitesEmpty(t *testing.T) {
	assert.Nil(t, ParseRequisites(""))
	assert.Nil(t, ParseRequisites("   "))
}

func TestParseRequisitesSingle(t *testing.T) {
	got := ParseRequisites("MAT101")
	assert.Equal(t, []Requisite{{Code: "MAT101"}}, got)
}

func TestParseRequisitesMixed(t *testing.T) {
	got := ParseRequisites("MAT101/CO-FIS102/ QUI103 ")
	assert.Equal(t, []Requisite{
		{Code: "MAT101"},
		{Code: "FIS102", Corequisite: true},
		{Code: "QUI103"},
	}, got)
}

func TestParseRequisitesSkipsBlankTokens(t *testing.T) {
	got := ParseRequisites("MAT101//CO-")
	assert.Equal(t, []Requisite{{Code: "MAT101"}}, got)
}

func TestRequisiteList(t *testing.T) {
	c := Course{Requisites: "A1/CO-B2"}
	got := c.RequisiteList()
	assert.Len(t, got, 2)
	assert.False(t, got[0].Corequisite)
	assert.True(t, got[1].Corequisite)
}

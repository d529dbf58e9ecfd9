package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeLabel(t *testing.T) {
	assert.Equal(t, "doces___bolos", SanitizeLabel("Doces & Bolos"))
	assert.Equal(t, "alimenta__o", SanitizeLabel("Alimentação"))
	assert.Equal(t, "abc123", SanitizeLabel("ABC123"))
	assert.Equal(t, "", SanitizeLabel(""))
}

func TestStripDiacritics(t *testing.T) {
	assert.Equal(t, "Acai", StripDiacritics("Açaí"))
	assert.Equal(t, "Saquarema", StripDiacritics("Saquarema"))
	assert.Equal(t, "ALIMENTACAO", StripDiacritics("ALIMENTAÇÃO"))
}

func TestNormalizeCounterIdentifier(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"HOME", "HOME"},
		{"home", "HOME"},
		{"  espaco_mei  ", "ESPACO_MEI"},
		{"REDIRECIONAMENTO", "REDIRECIONAMENTO"},
		{"profile_share", "PROFILE_SHARE"},
		{"CAT_ALIMENTACAO", "CAT_ALIMENTACAO"},
		{"curso_gestao", "CURSO_GESTAO"},
		{"Alimentação", "CAT_ALIMENTACAO"},
		{"Doces & Bolos", "CAT_DOCES___BOLOS"},
		{"beleza", "CAT_BELEZA"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeCounterIdentifier(tc.raw), "raw=%q", tc.raw)
	}
}

package vcard

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const aliceCard = "BEGIN:VCARD\r\nVERSION:3.0\r\nFN:Alice Example\r\nUID:alice-1\r\nEMAIL:alice@example.com\r\nEND:VCARD\r\n"

func TestValidate(t *testing.T) {
	require.NoError(t, Validate([]byte(aliceCard)))

	require.Error(t, Validate(nil))
	require.Error(t, Validate([]byte("not a vcard")))
	require.Error(t, Validate([]byte("BEGIN:VCARD\r\nVERSION:3.0\r\nUID:x\r\nEND:VCARD\r\n")), "missing FN")
}

func TestValidateLFOnly(t *testing.T) {
	lf := "BEGIN:VCARD\nVERSION:3.0\nFN:Bob\nUID:bob-1\nEND:VCARD\n"
	require.NoError(t, Validate([]byte(lf)))
}

func TestNormalizeDeterministic(t *testing.T) {
	a, err := Normalize([]byte(aliceCard), "alice-1")
	require.NoError(t, err)
	b, err := Normalize([]byte(aliceCard), "alice-1")
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestNormalizeBackfillsUID(t *testing.T) {
	noUID := "BEGIN:VCARD\r\nVERSION:3.0\r\nFN:Carol\r\nEND:VCARD\r\n"
	out, err := Normalize([]byte(noUID), "carol-7")
	require.NoError(t, err)
	require.Contains(t, string(out), "UID:carol-7")

	// Same input and fallback must converge byte for byte.
	again, err := Normalize([]byte(noUID), "carol-7")
	require.NoError(t, err)
	require.Equal(t, out, again)
}

func TestNormalizeGeneratesFNFromN(t *testing.T) {
	card := "BEGIN:VCARD\r\nVERSION:3.0\r\nN:Example;Dana;;;\r\nUID:dana-1\r\nEND:VCARD\r\n"
	out, err := Normalize([]byte(card), "dana-1")
	require.NoError(t, err)
	require.Contains(t, string(out), "FN:")
}

func TestNormalizeDefaultsVersion(t *testing.T) {
	card := "BEGIN:VCARD\r\nFN:Eve\r\nUID:eve-1\r\nEND:VCARD\r\n"
	out, err := Normalize([]byte(card), "eve-1")
	require.NoError(t, err)
	require.Contains(t, string(out), "VERSION:3.0")
}

func TestParse(t *testing.T) {
	card, err := Parse([]byte(aliceCard))
	require.NoError(t, err)
	require.Equal(t, "Alice Example", card.Value("FN"))

	_, err = Parse([]byte("garbage"))
	require.Error(t, err)
}

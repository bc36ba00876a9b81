package database

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

const (
	DefaultMaxBodyBytes = 4096
	maxTextBytes        = 255
	maxPostalCodeBytes  = 16
	maxCodeBytes        = 16
)

var (
	ErrFieldTooLong = errors.New("field exceeds maximum length")
	// ErrAlreadyRecorded is returned by Discard for notifications that
	// already back a dedup record.
	ErrAlreadyRecorded = errors.New("notification already recorded")
)

// truncate normalises s to NFC and cuts it to at most n bytes without
// splitting a rune.
func truncate(s string, n int) string {
	s = norm.NFC.String(strings.TrimSpace(s))
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func normalizeVenueCode(code string) string {
	return truncate(cases.Upper(language.Und).String(code), maxCodeBytes)
}

func blob(id uuid.UUID) []byte {
	return id[:]
}

func nullableBlob(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return blob(*id)
}

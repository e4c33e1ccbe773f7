package ldap

import (
	"fmt"

	"github.com/google/uuid"
)

// FormatGUID converts a binary objectGUID to its canonical string form.
// Active Directory stores the first three fields little-endian.
func FormatGUID(raw []byte) (string, error) {
	if len(raw) != 16 {
		return "", fmt.Errorf("invalid objectGUID length %d", len(raw))
	}
	b := []byte{
		raw[3], raw[2], raw[1], raw[0],
		raw[5], raw[4],
		raw[7], raw[6],
	}
	b = append(b, raw[8:]...)

	id, err := uuid.FromBytes(b)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// ParseGUID is the inverse of FormatGUID.
func ParseGUID(s string) ([]byte, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, err
	}
	return []byte{
		id[3], id[2], id[1], id[0],
		id[5], id[4],
		id[7], id[6],
		id[8], id[9], id[10], id[11], id[12], id[13], id[14], id[15],
	}, nil
}

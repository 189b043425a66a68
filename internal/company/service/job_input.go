package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// BranchList decodes eligibleBranches given either as a JSON array or as one comma-separated
// string ("it,ece"). Splitting and validation happen in jobdomain.NormalizeBranches.
type BranchList []string

// UnmarshalJSON implements json.Unmarshaler.
func (b *BranchList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*b = BranchList{s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*b = list
	return nil
}

// Number is a JSON number that may also arrive as a numeric string ("18.5"). An empty string
// decodes to zero.
type Number float64

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	raw, ok, err := numericText(data)
	if err != nil || !ok {
		return err
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid number %q", raw)
	}
	*n = Number(v)
	return nil
}

// Year is a whole number that may also arrive as a numeric string ("2027").
type Year int

// UnmarshalJSON implements json.Unmarshaler.
func (y *Year) UnmarshalJSON(data []byte) error {
	raw, ok, err := numericText(data)
	if err != nil || !ok {
		return err
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid year %q", raw)
	}
	*y = Year(v)
	return nil
}

// numericText returns the number text of a JSON number or string. ok is false for null and "".
func numericText(data []byte) (string, bool, error) {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return "", false, nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", false, err
		}
		s = strings.TrimSpace(s)
		return s, s != "", nil
	}
	return string(data), true, nil
}

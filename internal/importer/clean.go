package importer

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// parseMoney converts a money cell to a float. Handles "Rp" / "IDR"
// prefixes, Indonesian thousands dots ("1.234.567"), western commas
// ("1,234,567"), and mixed decimal forms ("1.234,56").
func parseMoney(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}

	s = strings.TrimPrefix(s, "Rp.")
	s = strings.TrimPrefix(s, "Rp")
	s = strings.TrimPrefix(s, "IDR")
	s = strings.ReplaceAll(s, " ", "")

	negative := false
	if strings.HasPrefix(s, "-") || (strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")")) {
		negative = true
		s = strings.Trim(s, "-()")
	}

	dot := strings.LastIndex(s, ".")
	comma := strings.LastIndex(s, ",")
	switch {
	case dot >= 0 && comma >= 0:
		// The later separator is the decimal mark.
		if dot > comma {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		}
	case comma >= 0:
		s = normalizeSingleSeparator(s, ",")
	case dot >= 0:
		s = normalizeSingleSeparator(s, ".")
	}

	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", raw)
	}
	if negative {
		val = -val
	}
	return val, nil
}

// normalizeSingleSeparator resolves a string containing only one kind
// of separator. Multiple occurrences, or a single occurrence followed
// by exactly three digits, means thousands grouping; otherwise it is a
// decimal mark.
func normalizeSingleSeparator(s, sep string) string {
	if strings.Count(s, sep) > 1 {
		return strings.ReplaceAll(s, sep, "")
	}
	idx := strings.Index(s, sep)
	if len(s)-idx-1 == 3 {
		return strings.ReplaceAll(s, sep, "")
	}
	return strings.Replace(s, sep, ".", 1)
}

// parseQuantity accepts integers with optional grouping separators.
func parseQuantity(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", "")
	val, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid quantity %q", raw)
	}
	return val, nil
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02/01/2006",
	"02/01/2006 15:04",
	"02-01-2006",
	"2/1/2006",
	"02 Jan 2006",
}

// excelEpoch is day zero of the 1900 date system as stored in xlsx
// files (Excel counts 1900 as a leap year, hence Dec 30 not 31).
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// parseDate tries the known textual layouts, then falls back to an
// Excel serial number for cells excelize returns as raw numbers.
func parseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Truncate(24 * time.Hour), nil
		}
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 59 && serial < 200000 {
		days := int(serial)
		return excelEpoch.AddDate(0, 0, days), nil
	}

	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}

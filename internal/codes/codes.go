// Package codes derives the human-readable identifiers used across the
// portal: class codes, class display names, and student codes.
package codes

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var yearDigits = regexp.MustCompile(`\d+`)

// StudentCodePrefix formats the prefix shared by all student codes of a year.
func StudentCodePrefix(year int) string {
	return fmt.Sprintf("STU-%d-", year)
}

// StudentCode formats a full student code for a year and sequence number.
func StudentCode(year, seq int) string {
	return fmt.Sprintf("STU-%d-%04d", year, seq)
}

// NextStudentSeq extracts the sequence number from the highest existing
// student code and returns the next one. An empty lastCode starts the year at
// 1. A malformed code is reported so the caller can log it; the returned
// sequence still restarts at 1 rather than blocking student creation.
func NextStudentSeq(lastCode string) (int, error) {
	if lastCode == "" {
		return 1, nil
	}
	idx := strings.LastIndex(lastCode, "-")
	if idx < 0 || idx == len(lastCode)-1 {
		return 1, fmt.Errorf("malformed student code %q", lastCode)
	}
	n, err := strconv.Atoi(lastCode[idx+1:])
	if err != nil {
		return 1, fmt.Errorf("malformed student code %q: %w", lastCode, err)
	}
	return n + 1, nil
}

// ClassCode derives the deterministic class code from the identifying tuple:
// first three letters of the subject (spaces stripped, uppercased), the first
// numeric run in the year level, the batch verbatim, the sub batch uppercased
// with spaces removed, and the first letter of the class type. Distinct
// tuples can collide after truncation; the storage layer's unique index
// surfaces that as a conflict instead of detecting it here.
func ClassCode(subject, yearLevel, batch, subBatch, classType string) string {
	subjectCode := strings.ReplaceAll(subject, " ", "")
	if runes := []rune(subjectCode); len(runes) > 3 {
		subjectCode = string(runes[:3])
	}
	subjectCode = strings.ToUpper(subjectCode)

	yearCode := yearDigits.FindString(yearLevel)

	subBatchCode := ""
	if subBatch != "" {
		subBatchCode = strings.ToUpper(strings.ReplaceAll(subBatch, " ", ""))
	}

	typeCode := ""
	if classType != "" {
		typeCode = strings.ToUpper(string([]rune(classType)[:1]))
	}

	return subjectCode + yearCode + batch + subBatchCode + typeCode
}

// ClassName derives the display name shown in rosters and dropdowns.
func ClassName(subject, yearLevel, batch, subBatch string) string {
	name := fmt.Sprintf("%s - %s - %s", subject, yearLevel, batch)
	if trimmed := strings.TrimSpace(subBatch); trimmed != "" {
		name += " - " + trimmed
	}
	return name
}

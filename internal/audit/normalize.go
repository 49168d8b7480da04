package audit

import (
	"regexp"
	"strconv"
	"strings"
)

// Normalizers canonicalize the raw strings both systems emit for the same
// physical fact. Every function here is total (never fails) and idempotent:
// feeding a function its own output returns the output unchanged.

var (
	firstIntRe = regexp.MustCompile(`\d+`)
	diskSizeRe = regexp.MustCompile(`(?i)(?:(\d+)\s*x\s*)?(\d+(?:\.\d+)?)\s*(tb|gb)?`)
	spaceRe    = regexp.MustCompile(`\s+`)
)

// NormalizeNS1 keeps only the rack/name prefix before the first underscore.
// "D22_031" and "d22_999" are the same box family: "d22".
func NormalizeNS1(raw string) string {
	if i := strings.Index(raw, "_"); i >= 0 {
		raw = raw[:i]
	}
	return strings.TrimSpace(strings.ToLower(raw))
}

// NormalizeRAM reduces any RAM description to "<n>g".
// "Upgrade to 64GB DDR4" and "64 GB" both become "64g".
func NormalizeRAM(raw string) string {
	if m := firstIntRe.FindString(raw); m != "" {
		return m + "g"
	}
	return ""
}

// NormalizeCPU strips the noise around the model name: clock speed after
// "@", anything parenthesized, and the filler words the portal likes to add.
func NormalizeCPU(raw string) string {
	s := strings.ToLower(raw)
	if i := strings.IndexAny(s, "@()"); i >= 0 {
		s = s[:i]
	}
	s = strings.ReplaceAll(s, "processor", " ")
	s = strings.ReplaceAll(s, "cpu", " ")
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// NormalizeDisks converts a disk description into total gigabytes.
// "4x 500GB SSD" → 2000, "2x 2TB" → 4000. A missing multiplier counts as 1,
// a missing unit as GB. If nothing parses, the first bare integer wins, and
// failing that the result is 0.
func NormalizeDisks(raw string) int {
	if m := diskSizeRe.FindStringSubmatch(raw); m != nil && m[2] != "" {
		count := 1
		if m[1] != "" {
			count, _ = strconv.Atoi(m[1])
		}
		size, _ := strconv.ParseFloat(m[2], 64)
		if strings.EqualFold(m[3], "tb") {
			size *= 1000
		}
		return count * int(size)
	}
	if m := firstIntRe.FindString(raw); m != "" {
		n, _ := strconv.Atoi(m)
		return n
	}
	return 0
}

// RAID classes. The comparison cares about the category, never the number.
type RAIDClass int

const (
	RAIDOther RAIDClass = iota
	RAIDSoftware
	RAIDNone
)

// ClassifyRAID buckets a raw RAID description.
func ClassifyRAID(raw string) RAIDClass {
	s := strings.TrimSpace(strings.ToLower(raw))
	if strings.Contains(s, "software") {
		return RAIDSoftware
	}
	switch s {
	case "", "n/a", "no raid", "default":
		return RAIDNone
	}
	return RAIDOther
}

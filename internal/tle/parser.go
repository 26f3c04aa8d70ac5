package tle

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// Parse reads TLE text from r and returns the element sets it contains.
// Both the 3-line form (name line followed by the two element lines) and the
// bare 2-line form are accepted; the two forms may be mixed. Malformed entries
// are skipped with a warning log.
func Parse(r io.Reader, logger *slog.Logger) ([]ElementSet, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading TLE data: %w", err)
	}

	var sets []ElementSet
	var name string
	for i := 0; i < len(lines); i++ {
		line := lines[i]

		if !strings.HasPrefix(line, "1 ") {
			// Anything that is not an element line is a satellite name for
			// the entry that follows.
			name = strings.TrimSpace(line)
			continue
		}

		if i+1 >= len(lines) || !strings.HasPrefix(lines[i+1], "2 ") {
			logger.Warn("skipping TLE line 1 without matching line 2", "line_index", i, "name", name)
			name = ""
			continue
		}
		line1, line2 := line, lines[i+1]
		i++

		es, err := newElementSet(name, line1, line2)
		if err != nil {
			logger.Warn("skipping malformed TLE entry", "name", name, "error", err)
			name = ""
			continue
		}
		sets = append(sets, es)
		name = ""
	}

	return sets, nil
}

// newElementSet extracts the catalog number and epoch from line 1 and builds
// the record. Column offsets follow the NORAD TLE format: catalog number in
// columns 3-7, epoch in columns 19-32.
func newElementSet(name, line1, line2 string) (ElementSet, error) {
	if len(line1) < 32 {
		return ElementSet{}, fmt.Errorf("line 1 too short (%d chars)", len(line1))
	}

	catnr, err := strconv.Atoi(strings.TrimSpace(line1[2:7]))
	if err != nil {
		return ElementSet{}, fmt.Errorf("invalid catalog number %q: %w", line1[2:7], err)
	}

	epoch, err := parseEpoch(strings.TrimSpace(line1[18:32]))
	if err != nil {
		return ElementSet{}, fmt.Errorf("invalid epoch: %w", err)
	}

	return ElementSet{
		CatalogNumber: catnr,
		Name:          name,
		Epoch:         epoch,
		Line1:         line1,
		Line2:         line2,
	}, nil
}

// parseEpoch converts a TLE epoch in YYDDD.DDDDDDDD format to time.Time.
// Two-digit years 57-99 are in the 1900s, 00-56 in the 2000s.
func parseEpoch(s string) (time.Time, error) {
	if len(s) < 5 {
		return time.Time{}, fmt.Errorf("epoch string too short: %q", s)
	}

	year, err := strconv.Atoi(s[:2])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch year %q: %w", s[:2], err)
	}
	if year >= 57 {
		year += 1900
	} else {
		year += 2000
	}

	dayOfYear, err := strconv.ParseFloat(s[2:], 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch day %q: %w", s[2:], err)
	}

	// Day of year is 1-based: day 1.0 is Jan 1 00:00 UTC.
	start := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	return start.Add(time.Duration((dayOfYear - 1) * float64(24*time.Hour))), nil
}

package ectool

import (
	"bufio"
	"strconv"
	"strings"
)

// ParseMaxTemp scans `temps all` output and returns the largest value found.
//
// A line counts when it contains both "Temp" and "=". The value is the text
// after the first "=" up to the first "C", trimmed and parsed as an integer.
// Lines that do not parse are skipped.
func ParseMaxTemp(out string) (int, bool) {
	var (
		best  int
		found bool
	)

	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		v, ok := parseTempLine(sc.Text())
		if !ok {
			continue
		}
		if !found || v > best {
			best = v
			found = true
		}
	}
	return best, found
}

func parseTempLine(line string) (int, bool) {
	if !strings.Contains(line, "Temp") {
		return 0, false
	}
	_, rest, ok := strings.Cut(line, "=")
	if !ok {
		return 0, false
	}
	rest, _, _ = strings.Cut(rest, "C")

	v, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil {
		return 0, false
	}
	return v, true
}

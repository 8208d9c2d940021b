// Package analytics runs the dashboard reports over cached records:
// duplicate client detection and ABC classification of sales.
package analytics

import (
	"strings"
	"unicode"

	"github.com/bizdash/bizsync/internal/records"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxDistance is the largest edit distance still reported as a duplicate.
// Short names get less: at most half the length of the shorter name.
const MaxDistance = 2

// MinContainLen is the shortest normalised name considered for substring
// matches.
const MinContainLen = 4

type MatchReason string

const (
	ReasonExact     MatchReason = "exact"
	ReasonDistance  MatchReason = "distance"
	ReasonSubstring MatchReason = "substring"
)

// DuplicatePair is two clients whose names look like the same person.
type DuplicatePair struct {
	A, B     *records.Client
	Distance int
	Reason   MatchReason
}

// Normalize lowercases s, strips diacritics and collapses whitespace.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(strings.ToLower(out)), " ")
}

// Levenshtein returns the edit distance between a and b, counted in runes.
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}

// FindDuplicates compares every pair of live clients. Pairs come out in
// input order.
func FindDuplicates(clients []*records.Client) []DuplicatePair {
	type entry struct {
		c    *records.Client
		name string
	}
	live := make([]entry, 0, len(clients))
	for _, c := range clients {
		if c == nil || c.Deleted {
			continue
		}
		n := Normalize(c.Name)
		if n == "" {
			continue
		}
		live = append(live, entry{c: c, name: n})
	}

	var pairs []DuplicatePair
	for i := 0; i < len(live); i++ {
		for j := i + 1; j < len(live); j++ {
			a, b := live[i], live[j]
			if reason, d, ok := match(a.name, b.name); ok {
				pairs = append(pairs, DuplicatePair{A: a.c, B: b.c, Distance: d, Reason: reason})
			}
		}
	}
	return pairs
}

func match(a, b string) (MatchReason, int, bool) {
	if a == b {
		return ReasonExact, 0, true
	}
	d := Levenshtein(a, b)
	if d <= allowedDistance(a, b) {
		return ReasonDistance, d, true
	}
	if len([]rune(a)) >= MinContainLen && len([]rune(b)) >= MinContainLen &&
		(strings.Contains(a, b) || strings.Contains(b, a)) {
		return ReasonSubstring, d, true
	}
	return "", 0, false
}

func allowedDistance(a, b string) int {
	shorter := min(len([]rune(a)), len([]rune(b)))
	return min(MaxDistance, shorter/2)
}

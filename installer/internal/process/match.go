package process

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

const (
	// ServerProcessName is the case-folded name of the Antares Web server process.
	ServerProcessName = "antareswebserver"
	// MatchThreshold is the similarity a process name must exceed to be selected.
	MatchThreshold = 0.8
)

// Similarity returns the matching-block ratio 2*M/T between a and b, where M
// is the number of characters in matching blocks and T the total length of
// both strings. Two empty strings are identical.
func Similarity(a, b string) float64 {
	return difflib.NewMatcher(chars(a), chars(b)).Ratio()
}

// Select returns the handles whose case-folded name is more similar to name
// than threshold. Closely named executables may be selected as well.
func Select(handles []Handle, name string, threshold float64) []Handle {
	var matched []Handle
	for _, h := range handles {
		if Similarity(name, strings.ToLower(h.Name())) > threshold {
			matched = append(matched, h)
		}
	}
	return matched
}

func chars(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

package extractor

import (
	"regexp"
	"strings"

	"video-transcribe-go/internal/types"
)

// Ordered pattern lists: the first pattern that matches anywhere in the
// text wins for its field. The trigger phrases are literal substrings
// (no word boundaries) and the capture is a greedy letter/space run, so
// punctuation or a trailing clause cuts the capture short or extends it.
// That over/under-capture is the documented behavior of the heuristic
// and behavioral compatibility depends on keeping these exactly as-is.
var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)my name is ([A-Za-z\s]+)`),
	regexp.MustCompile(`(?i)myself ([A-Za-z\s]+)`),
	regexp.MustCompile(`(?i)i am ([A-Za-z\s]+)`),
	regexp.MustCompile(`(?i)this is me ([A-Za-z\s]+)`),
	regexp.MustCompile(`(?i)i'm ([A-Za-z\s]+)`),
}

var locationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)i'm from ([A-Za-z\s]+)`),
	regexp.MustCompile(`(?i)i live in ([A-Za-z\s]+)`),
	regexp.MustCompile(`(?i)i am from ([A-Za-z\s]+)`),
	regexp.MustCompile(`(?i)then i moved to ([A-Za-z\s]+)`),
}

// Extract pulls a name and a location out of transcript text. Total
// function: both fields are nil when nothing matches, and the two
// fields are evaluated independently of each other.
func Extract(text string) types.ExtractedInfo {
	return types.ExtractedInfo{
		Name:     firstMatch(namePatterns, text),
		Location: firstMatch(locationPatterns, text),
	}
}

func firstMatch(patterns []*regexp.Regexp, text string) *string {
	for _, p := range patterns {
		if m := p.FindStringSubmatch(text); m != nil {
			v := strings.TrimSpace(m[1])
			return &v
		}
	}
	return nil
}

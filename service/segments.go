package service

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"transcribe-api/entities"
)

var sentenceBoundary = regexp.MustCompile(`[.!?]\s+`)

// SplitSentences cuts text after '.', '!' or '?' when followed by whitespace and drops
// empty fragments.
func SplitSentences(text string) []string {
	var sentences []string
	start := 0
	for _, loc := range sentenceBoundary.FindAllStringIndex(text, -1) {
		sentences = appendSentence(sentences, text[start:loc[0]+1])
		start = loc[1]
	}
	return appendSentence(sentences, text[start:])
}

func appendSentence(sentences []string, s string) []string {
	if s = strings.TrimSpace(s); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// BuildSegments estimates a position for each sentence by interpolating its character
// offset over an assumed total duration. This is not measured audio timing, and
// repeated identical sentences all get the offset of the first occurrence.
func BuildSegments(transcript string, assumed time.Duration) []entities.Segment {
	sentences := SplitSentences(transcript)
	if len(sentences) == 0 {
		return nil
	}

	total := utf8.RuneCountInString(transcript)
	segments := make([]entities.Segment, 0, len(sentences))
	for _, sentence := range sentences {
		offset := 0
		if idx := strings.Index(transcript, sentence); idx > 0 {
			offset = utf8.RuneCountInString(transcript[:idx])
		}
		at := time.Duration(float64(assumed) * float64(offset) / float64(total))
		segments = append(segments, entities.Segment{
			Timestamp: FormatTimestamp(at),
			Text:      sentence,
		})
	}
	return segments
}

// FormatTimestamp renders d as MM:SS; minutes are not wrapped into hours.
func FormatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	minutes := int(d / time.Minute)
	seconds := int((d % time.Minute) / time.Second)
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// SummaryDocument is the plain-text export of an analyzed recording.
func SummaryDocument(r *entities.Recording) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n\n", r.Title)
	fmt.Fprintf(&b, "Original Transcript:\n\n%s\n\n", r.Transcript)
	fmt.Fprintf(&b, "Analysis:\n\n%s\n", r.Summary)
	return []byte(b.String())
}

package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"transcribe-api/entities"
)

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "two sentences", text: "Hello world. This is a test.", want: []string{"Hello world.", "This is a test."}},
		{name: "mixed punctuation", text: "Really? Yes! Fine.", want: []string{"Really?", "Yes!", "Fine."}},
		{name: "no trailing punctuation", text: "First one. and then some", want: []string{"First one.", "and then some"}},
		{name: "decimal is not a boundary", text: "Pi is 3.14 roughly. Done.", want: []string{"Pi is 3.14 roughly.", "Done."}},
		{name: "newlines and extra spaces", text: "  One.\n\nTwo.   ", want: []string{"One.", "Two."}},
		{name: "only whitespace", text: "   ", want: nil},
		{name: "empty", text: "", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitSentences(tt.text))
		})
	}
}

func TestFormatTimestamp(t *testing.T) {
	assert.Equal(t, "00:00", FormatTimestamp(0))
	assert.Equal(t, "00:59", FormatTimestamp(59*time.Second+900*time.Millisecond))
	assert.Equal(t, "02:19", FormatTimestamp(139*time.Second))
	assert.Equal(t, "75:05", FormatTimestamp(75*time.Minute+5*time.Second), "minutes do not wrap into hours")
	assert.Equal(t, "00:00", FormatTimestamp(-time.Second))
}

func TestBuildSegments(t *testing.T) {
	segments := BuildSegments("Hello world. This is a test.", 5*time.Minute)

	require.Len(t, segments, 2)
	assert.Equal(t, entities.Segment{Timestamp: "00:00", Text: "Hello world."}, segments[0])
	assert.Equal(t, entities.Segment{Timestamp: "02:19", Text: "This is a test."}, segments[1])
}

func TestBuildSegmentsRepeatedSentence(t *testing.T) {
	segments := BuildSegments("Yes. No. Yes.", time.Minute)

	require.Len(t, segments, 3)
	assert.Equal(t, segments[0].Timestamp, segments[2].Timestamp, "repeated sentences share the first offset")
}

func TestBuildSegmentsEmptyTranscript(t *testing.T) {
	assert.Empty(t, BuildSegments("", 5*time.Minute))
	assert.Empty(t, BuildSegments("  \n ", 5*time.Minute))
}

func TestBuildSegmentsCountsRunes(t *testing.T) {
	// "Ça va. Oui." is 11 runes but 12 bytes; the second sentence starts at rune 7.
	segments := BuildSegments("Ça va. Oui.", 110*time.Second)

	require.Len(t, segments, 2)
	assert.Equal(t, "01:10", segments[1].Timestamp)
}

func TestSummaryDocument(t *testing.T) {
	doc := SummaryDocument(&entities.Recording{
		Title:      "Standup",
		Transcript: "We shipped it.",
		Summary:    "Shipping happened.",
	})

	assert.Equal(t, "Title: Standup\n\nOriginal Transcript:\n\nWe shipped it.\n\nAnalysis:\n\nShipping happened.\n", string(doc))
}

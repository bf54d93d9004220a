// Package segmenter splits cleaned transcript text into ordered, speaker-labelled segments.
//
// Every match of the speaker-line pattern is a boundary. A segment runs from the end of one
// match to the start of the next; text before the first match becomes a PREFACE segment and
// any unconsumed text after the last boundary becomes an UNKNOWN tail segment.
package segmenter

import (
	"fmt"
	"regexp"
	"strings"

	"finsense-go/internal/types"
)

type Segmenter struct {
	re       *regexp.Regexp
	detectQA bool
}

// New compiles pattern in multi-line mode so ^ and $ anchor on lines.
func New(pattern string, detectQA bool) (*Segmenter, error) {
	re, err := regexp.Compile("(?m)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("compile speaker regex: %w", err)
	}
	return &Segmenter{re: re, detectQA: detectQA}, nil
}

// boundary is one speaker-line match.
type boundary struct {
	start, end int
	speaker    string
}

// Split returns segments in document order with indices 0..n-1.
func (s *Segmenter) Split(text string) []types.Segment {
	bounds := s.boundaries(text)
	if len(bounds) == 0 {
		return []types.Segment{{
			Speaker: types.SpeakerFullText,
			Section: types.SectionPreparedRemarks,
			Content: strings.TrimSpace(text),
			Index:   0,
		}}
	}

	out := make([]types.Segment, 0, len(bounds)+2)
	emit := func(speaker string, section types.Section, content string) {
		out = append(out, types.Segment{
			Speaker: speaker,
			Section: section,
			Content: content,
			Index:   len(out),
		})
	}

	if bounds[0].start > 0 {
		if pre := strings.TrimSpace(text[:bounds[0].start]); pre != "" {
			emit(types.SpeakerPreface, types.SectionPreface, pre)
		}
	}

	consumed := 0
	for i, b := range bounds {
		end := len(text)
		if i+1 < len(bounds) {
			end = bounds[i+1].start
		}
		emit(b.speaker, s.sectionFor(b.speaker), strings.TrimSpace(text[b.end:end]))
		consumed = end
	}

	if consumed < len(text) {
		if tail := strings.TrimSpace(text[consumed:]); tail != "" {
			emit(types.SpeakerUnknown, types.SectionTail, tail)
		}
	}
	return out
}

func (s *Segmenter) boundaries(text string) []boundary {
	locs := s.re.FindAllStringSubmatchIndex(text, -1)
	bounds := make([]boundary, 0, len(locs))
	for _, loc := range locs {
		// an empty match would produce a zero-width boundary on every line
		if loc[0] == loc[1] {
			continue
		}
		bounds = append(bounds, boundary{start: loc[0], end: loc[1], speaker: speakerLabel(text, loc)})
	}
	return bounds
}

// speakerLabel prefers the first capture group and falls back to the whole match minus the colon.
func speakerLabel(text string, loc []int) string {
	if len(loc) >= 4 && loc[2] >= 0 {
		return strings.TrimSpace(text[loc[2]:loc[3]])
	}
	label := strings.TrimSpace(text[loc[0]:loc[1]])
	return strings.TrimSpace(strings.TrimSuffix(label, ":"))
}

func (s *Segmenter) sectionFor(speaker string) types.Section {
	if !s.detectQA {
		return types.SectionPreparedRemarks
	}
	lower := strings.ToLower(speaker)
	if strings.HasPrefix(lower, "q&a") || strings.HasPrefix(lower, "question-and-answer") {
		return types.SectionQA
	}
	return types.SectionPreparedRemarks
}

// Package render turns answer sentences, citations, and media references
// into display segments. Everything here is a pure transform over the
// message content; nothing mutates session state.
package render

import (
	"fmt"
	"net/url"
	"regexp"

	"github.com/hakalabs/hakabot/internal/domain"
)

var (
	linkRe    = regexp.MustCompile(`https?://[^\s)]+`)
	assetIDRe = regexp.MustCompile(`asset_id=(\d+)`)
)

// SegmentKind distinguishes plain text from an embedded clickable link
type SegmentKind string

const (
	SegmentText SegmentKind = "text"
	SegmentLink SegmentKind = "link"
)

// Segment is one run of a rendered sentence
type Segment struct {
	Kind SegmentKind `json:"kind"`
	Text string      `json:"text"`
}

// Sentence is one rendered answer line: its display segments followed by
// footnote-style citation markers
type Sentence struct {
	Segments []Segment `json:"segments"`
	Markers  []Marker  `json:"markers,omitempty"`
}

// Marker is a citation footnote, rendered as [Index]
type Marker struct {
	Index int    `json:"index"` // 1-based position in the citation list
	URL   string `json:"url"`
}

// Sentences renders each answer line with its citation markers. A citation
// whose Sentences set includes the line's index contributes one marker, in
// citation-list order; indices outside the text range are skipped.
func Sentences(text []string, citations []domain.Citation) []Sentence {
	out := make([]Sentence, len(text))
	for i, line := range text {
		out[i] = Sentence{Segments: splitLinks(line)}
	}
	for n, c := range citations {
		for _, idx := range c.Sentences {
			if idx < 0 || idx >= len(text) {
				continue
			}
			out[idx].Markers = append(out[idx].Markers, Marker{
				Index: n + 1,
				URL:   CitationURL(c),
			})
		}
	}
	return out
}

// splitLinks splits a line into text and link segments so embedded absolute
// URLs render as clickable links distinct from citation markers
func splitLinks(line string) []Segment {
	var segments []Segment
	last := 0
	for _, loc := range linkRe.FindAllStringIndex(line, -1) {
		if loc[0] > last {
			segments = append(segments, Segment{Kind: SegmentText, Text: line[last:loc[0]]})
		}
		segments = append(segments, Segment{Kind: SegmentLink, Text: line[loc[0]:loc[1]]})
		last = loc[1]
	}
	if last < len(line) || len(segments) == 0 {
		segments = append(segments, Segment{Kind: SegmentText, Text: line[last:]})
	}
	return segments
}

// CitationURL is the deep link for a text citation
func CitationURL(c domain.Citation) string {
	return fmt.Sprintf("/wiki/%s?chunk_id=%s", url.PathEscape(c.DocID), url.QueryEscape(c.ChunkID))
}

// MediaCitationURL is the deep link for a media citation. The document
// identifier is the asset_id query parameter embedded in the media ID when
// one is present, otherwise the media ID itself.
func MediaCitationURL(mc domain.MediaCitation) string {
	id := mc.MediaID
	if m := assetIDRe.FindStringSubmatch(mc.MediaID); m != nil {
		id = m[1]
	}
	return fmt.Sprintf("/wiki/%s?chunk_id=%s", url.PathEscape(id), url.QueryEscape(mc.ChunkID))
}

// MediaMarkers resolves the citation markers for one media message by
// matching each media citation against the media item's ID. Indexing
// continues from the text citation list so markers stay unambiguous across
// one response.
func MediaMarkers(mediaID string, textCitations []domain.Citation, mediaCitations []domain.MediaCitation) []Marker {
	var markers []Marker
	for n, mc := range mediaCitations {
		if mc.MediaID != mediaID {
			continue
		}
		markers = append(markers, Marker{
			Index: len(textCitations) + n + 1,
			URL:   MediaCitationURL(mc),
		})
	}
	return markers
}

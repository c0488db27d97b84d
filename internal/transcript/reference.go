package transcript

import (
	"errors"
	"sort"
	"unicode/utf8"
)

// Voice-cloning reference selection bounds. A sample shorter than ~3s lacks
// phonetic material; longer than ~6s tends to be unrepresentative.
const (
	refMinDuration = 3.0
	refMaxDuration = 6.0
	refMinTextLen  = 8
)

var ErrNoReference = errors.New("transcript: no reference sentence available")

// SelectReference picks the sentence whose audio will condition voice
// cloning. The first sentence between 3 and 6 seconds with enough text wins;
// order matters, so the choice is deterministic for identical input. When
// nothing qualifies, the longest of the three longest sentences is used.
func SelectReference(records []SentenceRecord) (SentenceRecord, error) {
	if len(records) == 0 {
		return SentenceRecord{}, ErrNoReference
	}

	for _, rec := range records {
		d := rec.Duration()
		if d >= refMinDuration && d <= refMaxDuration && utf8.RuneCountInString(rec.SourceText) > refMinTextLen {
			return rec, nil
		}
	}

	byDuration := make([]SentenceRecord, len(records))
	copy(byDuration, records)
	sort.SliceStable(byDuration, func(i, j int) bool {
		return byDuration[i].Duration() > byDuration[j].Duration()
	})
	if len(byDuration) > 3 {
		byDuration = byDuration[:3]
	}
	return byDuration[0], nil
}

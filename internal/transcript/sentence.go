package transcript

// SentenceRecord is one ASR-derived unit of speech. Records are ordered by
// Index and consumed read-only by the audio pipeline.
type SentenceRecord struct {
	Index      int     `json:"index"`
	SourceText string  `json:"source_text"`
	Translated string  `json:"translated,omitempty"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
}

// Duration returns End - Start in seconds.
func (s SentenceRecord) Duration() float64 {
	return s.End - s.Start
}

// FromTimedText converts boundary ASR output (millisecond timestamps) into
// sentence records, dropping zero- and negative-duration entries.
func FromTimedText(segments []TimedText) []SentenceRecord {
	records := make([]SentenceRecord, 0, len(segments))
	for _, seg := range segments {
		start := float64(seg.StartMS) / 1000
		end := float64(seg.EndMS) / 1000
		if end <= start || seg.Text == "" {
			continue
		}
		records = append(records, SentenceRecord{
			Index:      len(records),
			SourceText: seg.Text,
			Start:      start,
			End:        end,
		})
	}
	return records
}

// TimedText is the raw transcription unit as produced by ASR backends.
type TimedText struct {
	Text    string `json:"text"`
	StartMS int64  `json:"start_ms"`
	EndMS   int64  `json:"end_ms"`
}

// TotalDuration returns the end timestamp of the last record, which defines
// the assembled track length.
func TotalDuration(records []SentenceRecord) float64 {
	if len(records) == 0 {
		return 0
	}
	return records[len(records)-1].End
}

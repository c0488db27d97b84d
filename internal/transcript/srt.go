package transcript

import (
	"fmt"
	"os"
	"strings"
)

// WriteSRT renders translated sentence records as an SRT subtitle file.
// Records without translated text are skipped; numbering stays contiguous.
func WriteSRT(path string, records []SentenceRecord) error {
	var b strings.Builder
	n := 0
	for _, rec := range records {
		text := strings.TrimSpace(rec.Translated)
		if text == "" {
			continue
		}
		n++
		fmt.Fprintf(&b, "%d\n", n)
		fmt.Fprintf(&b, "%s --> %s\n", srtTimestamp(rec.Start), srtTimestamp(rec.End))
		fmt.Fprintf(&b, "%s\n\n", text)
	}
	if n == 0 {
		return fmt.Errorf("no translated sentences to write")
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write srt: %w", err)
	}
	return nil
}

func srtTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	ms := int64(seconds*1000 + 0.5)
	h := ms / 3600000
	ms -= h * 3600000
	m := ms / 60000
	ms -= m * 60000
	s := ms / 1000
	ms -= s * 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

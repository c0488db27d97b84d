package translate

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/tonelabs/redub/internal/config"
	"github.com/tonelabs/redub/internal/transcript"
)

// Translator produces length-budgeted target-language text for sentence
// records. Translation is two-pass: a literal pass, then an optional
// length-adjustment pass when the word count is more than two words off the
// budget derived from the sentence's speaking time.
type Translator struct {
	cfg       config.TranslateConfig
	completer Completer
	logger    *slog.Logger
	sleep     func(time.Duration)
}

func NewTranslator(cfg config.TranslateConfig, completer Completer, log *slog.Logger) *Translator {
	return &Translator{
		cfg:       cfg,
		completer: completer,
		logger:    log.With(slog.String("component", "translator")),
		sleep:     time.Sleep,
	}
}

// TranslateAll translates every record in order. A failed sentence yields an
// empty translation rather than aborting the batch; the pipeline later skips
// records without translated text.
func (t *Translator) TranslateAll(ctx context.Context, records []transcript.SentenceRecord, style string) []string {
	out := make([]string, len(records))
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			break
		}
		translated, err := t.translateSentence(ctx, rec, style)
		if err != nil {
			t.logger.Warn("sentence translation failed",
				slog.Int("index", rec.Index),
				slog.String("error", err.Error()))
			continue
		}
		out[i] = translated
		if t.cfg.PauseMS > 0 && i < len(records)-1 {
			t.sleep(time.Duration(t.cfg.PauseMS) * time.Millisecond)
		}
	}
	return out
}

func (t *Translator) translateSentence(ctx context.Context, rec transcript.SentenceRecord, style string) (string, error) {
	budget := transcript.WordBudget(rec.Duration(), t.cfg.WordsPerSecond)

	system := fmt.Sprintf("You are a translator. Output only the %s translation.", t.cfg.TargetLanguage)
	prompt := fmt.Sprintf("Translate this sentence to %s. Keep it natural and simple.", t.cfg.TargetLanguage)
	if style != "" {
		prompt += " Style: " + style + "."
	}
	prompt += fmt.Sprintf("\n\nSentence: %s\n\nTranslation (one sentence):", rec.SourceText)

	raw, err := t.completer.Complete(ctx, system, prompt)
	if err != nil {
		return "", err
	}
	literal := CleanOutput(raw)
	if literal == "" || literal == rec.SourceText {
		return "", fmt.Errorf("unusable translation output")
	}

	if !t.cfg.AdjustLength {
		return literal, nil
	}
	words := wordCount(literal)
	if absInt(words-budget) <= 2 {
		return literal, nil
	}
	if t.cfg.PauseMS > 0 {
		t.sleep(time.Duration(t.cfg.PauseMS) * time.Millisecond)
	}
	adjusted, err := t.adjustLength(ctx, literal, words, budget)
	if err != nil {
		t.logger.Warn("length adjustment failed, keeping literal translation",
			slog.Int("index", rec.Index),
			slog.String("error", err.Error()))
		return literal, nil
	}
	return adjusted, nil
}

func (t *Translator) adjustLength(ctx context.Context, literal string, words, budget int) (string, error) {
	var prompt string
	if words > budget+2 {
		prompt = fmt.Sprintf(
			"Make this sentence shorter while keeping the same meaning.\n\nOriginal (%d words): %s\nTarget: %d words\n\nShorter version:",
			words, literal, budget)
	} else {
		prompt = fmt.Sprintf(
			"Make this sentence slightly longer while keeping the same meaning. Add natural details.\n\nOriginal (%d words): %s\nTarget: %d words\n\nLonger version:",
			words, literal, budget)
	}

	raw, err := t.completer.Complete(ctx, "You are an editor. Output only the adjusted sentence.", prompt)
	if err != nil {
		return "", err
	}
	adjusted := CleanOutput(raw)
	if adjusted == "" {
		return "", fmt.Errorf("empty adjustment output")
	}
	// Keep the adjustment only if it actually moved toward the budget.
	if absInt(wordCount(adjusted)-budget) < absInt(words-budget) {
		return adjusted, nil
	}
	return literal, nil
}

// ApplyTranslations writes translations back onto a copy of the records.
// A count mismatch is tolerated by truncating to the shorter side.
func ApplyTranslations(records []transcript.SentenceRecord, translations []string) []transcript.SentenceRecord {
	out := make([]transcript.SentenceRecord, len(records))
	copy(out, records)
	n := len(translations)
	if len(out) < n {
		n = len(out)
	}
	for i := 0; i < n; i++ {
		out[i].Translated = strings.TrimSpace(translations[i])
	}
	return out
}

var (
	tagBlockPattern = regexp.MustCompile(`(?s)<[^>]*>.*?</[^>]*>`)
	tagPattern      = regexp.MustCompile(`<[^>]*>`)
	cjkPattern      = regexp.MustCompile(`[\p{Han}\x{3000}-\x{303f}\x{ff00}-\x{ffef}]+`)
	wordPattern     = regexp.MustCompile(`\S+`)
)

// CleanOutput strips model artifacts (markup, stray source-script characters,
// surrounding punctuation) from raw completion text.
func CleanOutput(text string) string {
	text = tagBlockPattern.ReplaceAllString(text, "")
	text = tagPattern.ReplaceAllString(text, "")
	text = cjkPattern.ReplaceAllString(text, "")
	text = strings.Join(strings.Fields(text), " ")
	return strings.Trim(text, ".,;:!?'\"- ")
}

func wordCount(s string) int {
	return len(wordPattern.FindAllString(s, -1))
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

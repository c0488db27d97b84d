package translate

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/tonelabs/redub/internal/config"
	"github.com/tonelabs/redub/internal/transcript"
)

type scriptedCompleter struct {
	replies []string
	calls   int
}

func (s *scriptedCompleter) Complete(_ context.Context, _, _ string) (string, error) {
	if s.calls >= len(s.replies) {
		return "", io.EOF
	}
	reply := s.replies[s.calls]
	s.calls++
	return reply, nil
}

func newTestTranslator(completer Completer) *Translator {
	cfg := config.Default().Translate
	cfg.PauseMS = 0
	tr := NewTranslator(cfg, completer, slog.New(slog.NewTextHandler(io.Discard, nil)))
	tr.sleep = func(time.Duration) {}
	return tr
}

func TestTranslateAllSkipsAdjustmentWhenBudgetMet(t *testing.T) {
	// 4s sentence, budget 10 words; 9-word reply is within tolerance.
	completer := &scriptedCompleter{replies: []string{"one two three four five six seven eight nine"}}
	tr := newTestTranslator(completer)

	records := []transcript.SentenceRecord{{Index: 0, SourceText: "源文本", Start: 0, End: 4}}
	out := tr.TranslateAll(context.Background(), records, "")
	if out[0] != "one two three four five six seven eight nine" {
		t.Fatalf("unexpected translation: %q", out[0])
	}
	if completer.calls != 1 {
		t.Fatalf("expected single call, got %d", completer.calls)
	}
}

func TestTranslateAllAdjustsTowardBudget(t *testing.T) {
	// 2s sentence, budget 5; literal has 12 words, adjustment has 6.
	completer := &scriptedCompleter{replies: []string{
		"a b c d e f g h i j k l",
		"a b c d e f",
	}}
	tr := newTestTranslator(completer)

	records := []transcript.SentenceRecord{{Index: 0, SourceText: "源文本", Start: 0, End: 2}}
	out := tr.TranslateAll(context.Background(), records, "")
	if out[0] != "a b c d e f" {
		t.Fatalf("expected adjusted translation, got %q", out[0])
	}
}

func TestTranslateAllKeepsLiteralWhenAdjustmentRegresses(t *testing.T) {
	completer := &scriptedCompleter{replies: []string{
		"a b c d e f g h i j k l",
		"a b c d e f g h i j k l m n o p",
	}}
	tr := newTestTranslator(completer)

	records := []transcript.SentenceRecord{{Index: 0, SourceText: "源文本", Start: 0, End: 2}}
	out := tr.TranslateAll(context.Background(), records, "")
	if out[0] != "a b c d e f g h i j k l" {
		t.Fatalf("expected literal translation kept, got %q", out[0])
	}
}

func TestTranslateAllFailureLeavesEmpty(t *testing.T) {
	completer := &scriptedCompleter{} // immediately errors
	tr := newTestTranslator(completer)

	records := []transcript.SentenceRecord{
		{Index: 0, SourceText: "bad", Start: 0, End: 2},
	}
	out := tr.TranslateAll(context.Background(), records, "")
	if out[0] != "" {
		t.Fatalf("expected empty translation on failure, got %q", out[0])
	}
}

func TestApplyTranslationsTruncatesMismatch(t *testing.T) {
	records := []transcript.SentenceRecord{
		{Index: 0, Start: 0, End: 1},
		{Index: 1, Start: 1, End: 2},
		{Index: 2, Start: 2, End: 3},
	}
	out := ApplyTranslations(records, []string{"one", "two"})
	if out[0].Translated != "one" || out[1].Translated != "two" || out[2].Translated != "" {
		t.Fatalf("unexpected application: %+v", out)
	}

	out = ApplyTranslations(records[:1], []string{"one", "extra"})
	if len(out) != 1 || out[0].Translated != "one" {
		t.Fatalf("expected truncation to record count: %+v", out)
	}
}

func TestCleanOutput(t *testing.T) {
	got := CleanOutput("<think>reasoning</think> Hello world. 你好 ")
	if got != "Hello world" {
		t.Fatalf("unexpected cleaned output: %q", got)
	}
}

package transcript

import "math"

const (
	defaultWordsPerSecond = 2.5
	minWordBudget         = 3
)

// WordBudget estimates how many target-language words fit into the source
// sentence's speaking time. The budget is advisory input to the translator's
// length-adjustment pass, not something the audio pipeline enforces.
func WordBudget(sourceDuration, wordsPerSecond float64) int {
	if wordsPerSecond <= 0 {
		wordsPerSecond = defaultWordsPerSecond
	}
	if sourceDuration <= 0 {
		return minWordBudget
	}
	words := int(math.Round(sourceDuration * wordsPerSecond))
	if words < minWordBudget {
		return minWordBudget
	}
	return words
}

package course

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"sync"

	"github.com/eduenglish/backend/core/vocabulary"
)

// Exercise generation sources
const (
	SourceVocabulary = "vocabulary"
	SourceGrammar    = "grammar"
	SourceAll        = "all"
)

var GenerationSources = []string{SourceVocabulary, SourceGrammar, SourceAll}

const (
	maxGeneratedExercises = 10
	numDistractors        = 3
	blank                 = "___"
)

// ShuffleFunc has the signature of rand.Shuffle.
type ShuffleFunc func(n int, swap func(i, j int))

// lockedShuffle makes rnd.Shuffle safe for concurrent use.
func lockedShuffle(rnd *rand.Rand) ShuffleFunc {
	var mu sync.Mutex
	return func(n int, swap func(i, j int)) {
		mu.Lock()
		defer mu.Unlock()
		rnd.Shuffle(n, swap)
	}
}

// GenerateVocabularyExercises builds multiple-choice exercises from the first vocabularies of a course:
// a meaning question per word, plus a fill-in-the-blank question when the word's example contains it
// and enough words of the same part of speech exist to serve as distractors.
func GenerateVocabularyExercises(vocabs []vocabulary.Vocabulary, level string, shuffle ShuffleFunc) []NewExercise {
	points, difficulty := ExercisesByLevel(level)
	exercises := make([]NewExercise, 0, maxGeneratedExercises)

	selected := vocabs
	if len(selected) > maxGeneratedExercises {
		selected = selected[:maxGeneratedExercises]
	}
	for _, vocab := range selected {
		// meaning question
		var wrongMeanings []string
		for _, other := range vocabs {
			if other.Word != vocab.Word {
				wrongMeanings = append(wrongMeanings, other.Meaning)
			}
		}
		exercises = append(exercises, NewExercise{
			Question:      fmt.Sprintf("What does %q mean?", vocab.Word),
			Type:          TypeMultipleChoice,
			Options:       options(vocab.Meaning, wrongMeanings, shuffle),
			CorrectAnswer: vocab.Meaning,
			Explanation:   meaningExplanation(vocab),
			Difficulty:    difficulty,
			Points:        points,
		})

		// fill-in-the-blank question
		if vocab.Example == "" || !strings.Contains(vocab.Example, vocab.Word) {
			continue
		}
		var wrongWords []string
		for _, other := range vocabs {
			if other.Word != vocab.Word && other.PartOfSpeech == vocab.PartOfSpeech {
				wrongWords = append(wrongWords, other.Word)
			}
		}
		if len(wrongWords) < numDistractors {
			continue
		}
		exercises = append(exercises, NewExercise{
			Question:      "Fill in the blank: " + blankOut(vocab.Example, vocab.Word),
			Type:          TypeMultipleChoice,
			Options:       options(vocab.Word, wrongWords, shuffle),
			CorrectAnswer: vocab.Word,
			Explanation:   fmt.Sprintf("The correct answer is %q (%s). Full sentence: %s", vocab.Word, vocab.Meaning, vocab.Example),
			Difficulty:    difficulty,
			Points:        points,
		})
	}

	if len(exercises) > maxGeneratedExercises {
		exercises = exercises[:maxGeneratedExercises]
	}
	return exercises
}

// options returns the answer and up to numDistractors shuffled distractors, in shuffled order.
func options(answer string, distractors []string, shuffle ShuffleFunc) []string {
	shuffle(len(distractors), func(i, j int) { distractors[i], distractors[j] = distractors[j], distractors[i] })
	if len(distractors) > numDistractors {
		distractors = distractors[:numDistractors]
	}
	opts := append([]string{answer}, distractors...)
	shuffle(len(opts), func(i, j int) { opts[i], opts[j] = opts[j], opts[i] })
	return opts
}

func meaningExplanation(vocab vocabulary.Vocabulary) string {
	explanation := fmt.Sprintf("%q means %q.", vocab.Word, vocab.Meaning)
	if vocab.Example != "" {
		explanation += " Example: " + vocab.Example
	}
	return explanation
}

// blankOut replaces the first case-insensitive occurrence of word in sentence.
func blankOut(sentence, word string) string {
	re := regexp.MustCompile("(?i)" + regexp.QuoteMeta(word))
	loc := re.FindStringIndex(sentence)
	if loc == nil {
		return sentence
	}
	return sentence[:loc[0]] + blank + sentence[loc[1]:]
}

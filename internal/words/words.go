package words

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"fmt"
	"math/rand"
	"os"
	"strings"
)

// Service serves the word corpus: the curated answer list games draw
// from, and the much larger accepted-word list guesses are validated
// against. Both lists are immutable after load, so lookups need no lock.
type Service struct {
	answers    []string
	fullWords  map[string]struct{}
	compressed []byte
}

// NewService loads the answer and accepted-word lists. Every answer is
// also an accepted word.
func NewService(answersPath, fullWordsPath string) (*Service, error) {
	fullWords, err := loadWords(fullWordsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load word list: %w", err)
	}
	answers, err := loadWords(answersPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load answer list: %w", err)
	}
	if len(answers) == 0 {
		return nil, fmt.Errorf("answer list %s is empty", answersPath)
	}

	s := &Service{
		answers:   answers,
		fullWords: make(map[string]struct{}, len(fullWords)+len(answers)),
	}
	for _, word := range fullWords {
		s.fullWords[word] = struct{}{}
	}
	for _, word := range answers {
		s.fullWords[word] = struct{}{}
	}

	if err := s.compressFullWords(); err != nil {
		return nil, fmt.Errorf("failed to compress word list: %w", err)
	}
	return s, nil
}

// NextRandomAnswer draws a random answer from the curated list.
func (s *Service) NextRandomAnswer() string {
	return s.answers[rand.Intn(len(s.answers))]
}

// IsValidGuess reports whether the word is in the accepted list.
func (s *Service) IsValidGuess(word string) bool {
	_, ok := s.fullWords[strings.ToLower(strings.TrimSpace(word))]
	return ok
}

// CompressedFullWords returns the gzip-compressed newline-joined accepted
// word list, sent to clients once on join so they can validate input
// locally.
func (s *Service) CompressedFullWords() []byte {
	return s.compressed
}

func (s *Service) compressFullWords() error {
	all := make([]string, 0, len(s.fullWords))
	for word := range s.fullWords {
		all = append(all, word)
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(strings.Join(all, "\n"))); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}
	s.compressed = buf.Bytes()
	return nil
}

func loadWords(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var list []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		word := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if word != "" {
			list = append(list, word)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

// Package feedback records user ratings of answers and keeps rolling
// aggregates for later review.
package feedback

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/stratal/graphite/internal/vector"
)

const (
	feedbackFile  = "feedback.jsonl"
	analyticsFile = "analytics.json"

	snippetChars = 100

	// defaultFailedRating is the highest rating still counted as a
	// failed answer.
	defaultFailedRating = 2
)

// Entry is one rated answer, appended as a line of JSON.
type Entry struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Query     string         `json:"query"`
	Response  string         `json:"response"`
	Rating    int            `json:"rating"`
	Comment   string         `json:"comment"`
	Sources   []SourceRecord `json:"sources"`
}

// SourceRecord keeps enough of a source to review an answer without
// storing whole documents.
type SourceRecord struct {
	Metadata    map[string]any `json:"metadata"`
	TextSnippet string         `json:"text_snippet"`
}

type Analytics struct {
	TotalQueries       int            `json:"total_queries"`
	TotalRatingSum     int            `json:"total_rating_sum"`
	AverageRating      float64        `json:"average_rating"`
	RatingDistribution map[string]int `json:"rating_distribution"`
	CommonQueryTerms   map[string]int `json:"common_query_terms"`
	LastUpdated        time.Time      `json:"last_updated"`
}

func newAnalytics() Analytics {
	dist := make(map[string]int, 5)
	for r := 1; r <= 5; r++ {
		dist[strconv.Itoa(r)] = 0
	}
	return Analytics{
		RatingDistribution: dist,
		CommonQueryTerms:   map[string]int{},
	}
}

// Store persists feedback under a single directory: an append-only
// JSONL log plus an analytics file rewritten on every save.
type Store struct {
	dir string
	mu  sync.Mutex
	log *log.Logger
}

func NewStore(dir string, logger *log.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create feedback directory: %w", err)
	}
	return &Store{dir: dir, log: logger}, nil
}

// Save records one rating for the answer in res. Rating must be 1..5.
func (s *Store) Save(query string, res vector.Result, rating int, comment string) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("rating must be between 1 and 5, got %d", rating)
	}

	entry := Entry{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Query:     query,
		Response:  res.Answer,
		Rating:    rating,
		Comment:   comment,
	}
	for _, src := range res.Sources {
		entry.Sources = append(entry.Sources, SourceRecord{
			Metadata:    src.Metadata,
			TextSnippet: snippet(src.Text),
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.appendEntry(entry); err != nil {
		return err
	}
	if err := s.updateAnalytics(entry); err != nil {
		return err
	}

	s.log.Info("saved feedback", "id", entry.ID, "rating", rating)
	return nil
}

// Analytics returns the current aggregates. A store with no feedback
// yet reports zeroed counters, not an error.
func (s *Store) Analytics() (Analytics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadAnalytics()
}

// FailedQueries returns entries rated at or below minRating, oldest
// first. A non-positive minRating means the default of 2.
func (s *Store) FailedQueries(minRating int) ([]Entry, error) {
	if minRating <= 0 {
		minRating = defaultFailedRating
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(filepath.Join(s.dir, feedbackFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open feedback log: %w", err)
	}
	defer f.Close()

	var failed []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			s.log.Warn("skipping malformed feedback line", "err", err)
			continue
		}
		if entry.Rating <= minRating {
			failed = append(failed, entry)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read feedback log: %w", err)
	}
	return failed, nil
}

func (s *Store) appendEntry(entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode feedback entry: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(s.dir, feedbackFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open feedback log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to append feedback entry: %w", err)
	}
	return nil
}

func (s *Store) updateAnalytics(entry Entry) error {
	a, err := s.loadAnalytics()
	if err != nil {
		return err
	}

	a.TotalQueries++
	a.TotalRatingSum += entry.Rating
	a.AverageRating = float64(a.TotalRatingSum) / float64(a.TotalQueries)
	a.RatingDistribution[strconv.Itoa(entry.Rating)]++
	for _, word := range strings.Fields(strings.ToLower(entry.Query)) {
		if len(word) > 3 {
			a.CommonQueryTerms[word]++
		}
	}
	a.LastUpdated = time.Now().UTC()

	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode analytics: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, analyticsFile), data, 0o644); err != nil {
		return fmt.Errorf("failed to write analytics: %w", err)
	}
	return nil
}

func (s *Store) loadAnalytics() (Analytics, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, analyticsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return newAnalytics(), nil
		}
		return Analytics{}, fmt.Errorf("failed to read analytics: %w", err)
	}

	a := newAnalytics()
	if err := json.Unmarshal(data, &a); err != nil {
		return Analytics{}, fmt.Errorf("failed to parse analytics: %w", err)
	}
	return a, nil
}

func snippet(s string) string {
	if len(s) <= snippetChars {
		return s
	}
	return s[:snippetChars]
}

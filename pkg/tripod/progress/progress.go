// Package progress tracks recorded time against the practice goal.
package progress

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/MarciaSuzuki/Tripod/pkg/models"
)

// DefaultGoalHours is the practice goal of the collection.
const DefaultGoalHours = 100

// Uncategorized collects recordings without a genre.
const Uncategorized = "Uncategorized"

type GenreTotal struct {
	Genre   string  `json:"genre"`
	Seconds float64 `json:"seconds"`
}

type Summary struct {
	TotalSeconds float64      `json:"totalSeconds"`
	GoalSeconds  float64      `json:"goalSeconds"`
	Percent      float64      `json:"percent"`
	ByGenre      []GenreTotal `json:"byGenre"`
}

func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s of %s (%.1f%%)", FormatHMS(s.TotalSeconds), FormatHMS(s.GoalSeconds), s.Percent)
	for _, g := range s.ByGenre {
		fmt.Fprintf(&b, "\n  %s: %s", g.Genre, FormatHMS(g.Seconds))
	}
	return b.String()
}

// Tracker accumulates recorded seconds per genre. It is safe for concurrent
// use.
type Tracker struct {
	mu      sync.Mutex
	goal    float64
	total   float64
	byGenre map[string]float64
}

// NewTracker returns a tracker for a goal in hours. A non-positive goal
// uses DefaultGoalHours.
func NewTracker(goalHours float64) *Tracker {
	if goalHours <= 0 {
		goalHours = DefaultGoalHours
	}
	return &Tracker{goal: goalHours * 3600, byGenre: make(map[string]float64)}
}

// Add records seconds of audio for genre. Non-positive durations are ignored.
func (t *Tracker) Add(genre string, seconds float64) {
	if seconds <= 0 {
		return
	}
	genre = strings.TrimSpace(genre)
	if genre == "" {
		genre = Uncategorized
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.total += seconds
	t.byGenre[genre] += seconds
}

// FromEntries builds a tracker from the audio durations of entries.
func FromEntries(entries []models.Entry, goalHours float64) *Tracker {
	t := NewTracker(goalHours)
	for _, e := range entries {
		if e.Audio.DurationSec != nil {
			t.Add(e.Genre, *e.Audio.DurationSec)
		}
	}
	return t
}

// Summary returns the totals with genres sorted by name.
func (t *Tracker) Summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Summary{
		TotalSeconds: t.total,
		GoalSeconds:  t.goal,
		Percent:      100 * t.total / t.goal,
		ByGenre:      make([]GenreTotal, 0, len(t.byGenre)),
	}
	if s.Percent > 100 {
		s.Percent = 100
	}
	for g, secs := range t.byGenre {
		s.ByGenre = append(s.ByGenre, GenreTotal{Genre: g, Seconds: secs})
	}
	sort.Slice(s.ByGenre, func(i, j int) bool { return s.ByGenre[i].Genre < s.ByGenre[j].Genre })
	return s
}

// FormatHMS renders seconds as "Xh MMm", truncating partial minutes.
func FormatHMS(seconds float64) string {
	total := int(seconds)
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%dh %02dm", total/3600, (total%3600)/60)
}

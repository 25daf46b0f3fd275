package dashboard

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/gokatarajesh/quiz-practice-web/internal/backend"
)

// Backend timestamps are naive ISO strings in UTC.
var timestampLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02",
}

func parseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// FormatDate renders a backend timestamp as "January 2, 2006", or "—" when it cannot be parsed.
func FormatDate(raw string) string {
	t, ok := parseTimestamp(raw)
	if !ok {
		return missing
	}
	return t.Format("January 2, 2006")
}

// Accuracy is 100*correct/total rounded to one decimal; 0 when total is 0.
func Accuracy(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(correct)/float64(total)*1000) / 10
}

// CategoryAccuracies converts tallies to accuracies. bestFirst sorts descending,
// otherwise ascending; equal accuracies sort by category name.
func CategoryAccuracies(tallies map[string]backend.CategoryTally, bestFirst bool) []CategoryAccuracy {
	out := make([]CategoryAccuracy, 0, len(tallies))
	for category, tally := range tallies {
		out = append(out, CategoryAccuracy{
			Category: category,
			Accuracy: Accuracy(tally.Correct, tally.Total),
			Correct:  tally.Correct,
			Total:    tally.Total,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Accuracy != out[j].Accuracy {
			if bestFirst {
				return out[i].Accuracy > out[j].Accuracy
			}
			return out[i].Accuracy < out[j].Accuracy
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// DistinctCategories lists categories in first-seen order.
func DistinctCategories(points []backend.ProgressPoint) []string {
	seen := make(map[string]struct{}, len(points))
	out := make([]string, 0)
	for _, p := range points {
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	return out
}

// TimeSeries groups per-category scores by attempt timestamp, oldest first.
// Scores are rounded to integers; a later record for the same category wins.
func TimeSeries(points []backend.ProgressPoint, categories []string) []SeriesPoint {
	type group struct {
		timestamp string
		testName  string
		at        time.Time
		parsed    bool
		scores    map[string]int
	}

	groups := make(map[string]*group)
	order := make([]*group, 0)
	for _, p := range points {
		g, ok := groups[p.Timestamp]
		if !ok {
			at, parsed := parseTimestamp(p.Timestamp)
			g = &group{timestamp: p.Timestamp, testName: p.TestName, at: at, parsed: parsed, scores: map[string]int{}}
			groups[p.Timestamp] = g
			order = append(order, g)
		}
		g.scores[p.Category] = int(math.Round(p.Score))
	}

	sort.SliceStable(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if a.parsed && b.parsed {
			return a.at.Before(b.at)
		}
		if a.parsed != b.parsed {
			return a.parsed
		}
		return a.timestamp < b.timestamp
	})

	out := make([]SeriesPoint, 0, len(order))
	for _, g := range order {
		label := g.testName
		if g.parsed {
			label = fmt.Sprintf("%s - %s", g.at.Format("Jan 2, 2006"), g.testName)
		}
		values := make([]SeriesValue, 0, len(categories))
		for _, c := range categories {
			score, ok := g.scores[c]
			values = append(values, SeriesValue{Category: c, Score: score, Present: ok})
		}
		out = append(out, SeriesPoint{Label: label, Timestamp: g.timestamp, Values: values})
	}
	return out
}

// AttemptCards keeps the backend order (newest first).
func AttemptCards(attempts []backend.Attempt) []AttemptCard {
	out := make([]AttemptCard, 0, len(attempts))
	for _, a := range attempts {
		card := AttemptCard{
			ID:             a.ID,
			TestName:       a.TestName,
			Date:           FormatDate(a.Timestamp),
			Score:          missing,
			TotalQuestions: a.TotalQuestions,
			Complete:       a.IsComplete,
		}
		if a.Score != nil {
			card.Score = formatPercent(*a.Score, 0)
			card.Highlight = *a.Score > 80
		}
		if !a.IsComplete {
			card.ContinueURL = fmt.Sprintf("/quiz/%d/resume", a.ID)
		}
		out = append(out, card)
	}
	return out
}

// Leaderboard sorts users by average score, highest first, then by username.
func Leaderboard(users []backend.UserStat) []LeaderboardRow {
	out := make([]LeaderboardRow, 0, len(users))
	for _, u := range users {
		out = append(out, LeaderboardRow{
			ID:           u.ID,
			Username:     u.Username,
			QuizCount:    u.QuizCount,
			AverageScore: u.AverageScore,
			Average:      formatPercent(u.AverageScore, 1),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AverageScore != out[j].AverageScore {
			return out[i].AverageScore > out[j].AverageScore
		}
		return out[i].Username < out[j].Username
	})
	return out
}

// PlatformAverage formats the platform-wide average, "N/A" when there is none.
func PlatformAverage(avg *float64) string {
	if avg == nil {
		return notAvailable
	}
	return formatPercent(*avg, 1)
}

func formatPercent(v float64, decimals int) string {
	return fmt.Sprintf("%.*f%%", decimals, v)
}

package quiz

import "math"

// CategoryResult is the tally of one category within an attempt.
type CategoryResult struct {
	Category string `json:"category"`
	Correct  int    `json:"correct"`
	Total    int    `json:"total"`
}

// Percent is the rounded share of correct answers, 0 for an empty category.
func (c CategoryResult) Percent() int {
	return percent(c.Correct, c.Total)
}

// CorrectCount counts answers matching the question's correct option.
func CorrectCount(questions []Question, answers map[int64]Answer) int {
	correct := 0
	for _, q := range questions {
		if ans, ok := answers[q.ID]; ok && ans.OptionID == q.CorrectAnswer {
			correct++
		}
	}
	return correct
}

// Score is round(100 * correct / total). Unanswered questions count as wrong.
func Score(questions []Question, answers map[int64]Answer) int {
	return percent(CorrectCount(questions, answers), len(questions))
}

// Breakdown tallies results per category in first-seen order.
func Breakdown(questions []Question, answers map[int64]Answer) []CategoryResult {
	index := map[string]int{}
	var out []CategoryResult
	for _, q := range questions {
		i, ok := index[q.Category]
		if !ok {
			i = len(out)
			index[q.Category] = i
			out = append(out, CategoryResult{Category: q.Category})
		}
		out[i].Total++
		if ans, ok := answers[q.ID]; ok && ans.OptionID == q.CorrectAnswer {
			out[i].Correct++
		}
	}
	return out
}

func percent(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(correct) * 100 / float64(total)))
}

package app

import (
	"math"
	"sort"

	"live-quiz-service/internal/domain"
)

// AggregateQuestion computes the distribution broadcast for one closed
// question. Pure: operates only on its inputs. With zero responses all
// counts and percentages are zero.
func AggregateQuestion(q domain.Question, questionIndex int, responses []domain.Response, roster map[string]*domain.Participant) domain.QuestionStats {
	stats := domain.QuestionStats{
		QuestionID:    q.ID,
		QuestionIndex: questionIndex,
	}

	for _, r := range responses {
		if r.Answer != nil {
			stats.TotalResponses++
		}
		if r.IsCorrect {
			stats.CorrectCount++
		}
	}
	stats.CorrectPercent = percent(stats.CorrectCount, stats.TotalResponses)

	switch q.Type {
	case domain.TypeSingleChoice, domain.TypeTrueFalse, domain.TypeMultiChoice:
		stats.Options = optionDistribution(q, responses, stats.TotalResponses)
	}

	stats.Participants = make([]domain.ParticipantResult, 0, len(responses))
	for _, r := range responses {
		name := r.ParticipantID
		if p, ok := roster[r.ParticipantID]; ok {
			name = p.DisplayName
		}
		stats.Participants = append(stats.Participants, domain.ParticipantResult{
			ParticipantID: r.ParticipantID,
			DisplayName:   name,
			IsCorrect:     r.IsCorrect,
			PointsEarned:  r.Points,
		})
	}
	sort.Slice(stats.Participants, func(i, j int) bool {
		return stats.Participants[i].DisplayName < stats.Participants[j].DisplayName
	})
	return stats
}

func optionDistribution(q domain.Question, responses []domain.Response, total int) []domain.OptionStat {
	counts := make(map[string]int, len(q.Options))
	for _, r := range responses {
		if r.Answer == nil {
			continue
		}
		switch q.Type {
		case domain.TypeSingleChoice, domain.TypeTrueFalse:
			counts[r.Answer.OptionID]++
		case domain.TypeMultiChoice:
			for _, id := range r.Answer.OptionIDs {
				counts[id]++
			}
		}
	}
	out := make([]domain.OptionStat, 0, len(q.Options))
	for _, opt := range q.Options {
		out = append(out, domain.OptionStat{
			OptionID: opt.ID,
			Count:    counts[opt.ID],
			Percent:  percent(counts[opt.ID], total),
		})
	}
	return out
}

// percent rounds to the nearest integer and is zero-safe.
func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

// RankParticipants orders the roster by score descending, earliest
// join first on ties, participant ID as the final key so the order is
// a deterministic total order.
func RankParticipants(sessionID string, roster map[string]*domain.Participant) domain.Leaderboard {
	participants := make([]*domain.Participant, 0, len(roster))
	for _, p := range roster {
		participants = append(participants, p)
	}
	sort.Slice(participants, func(i, j int) bool {
		if participants[i].Score != participants[j].Score {
			return participants[i].Score > participants[j].Score
		}
		if !participants[i].JoinedAt.Equal(participants[j].JoinedAt) {
			return participants[i].JoinedAt.Before(participants[j].JoinedAt)
		}
		return participants[i].ID < participants[j].ID
	})

	entries := make([]domain.LeaderboardEntry, 0, len(participants))
	for i, p := range participants {
		entries = append(entries, domain.LeaderboardEntry{
			Rank:          i + 1,
			ParticipantID: p.ID,
			DisplayName:   p.DisplayName,
			Score:         p.Score,
		})
	}
	return domain.Leaderboard{SessionID: sessionID, Entries: entries}
}

package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/ktakita1011/MiniKaggle/internal/metric"
	"github.com/ktakita1011/MiniKaggle/internal/models"
	"gorm.io/gorm"
)

// LeaderboardService derives ranked views from the submission history and,
// for the private view, the final-submission snapshot. Ranking is dense
// competition ranking: tied scores share the lowest rank of the group and the
// next distinct score skips past the group.
type LeaderboardService struct {
	main      *gorm.DB
	final     *gorm.DB
	direction metric.Direction
}

func NewLeaderboardService(main, final *gorm.DB, direction metric.Direction) *LeaderboardService {
	return &LeaderboardService{main: main, final: final, direction: direction}
}

type PublicEntry struct {
	Rank        int       `json:"rank"`
	UserID      uint      `json:"user_id"`
	Username    string    `json:"username"`
	PublicScore float64   `json:"public_score"`
	AchievedAt  time.Time `json:"achieved_at"`
}

type PrivateEntry struct {
	Rank         int       `json:"rank"`
	PublicRank   int       `json:"public_rank"`
	RankDelta    int       `json:"rank_delta"`
	UserID       uint      `json:"user_id"`
	Username     string    `json:"username"`
	PrivateScore float64   `json:"private_score"`
	PublicScore  float64   `json:"public_score"`
	AchievedAt   time.Time `json:"achieved_at"`
}

type TeamEntry struct {
	Rank        int       `json:"rank"`
	TeamID      uint      `json:"team_id"`
	TeamName    string    `json:"team_name"`
	PublicScore float64   `json:"public_score"`
	AchievedAt  time.Time `json:"achieved_at"`
}

type submissionRow struct {
	SubmissionID uint
	UserID       uint
	Username     string
	PublicScore  float64
	PrivateScore float64
	SubmittedAt  time.Time
}

// Public ranks every user by their best public score across the full history.
// Score ties go to whoever reached the score first.
func (s *LeaderboardService) Public() ([]PublicEntry, error) {
	rows, err := s.fetchSubmissions()
	if err != nil {
		return nil, err
	}

	best := make(map[uint]*PublicEntry)
	for _, row := range rows {
		e, ok := best[row.UserID]
		if !ok {
			best[row.UserID] = &PublicEntry{
				UserID:      row.UserID,
				Username:    row.Username,
				PublicScore: row.PublicScore,
				AchievedAt:  row.SubmittedAt,
			}
			continue
		}
		if metric.IsNewBest(row.PublicScore, e.PublicScore, s.direction) {
			e.PublicScore = row.PublicScore
			e.AchievedAt = row.SubmittedAt
		} else if row.PublicScore == e.PublicScore && row.SubmittedAt.Before(e.AchievedAt) {
			e.AchievedAt = row.SubmittedAt
		}
	}

	entries := make([]PublicEntry, 0, len(best))
	for _, e := range best {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.PublicScore != b.PublicScore {
			return metric.IsNewBest(a.PublicScore, b.PublicScore, s.direction)
		}
		if !a.AchievedAt.Equal(b.AchievedAt) {
			return a.AchievedAt.Before(b.AchievedAt)
		}
		return a.UserID < b.UserID
	})

	for i := range entries {
		if i > 0 && entries[i].PublicScore == entries[i-1].PublicScore {
			entries[i].Rank = entries[i-1].Rank
		} else {
			entries[i].Rank = i + 1
		}
	}
	return entries, nil
}

type candidate struct {
	submissionID uint
	publicScore  float64
	privateScore float64
	submittedAt  time.Time
}

// Private ranks users by private score over their final-submission
// candidates. Users with fewer than two final selections are backfilled from
// their best remaining submissions by public score. Each entry also carries
// the user's rank movement versus the independently computed public board.
func (s *LeaderboardService) Private() ([]PrivateEntry, error) {
	publicBoard, err := s.Public()
	if err != nil {
		return nil, err
	}
	publicRank := make(map[uint]int, len(publicBoard))
	for _, e := range publicBoard {
		publicRank[e.UserID] = e.Rank
	}

	rows, err := s.fetchSubmissions()
	if err != nil {
		return nil, err
	}
	subsByUser := make(map[uint][]submissionRow)
	usernames := make(map[uint]string)
	for _, row := range rows {
		subsByUser[row.UserID] = append(subsByUser[row.UserID], row)
		usernames[row.UserID] = row.Username
	}

	var finals []models.FinalSubmission
	if err := s.final.Find(&finals).Error; err != nil {
		return nil, fmt.Errorf("failed to load final submissions: %w", err)
	}
	finalsByUser := make(map[uint][]models.FinalSubmission)
	for _, f := range finals {
		finalsByUser[f.UserID] = append(finalsByUser[f.UserID], f)
	}

	entries := make([]PrivateEntry, 0, len(subsByUser))
	for userID, subs := range subsByUser {
		cands := s.candidatesFor(finalsByUser[userID], subs)
		if len(cands) == 0 {
			continue
		}

		chosen := cands[0]
		for _, c := range cands[1:] {
			if metric.IsNewBest(c.privateScore, chosen.privateScore, s.direction) ||
				(c.privateScore == chosen.privateScore && c.submittedAt.Before(chosen.submittedAt)) {
				chosen = c
			}
		}

		entries = append(entries, PrivateEntry{
			UserID:       userID,
			Username:     usernames[userID],
			PrivateScore: chosen.privateScore,
			PublicScore:  chosen.publicScore,
			AchievedAt:   chosen.submittedAt,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.PrivateScore != b.PrivateScore {
			return metric.IsNewBest(a.PrivateScore, b.PrivateScore, s.direction)
		}
		if !a.AchievedAt.Equal(b.AchievedAt) {
			return a.AchievedAt.Before(b.AchievedAt)
		}
		return a.UserID < b.UserID
	})

	for i := range entries {
		if i > 0 && entries[i].PrivateScore == entries[i-1].PrivateScore {
			entries[i].Rank = entries[i-1].Rank
		} else {
			entries[i].Rank = i + 1
		}
		if pr, ok := publicRank[entries[i].UserID]; ok {
			entries[i].PublicRank = pr
			entries[i].RankDelta = pr - entries[i].Rank
		}
	}
	return entries, nil
}

// candidatesFor assembles up to two scoring candidates for a user: their
// final selections, backfilled with the best remaining submissions by public
// score when fewer than two finals exist.
func (s *LeaderboardService) candidatesFor(finals []models.FinalSubmission, subs []submissionRow) []candidate {
	cands := make([]candidate, 0, MaxFinalSubmissions)
	taken := make(map[uint]bool)
	for _, f := range finals {
		if len(cands) == MaxFinalSubmissions {
			break
		}
		cands = append(cands, candidate{
			submissionID: f.SubmissionID,
			publicScore:  f.PublicScore,
			privateScore: f.PrivateScore,
			submittedAt:  f.SubmittedAt,
		})
		taken[f.SubmissionID] = true
	}

	if len(cands) < MaxFinalSubmissions {
		remaining := make([]submissionRow, 0, len(subs))
		for _, sub := range subs {
			if !taken[sub.SubmissionID] {
				remaining = append(remaining, sub)
			}
		}
		sort.Slice(remaining, func(i, j int) bool {
			a, b := remaining[i], remaining[j]
			if a.PublicScore != b.PublicScore {
				return metric.IsNewBest(a.PublicScore, b.PublicScore, s.direction)
			}
			return a.SubmittedAt.Before(b.SubmittedAt)
		})
		for _, sub := range remaining {
			if len(cands) == MaxFinalSubmissions {
				break
			}
			cands = append(cands, candidate{
				submissionID: sub.SubmissionID,
				publicScore:  sub.PublicScore,
				privateScore: sub.PrivateScore,
				submittedAt:  sub.SubmittedAt,
			})
		}
	}
	return cands
}

// Teams ranks teams by the best public score any member submitted under the
// team, with the same tie and rank rules as the user board.
func (s *LeaderboardService) Teams() ([]TeamEntry, error) {
	var rows []struct {
		TeamID      uint
		TeamName    string
		PublicScore float64
		SubmittedAt time.Time
	}
	err := s.main.Table("submissions").
		Select("submissions.team_id, teams.team_name, submissions.public_score, submissions.submitted_at").
		Joins("JOIN teams ON teams.id = submissions.team_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load team submissions: %w", err)
	}

	best := make(map[uint]*TeamEntry)
	for _, row := range rows {
		e, ok := best[row.TeamID]
		if !ok {
			best[row.TeamID] = &TeamEntry{
				TeamID:      row.TeamID,
				TeamName:    row.TeamName,
				PublicScore: row.PublicScore,
				AchievedAt:  row.SubmittedAt,
			}
			continue
		}
		if metric.IsNewBest(row.PublicScore, e.PublicScore, s.direction) {
			e.PublicScore = row.PublicScore
			e.AchievedAt = row.SubmittedAt
		} else if row.PublicScore == e.PublicScore && row.SubmittedAt.Before(e.AchievedAt) {
			e.AchievedAt = row.SubmittedAt
		}
	}

	entries := make([]TeamEntry, 0, len(best))
	for _, e := range best {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.PublicScore != b.PublicScore {
			return metric.IsNewBest(a.PublicScore, b.PublicScore, s.direction)
		}
		if !a.AchievedAt.Equal(b.AchievedAt) {
			return a.AchievedAt.Before(b.AchievedAt)
		}
		return a.TeamID < b.TeamID
	})

	for i := range entries {
		if i > 0 && entries[i].PublicScore == entries[i-1].PublicScore {
			entries[i].Rank = entries[i-1].Rank
		} else {
			entries[i].Rank = i + 1
		}
	}
	return entries, nil
}

func (s *LeaderboardService) fetchSubmissions() ([]submissionRow, error) {
	var rows []submissionRow
	err := s.main.Table("submissions").
		Select("submissions.id AS submission_id, submissions.user_id, users.username, submissions.public_score, submissions.private_score, submissions.submitted_at").
		Joins("JOIN users ON users.id = submissions.user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load submissions: %w", err)
	}
	return rows, nil
}

// Paginate cuts one page out of a fully ranked board.
func Paginate[T any](list []T, page, perPage int) []T {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 1
	}
	start := (page - 1) * perPage
	if start >= len(list) {
		return []T{}
	}
	end := start + perPage
	if end > len(list) {
		end = len(list)
	}
	return list[start:end]
}

package services

import (
	"testing"
	"time"

	"github.com/ktakita1011/MiniKaggle/internal/metric"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicCompetitionRanking(t *testing.T) {
	main := openMainDB(t)
	final := openFinalDB(t)
	svc := NewLeaderboardService(main, final, metric.Max)

	alice := createUser(t, main, "alice")
	bob := createUser(t, main, "bob")
	carol := createUser(t, main, "carol")
	team := createTeam(t, main, "shared")

	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	// alice reaches 0.80 first, bob ties later, carol trails.
	createSubmission(t, main, alice.ID, team.ID, 1, 0.80, 0.70, base)
	createSubmission(t, main, alice.ID, team.ID, 2, 0.50, 0.40, base.Add(time.Hour))
	createSubmission(t, main, bob.ID, team.ID, 1, 0.80, 0.75, base.Add(30*time.Minute))
	createSubmission(t, main, carol.ID, team.ID, 1, 0.60, 0.65, base.Add(time.Minute))

	entries, err := svc.Public()
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Tied users share rank 1; the next distinct score skips to rank 3.
	assert.Equal(t, "alice", entries[0].Username)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, "bob", entries[1].Username)
	assert.Equal(t, 1, entries[1].Rank)
	assert.Equal(t, "carol", entries[2].Username)
	assert.Equal(t, 3, entries[2].Rank)

	assert.Equal(t, 0.80, entries[0].PublicScore)
	assert.True(t, entries[0].AchievedAt.Equal(base))
}

func TestPublicMinDirection(t *testing.T) {
	main := openMainDB(t)
	final := openFinalDB(t)
	svc := NewLeaderboardService(main, final, metric.Min)

	alice := createUser(t, main, "alice")
	bob := createUser(t, main, "bob")
	team := createTeam(t, main, "shared")

	base := time.Now().UTC()
	createSubmission(t, main, alice.ID, team.ID, 1, 0.30, 0.35, base)
	createSubmission(t, main, alice.ID, team.ID, 2, 0.90, 0.95, base.Add(time.Minute))
	createSubmission(t, main, bob.ID, team.ID, 1, 0.50, 0.45, base)

	entries, err := svc.Public()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "alice", entries[0].Username)
	assert.Equal(t, 0.30, entries[0].PublicScore)
	assert.Equal(t, "bob", entries[1].Username)
	assert.Equal(t, 2, entries[1].Rank)
}

func TestPrivateUsesFinalSelections(t *testing.T) {
	main := openMainDB(t)
	final := openFinalDB(t)
	boards := NewLeaderboardService(main, final, metric.Max)
	finals := NewFinalSelectionService(main, final, false)

	alice := createUser(t, main, "alice")
	team := createTeam(t, main, "alice")
	base := time.Now().UTC()
	// The best-private submission is deliberately NOT selected.
	s1 := createSubmission(t, main, alice.ID, team.ID, 1, 0.80, 0.60, base)
	s2 := createSubmission(t, main, alice.ID, team.ID, 2, 0.70, 0.50, base.Add(time.Minute))
	createSubmission(t, main, alice.ID, team.ID, 3, 0.60, 0.99, base.Add(2*time.Minute))

	_, err := finals.Select(alice.ID, []uint{s1.ID, s2.ID})
	require.NoError(t, err)

	entries, err := boards.Private()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	// Only the two selected rows count, so the unselected 0.99 is ignored.
	assert.Equal(t, 0.60, entries[0].PrivateScore)
	assert.Equal(t, 0.80, entries[0].PublicScore)
}

func TestPrivateBackfillsFromBestPublic(t *testing.T) {
	main := openMainDB(t)
	final := openFinalDB(t)
	boards := NewLeaderboardService(main, final, metric.Max)
	finals := NewFinalSelectionService(main, final, false)

	// alice selected nothing: her two best-by-public submissions stand in.
	alice := createUser(t, main, "alice")
	team := createTeam(t, main, "shared")
	base := time.Now().UTC()
	createSubmission(t, main, alice.ID, team.ID, 1, 0.90, 0.40, base)
	createSubmission(t, main, alice.ID, team.ID, 2, 0.80, 0.85, base.Add(time.Minute))
	createSubmission(t, main, alice.ID, team.ID, 3, 0.10, 0.95, base.Add(2*time.Minute))

	entries, err := boards.Private()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	// Candidates are the 0.90 and 0.80 public rows; the 0.10 row with the
	// highest private score is not a candidate.
	assert.Equal(t, 0.85, entries[0].PrivateScore)

	// bob selected one: the final plus his best remaining fill the pair.
	bob := createUser(t, main, "bob")
	b1 := createSubmission(t, main, bob.ID, team.ID, 1, 0.20, 0.30, base)
	createSubmission(t, main, bob.ID, team.ID, 2, 0.95, 0.88, base.Add(time.Minute))
	createSubmission(t, main, bob.ID, team.ID, 3, 0.05, 0.99, base.Add(2*time.Minute))

	_, err = finals.Select(bob.ID, []uint{b1.ID})
	require.NoError(t, err)

	entries, err = boards.Private()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		if e.Username == "bob" {
			// Candidates: the selected 0.30 plus the 0.95-public backfill
			// scoring 0.88 privately.
			assert.Equal(t, 0.88, e.PrivateScore)
		}
	}
}

func TestPrivateRankDelta(t *testing.T) {
	main := openMainDB(t)
	final := openFinalDB(t)
	boards := NewLeaderboardService(main, final, metric.Max)

	alice := createUser(t, main, "alice")
	bob := createUser(t, main, "bob")
	team := createTeam(t, main, "shared")
	base := time.Now().UTC()
	// alice leads the public board but falls behind on private scores.
	createSubmission(t, main, alice.ID, team.ID, 1, 0.90, 0.50, base)
	createSubmission(t, main, bob.ID, team.ID, 1, 0.80, 0.70, base)

	entries, err := boards.Private()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "bob", entries[0].Username)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, 2, entries[0].PublicRank)
	assert.Equal(t, 1, entries[0].RankDelta)

	assert.Equal(t, "alice", entries[1].Username)
	assert.Equal(t, 2, entries[1].Rank)
	assert.Equal(t, 1, entries[1].PublicRank)
	assert.Equal(t, -1, entries[1].RankDelta)
}

func TestTeamsBestOfMembers(t *testing.T) {
	main := openMainDB(t)
	final := openFinalDB(t)
	boards := NewLeaderboardService(main, final, metric.Max)

	alice := createUser(t, main, "alice")
	bob := createUser(t, main, "bob")
	carol := createUser(t, main, "carol")
	sharks := createTeam(t, main, "sharks")
	jets := createTeam(t, main, "jets")

	base := time.Now().UTC()
	createSubmission(t, main, alice.ID, sharks.ID, 1, 0.70, 0.60, base)
	createSubmission(t, main, bob.ID, sharks.ID, 1, 0.90, 0.80, base.Add(time.Minute))
	createSubmission(t, main, carol.ID, jets.ID, 1, 0.85, 0.75, base)

	entries, err := boards.Teams()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "sharks", entries[0].TeamName)
	assert.Equal(t, 0.90, entries[0].PublicScore)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, "jets", entries[1].TeamName)
	assert.Equal(t, 2, entries[1].Rank)
}

func TestPaginate(t *testing.T) {
	list := []int{1, 2, 3, 4, 5}

	assert.Equal(t, []int{1, 2}, Paginate(list, 1, 2))
	assert.Equal(t, []int{3, 4}, Paginate(list, 2, 2))
	assert.Equal(t, []int{5}, Paginate(list, 3, 2))
	assert.Empty(t, Paginate(list, 4, 2))
	assert.Equal(t, []int{1, 2}, Paginate(list, 0, 2))
}

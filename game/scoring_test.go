package game

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"stopgame/domain"
)

const (
	testRoomId  = "room-1"
	testRoundId = "round-1"
)

func cRound() domain.Round {
	return domain.Round{
		Id:         testRoundId,
		RoomId:     testRoomId,
		Ordinal:    1,
		Letter:     "c",
		Duration:   time.Second * 60,
		Status:     domain.RoundScoring,
		Categories: []string{"animal", "country", "fruit", "name"},
	}
}

func cWords() map[string]map[string]struct{} {
	return map[string]map[string]struct{}{
		"animal":  {"cat": {}, "camel": {}, "cow": {}},
		"country": {"chile": {}, "canada": {}, "china": {}},
		"fruit":   {"cherry": {}, "coconut": {}},
		"name":    {"carla": {}, "carlos": {}},
	}
}

func twoMembers() []domain.RoomMember {
	return []domain.RoomMember{
		{RoomId: testRoomId, UserId: "alice", Username: "alice"},
		{RoomId: testRoomId, UserId: "bob", Username: "bob"},
	}
}

func TestCloseRound_ScoresUniqueSharedAndInvalid(t *testing.T) {
	repo := &MockMatchRepo{}
	lexicon := &MockLexiconStore{}
	scorer := NewScorer(repo, lexicon)

	// alice and bob collide on "cat", alice alone nails "chile",
	// bob's "dog" starts with the wrong letter, fruit stays blank.
	parts := []domain.Participation{
		{RoundId: testRoundId, PlayerId: "alice", Category: "animal", Answer: " Cat "},
		{RoundId: testRoundId, PlayerId: "bob", Category: "animal", Answer: "cat"},
		{RoundId: testRoundId, PlayerId: "alice", Category: "country", Answer: "Chilé"},
		{RoundId: testRoundId, PlayerId: "bob", Category: "country", Answer: "dog"},
		{RoundId: testRoundId, PlayerId: "alice", Category: "fruit", Answer: ""},
		{RoundId: testRoundId, PlayerId: "bob", Category: "fruit", Answer: ""},
		{RoundId: testRoundId, PlayerId: "alice", Category: "name", Answer: "carla"},
		{RoundId: testRoundId, PlayerId: "bob", Category: "name", Answer: "carlos"},
	}

	repo.On("ClaimRoundForScoring", mock.Anything, testRoundId).Return(true, nil)
	repo.On("GetRound", mock.Anything, testRoundId).Return(cRound(), nil)
	repo.On("RoomMembers", mock.Anything, testRoomId).Return(twoMembers(), nil)
	repo.On("ParticipantsByRound", mock.Anything, testRoundId).Return([]string{"alice", "bob"}, nil)
	repo.On("EnsurePlaceholders", mock.Anything, testRoundId, []string{"alice", "bob"}, cRound().Categories).Return(nil)
	repo.On("ParticipationsByRound", mock.Anything, testRoundId).Return(parts, nil)
	lexicon.On("Words", mock.Anything, "c", cRound().Categories).Return(cWords(), nil)
	repo.On("SavePoints", mock.Anything, testRoundId, mock.Anything).Return(nil)
	repo.On("RoomTotals", mock.Anything, testRoomId).Return(map[string]int{"alice": 25, "bob": 15}, nil)
	repo.On("AdvanceRound", mock.Anything, testRoundId,
		[]domain.RoundStatus{domain.RoundScoring}, domain.RoundDone).Return(true, nil)

	result, err := scorer.CloseRound(context.Background(), testRoomId, testRoundId, nil)

	require.NoError(t, err)
	assert.True(t, result.Claimed)
	assert.False(t, result.AlreadyClosed)

	// shared valid answer: 5 each
	assert.Equal(t, 5, result.Results["animal"]["alice"].Points)
	assert.Equal(t, 5, result.Results["animal"]["bob"].Points)
	// unique valid answer (after trim/case/diacritic normalization): 10
	assert.Equal(t, 10, result.Results["country"]["alice"].Points)
	// wrong starting letter: 0
	assert.Equal(t, 0, result.Results["country"]["bob"].Points)
	// empty answers: 0
	assert.Equal(t, 0, result.Results["fruit"]["alice"].Points)
	assert.Equal(t, 0, result.Results["fruit"]["bob"].Points)
	// two different unique valid answers: 10 each
	assert.Equal(t, 10, result.Results["name"]["alice"].Points)
	assert.Equal(t, 10, result.Results["name"]["bob"].Points)

	assert.Equal(t, map[string]int{"alice": 25, "bob": 15}, result.Totals)

	saved := repo.Calls[indexOfCall(t, repo, "SavePoints")].Arguments.Get(2).([]domain.Participation)
	assert.Len(t, saved, len(parts), "every participation row gets a points write")
}

func TestCloseRound_SecondCloserIsNoOp(t *testing.T) {
	repo := &MockMatchRepo{}
	lexicon := &MockLexiconStore{}
	scorer := NewScorer(repo, lexicon)

	repo.On("ClaimRoundForScoring", mock.Anything, testRoundId).Return(false, nil)
	repo.On("RoomTotals", mock.Anything, testRoomId).Return(map[string]int{"alice": 40, "bob": 30}, nil)

	result, err := scorer.CloseRound(context.Background(), testRoomId, testRoundId, nil)

	require.NoError(t, err)
	assert.False(t, result.Claimed)
	assert.True(t, result.AlreadyClosed)
	assert.Empty(t, result.Results)
	assert.Equal(t, map[string]int{"alice": 40, "bob": 30}, result.Totals)

	// the losing closer must never touch scores
	repo.AssertNotCalled(t, "SavePoints", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "EnsurePlaceholders", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "AdvanceRound", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// The error return distinguishes failures before and after the claim so
// the caller knows whether the round is safe to retry or stuck.
func TestCloseRound_ErrorReportsClaimOutcome(t *testing.T) {
	t.Run("claim itself fails", func(t *testing.T) {
		repo := &MockMatchRepo{}
		scorer := NewScorer(repo, &MockLexiconStore{})
		repo.On("ClaimRoundForScoring", mock.Anything, testRoundId).Return(false, assert.AnError)

		result, err := scorer.CloseRound(context.Background(), testRoomId, testRoundId, nil)

		assert.ErrorIs(t, err, assert.AnError)
		assert.False(t, result.Claimed)
	})

	t.Run("failure after a won claim", func(t *testing.T) {
		repo := &MockMatchRepo{}
		scorer := NewScorer(repo, &MockLexiconStore{})
		repo.On("ClaimRoundForScoring", mock.Anything, testRoundId).Return(true, nil)
		repo.On("GetRound", mock.Anything, testRoundId).Return(domain.Round{}, assert.AnError)

		result, err := scorer.CloseRound(context.Background(), testRoomId, testRoundId, nil)

		assert.ErrorIs(t, err, assert.AnError)
		assert.True(t, result.Claimed)
	})
}

func TestCloseRound_SilentPlayerGetsPlaceholderZeros(t *testing.T) {
	repo := &MockMatchRepo{}
	lexicon := &MockLexiconStore{}
	scorer := NewScorer(repo, lexicon)

	// bob never submitted anything; after placeholder insertion his rows
	// come back empty and score zero.
	parts := []domain.Participation{
		{RoundId: testRoundId, PlayerId: "alice", Category: "animal", Answer: "cat"},
		{RoundId: testRoundId, PlayerId: "bob", Category: "animal", Answer: ""},
		{RoundId: testRoundId, PlayerId: "alice", Category: "country", Answer: "chile"},
		{RoundId: testRoundId, PlayerId: "bob", Category: "country", Answer: ""},
		{RoundId: testRoundId, PlayerId: "alice", Category: "fruit", Answer: ""},
		{RoundId: testRoundId, PlayerId: "bob", Category: "fruit", Answer: ""},
		{RoundId: testRoundId, PlayerId: "alice", Category: "name", Answer: ""},
		{RoundId: testRoundId, PlayerId: "bob", Category: "name", Answer: ""},
	}

	repo.On("ClaimRoundForScoring", mock.Anything, testRoundId).Return(true, nil)
	repo.On("GetRound", mock.Anything, testRoundId).Return(cRound(), nil)
	repo.On("RoomMembers", mock.Anything, testRoomId).Return(twoMembers(), nil)
	repo.On("ParticipantsByRound", mock.Anything, testRoundId).Return([]string{"alice"}, nil)
	repo.On("EnsurePlaceholders", mock.Anything, testRoundId, []string{"alice", "bob"}, cRound().Categories).Return(nil)
	repo.On("ParticipationsByRound", mock.Anything, testRoundId).Return(parts, nil)
	lexicon.On("Words", mock.Anything, "c", cRound().Categories).Return(cWords(), nil)
	repo.On("SavePoints", mock.Anything, testRoundId, mock.Anything).Return(nil)
	repo.On("RoomTotals", mock.Anything, testRoomId).Return(map[string]int{"alice": 20, "bob": 0}, nil)
	repo.On("AdvanceRound", mock.Anything, testRoundId, mock.Anything, domain.RoundDone).Return(true, nil)

	result, err := scorer.CloseRound(context.Background(), testRoomId, testRoundId, nil)

	require.NoError(t, err)
	assert.Equal(t, 10, result.Results["animal"]["alice"].Points, "no collision since bob is empty")
	assert.Equal(t, 0, result.Results["animal"]["bob"].Points)
	assert.Equal(t, 0, result.Results["name"]["bob"].Points)
}

func TestCloseRound_AnswererWithoutMembershipStillScored(t *testing.T) {
	repo := &MockMatchRepo{}
	lexicon := &MockLexiconStore{}
	scorer := NewScorer(repo, lexicon)

	// only alice is on the membership list but carol holds answer rows,
	// so the participant set is the union of both.
	repo.On("ClaimRoundForScoring", mock.Anything, testRoundId).Return(true, nil)
	repo.On("GetRound", mock.Anything, testRoundId).Return(cRound(), nil)
	repo.On("RoomMembers", mock.Anything, testRoomId).Return(
		[]domain.RoomMember{{RoomId: testRoomId, UserId: "alice"}}, nil)
	repo.On("ParticipantsByRound", mock.Anything, testRoundId).Return([]string{"carol"}, nil)
	repo.On("EnsurePlaceholders", mock.Anything, testRoundId, []string{"alice", "carol"}, cRound().Categories).Return(nil)
	repo.On("ParticipationsByRound", mock.Anything, testRoundId).Return([]domain.Participation{
		{RoundId: testRoundId, PlayerId: "alice", Category: "animal", Answer: ""},
		{RoundId: testRoundId, PlayerId: "carol", Category: "animal", Answer: "camel"},
	}, nil)
	lexicon.On("Words", mock.Anything, "c", cRound().Categories).Return(cWords(), nil)
	repo.On("SavePoints", mock.Anything, testRoundId, mock.Anything).Return(nil)
	repo.On("RoomTotals", mock.Anything, testRoomId).Return(map[string]int{"alice": 0, "carol": 10}, nil)
	repo.On("AdvanceRound", mock.Anything, testRoundId, mock.Anything, domain.RoundDone).Return(true, nil)

	result, err := scorer.CloseRound(context.Background(), testRoomId, testRoundId, nil)

	require.NoError(t, err)
	assert.Equal(t, 10, result.Results["animal"]["carol"].Points)
	repo.AssertCalled(t, "EnsurePlaceholders", mock.Anything, testRoundId,
		[]string{"alice", "carol"}, cRound().Categories)
}

func TestCloseRound_NoParticipantsFinishesEmpty(t *testing.T) {
	repo := &MockMatchRepo{}
	lexicon := &MockLexiconStore{}
	scorer := NewScorer(repo, lexicon)

	repo.On("ClaimRoundForScoring", mock.Anything, testRoundId).Return(true, nil)
	repo.On("GetRound", mock.Anything, testRoundId).Return(cRound(), nil)
	repo.On("RoomMembers", mock.Anything, testRoomId).Return([]domain.RoomMember{}, nil)
	repo.On("ParticipantsByRound", mock.Anything, testRoundId).Return([]string{}, nil)
	repo.On("AdvanceRound", mock.Anything, testRoundId,
		[]domain.RoundStatus{domain.RoundScoring}, domain.RoundDone).Return(true, nil)

	result, err := scorer.CloseRound(context.Background(), testRoomId, testRoundId, nil)

	require.NoError(t, err)
	assert.Empty(t, result.Results)
	assert.Empty(t, result.Totals)
	repo.AssertNotCalled(t, "SavePoints", mock.Anything, mock.Anything, mock.Anything)
}

func TestCloseRound_EffectsAlterScoringInput(t *testing.T) {
	repo := &MockMatchRepo{}
	lexicon := &MockLexiconStore{}
	scorer := NewScorer(repo, lexicon)

	parts := []domain.Participation{
		{RoundId: testRoundId, PlayerId: "alice", Category: "animal", Answer: "cat"},
		{RoundId: testRoundId, PlayerId: "bob", Category: "animal", Answer: "cat"},
		{RoundId: testRoundId, PlayerId: "alice", Category: "country", Answer: "chile"},
		{RoundId: testRoundId, PlayerId: "bob", Category: "country", Answer: "canada"},
	}
	effects := []Effect{
		// bob's animal answer is blanked, so alice's "cat" becomes unique
		{PlayerId: "bob", Category: "animal", Kind: EffectDisregardAnswer},
		// alice's country entry is dropped from scoring entirely
		{PlayerId: "alice", Category: "country", Kind: EffectSkipCategory},
	}

	round := cRound()
	round.Categories = []string{"animal", "country"}

	repo.On("ClaimRoundForScoring", mock.Anything, testRoundId).Return(true, nil)
	repo.On("GetRound", mock.Anything, testRoundId).Return(round, nil)
	repo.On("RoomMembers", mock.Anything, testRoomId).Return(twoMembers(), nil)
	repo.On("ParticipantsByRound", mock.Anything, testRoundId).Return([]string{"alice", "bob"}, nil)
	repo.On("EnsurePlaceholders", mock.Anything, testRoundId, []string{"alice", "bob"}, round.Categories).Return(nil)
	repo.On("ParticipationsByRound", mock.Anything, testRoundId).Return(parts, nil)
	lexicon.On("Words", mock.Anything, "c", round.Categories).Return(cWords(), nil)
	repo.On("SavePoints", mock.Anything, testRoundId, mock.Anything).Return(nil)
	repo.On("RoomTotals", mock.Anything, testRoomId).Return(map[string]int{"alice": 10, "bob": 10}, nil)
	repo.On("AdvanceRound", mock.Anything, testRoundId, mock.Anything, domain.RoundDone).Return(true, nil)

	result, err := scorer.CloseRound(context.Background(), testRoomId, testRoundId, effects)

	require.NoError(t, err)
	assert.Equal(t, 10, result.Results["animal"]["alice"].Points)
	assert.Equal(t, 0, result.Results["animal"]["bob"].Points)
	assert.Equal(t, 10, result.Results["country"]["bob"].Points, "canada stays unique")
	_, aliceScored := result.Results["country"]["alice"]
	assert.False(t, aliceScored, "skipped entry keeps its placeholder zero, no result row")
}

func TestWinners(t *testing.T) {
	assert.Equal(t, []string{"alice"}, Winners(map[string]int{"alice": 30, "bob": 20}))
	assert.Equal(t, []string{"alice", "bob"}, Winners(map[string]int{"alice": 25, "bob": 25}))
	assert.Equal(t, []string{"alice", "bob"}, Winners(map[string]int{"bob": 0, "alice": 0}))
	assert.Empty(t, Winners(map[string]int{}))
}

func indexOfCall(t *testing.T, m *MockMatchRepo, method string) int {
	t.Helper()
	for i, call := range m.Calls {
		if call.Method == method {
			return i
		}
	}
	t.Fatalf("no call to %s recorded", method)
	return -1
}

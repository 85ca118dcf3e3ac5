package game

import (
	"context"
	"sort"
	"strings"

	"stopgame/domain"
)

const (
	pointsUniqueAnswer = 10
	pointsSharedAnswer = 5
)

type CategoryScore struct {
	Answer string `json:"answer"`
	Points int    `json:"points"`
}

type RoundResult struct {
	RoundId string
	// Claimed reports that this execution won the exclusive claim. On an
	// error return it tells the caller whether the round is now sitting
	// in scoring status (claimed, stuck) or untouched (safe to retry).
	Claimed bool
	// AlreadyClosed is set when another execution claimed the round
	// first; Results is empty then and Totals carry the persisted state.
	AlreadyClosed bool
	// Results maps category -> player id -> score.
	Results map[string]map[string]CategoryScore
	Totals  map[string]int
}

// Scorer turns a round's raw answers into points exactly once. The
// exclusive claim in CloseRound is a conditional status update against
// the persistence layer, so the at-most-once guarantee holds even when
// multiple server instances race to close the same round.
type Scorer struct {
	repo    MatchRepo
	lexicon LexiconStore
}

func NewScorer(repo MatchRepo, lexicon LexiconStore) *Scorer {
	return &Scorer{repo: repo, lexicon: lexicon}
}

// CloseRound claims the round, scores every participant and returns the
// per-category results plus recomputed room totals. Duplicate or
// concurrent invocations are no-ops that report the existing totals.
//
// A persistence failure after the claim leaves the round in scoring
// status. That blocks re-entry instead of risking a double award; a
// stuck scoring round is an operational alert, not a player error.
func (s *Scorer) CloseRound(ctx context.Context, roomId, roundId string, effects []Effect) (RoundResult, error) {
	result := RoundResult{RoundId: roundId}

	claimed, err := s.repo.ClaimRoundForScoring(ctx, roundId)
	if err != nil {
		return result, err
	}
	if !claimed {
		totals, err := s.repo.RoomTotals(ctx, roomId)
		if err != nil {
			return result, err
		}
		result.AlreadyClosed = true
		result.Totals = totals
		return result, nil
	}
	result.Claimed = true

	round, err := s.repo.GetRound(ctx, roundId)
	if err != nil {
		return result, err
	}

	players, err := s.participants(ctx, roomId, roundId)
	if err != nil {
		return result, err
	}
	if len(players) == 0 {
		// everyone is gone and nobody ever answered
		if _, err := s.repo.AdvanceRound(ctx, roundId,
			[]domain.RoundStatus{domain.RoundScoring}, domain.RoundDone); err != nil {
			return result, err
		}
		result.Results = map[string]map[string]CategoryScore{}
		result.Totals = map[string]int{}
		return result, nil
	}

	// every player x category pair gets a row, so a silent player is
	// scored as an empty invalid answer rather than skipped
	if err := s.repo.EnsurePlaceholders(ctx, roundId, players, round.Categories); err != nil {
		return result, err
	}

	parts, err := s.repo.ParticipationsByRound(ctx, roundId)
	if err != nil {
		return result, err
	}
	parts = applyEffects(parts, effects)

	accepted, err := s.lexicon.Words(ctx, round.Letter, round.Categories)
	if err != nil {
		return result, err
	}

	scored, results := scoreRound(Normalize(round.Letter), round.Categories, parts, accepted)

	if err := s.repo.SavePoints(ctx, roundId, scored); err != nil {
		return result, err
	}

	totals, err := s.repo.RoomTotals(ctx, roomId)
	if err != nil {
		return result, err
	}

	if _, err := s.repo.AdvanceRound(ctx, roundId,
		[]domain.RoundStatus{domain.RoundScoring}, domain.RoundDone); err != nil {
		return result, err
	}

	result.Results = results
	result.Totals = totals
	return result, nil
}

// participants is the union of the room's membership list and the
// distinct players holding any participation row for the round, so a
// player without a membership record still gets scored.
func (s *Scorer) participants(ctx context.Context, roomId, roundId string) ([]string, error) {
	members, err := s.repo.RoomMembers(ctx, roomId)
	if err != nil {
		return nil, err
	}

	seen := map[string]struct{}{}
	players := make([]string, 0, len(members))
	for _, m := range members {
		if _, ok := seen[m.UserId]; ok {
			continue
		}
		seen[m.UserId] = struct{}{}
		players = append(players, m.UserId)
	}

	answerers, err := s.repo.ParticipantsByRound(ctx, roundId)
	if err != nil {
		return nil, err
	}
	for _, id := range answerers {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		players = append(players, id)
	}

	return players, nil
}

// scoreRound applies the uniqueness-over-validity policy per category:
// a valid normalized answer given by exactly one player scores 10, the
// same valid answer from two or more players scores 5 each, anything
// invalid or empty scores 0.
func scoreRound(letter string, categories []string, parts []domain.Participation, accepted map[string]map[string]struct{}) ([]domain.Participation, map[string]map[string]CategoryScore) {
	byCategory := map[string][]domain.Participation{}
	for _, p := range parts {
		byCategory[p.Category] = append(byCategory[p.Category], p)
	}

	scored := make([]domain.Participation, 0, len(parts))
	results := map[string]map[string]CategoryScore{}

	for _, category := range categories {
		entries := byCategory[category]
		normalized := make([]string, len(entries))
		claims := map[string]int{} // normalized valid answer -> claimant count

		for i, p := range entries {
			n := Normalize(p.Answer)
			normalized[i] = n
			if isValidAnswer(n, letter, accepted[category]) {
				claims[n]++
			}
		}

		catResults := map[string]CategoryScore{}
		for i, p := range entries {
			points := 0
			switch claims[normalized[i]] {
			case 0:
				// invalid or empty
			case 1:
				points = pointsUniqueAnswer
			default:
				points = pointsSharedAnswer
			}
			p.Points = points
			scored = append(scored, p)
			catResults[p.PlayerId] = CategoryScore{Answer: p.Answer, Points: points}
		}
		results[category] = catResults
	}

	return scored, results
}

func isValidAnswer(normalized, letter string, accepted map[string]struct{}) bool {
	if normalized == "" || !strings.HasPrefix(normalized, letter) {
		return false
	}
	_, ok := accepted[normalized]
	return ok
}

// Winners returns every player tied at the maximum total.
func Winners(totals map[string]int) []string {
	winners := []string{}
	best := 0
	for playerId, total := range totals {
		switch {
		case len(winners) == 0 || total > best:
			winners = []string{playerId}
			best = total
		case total == best:
			winners = append(winners, playerId)
		}
	}
	sort.Strings(winners)
	return winners
}

package game

import (
	"context"

	"stopgame/domain"
)

// Intake accepts one answer per (round, player, category). Resubmission
// overwrites, never duplicates; writes racing the scoring claim are
// rejected by the upsert's own status guard, not by an in-process lock,
// so intake is safe to call from any goroutine.
type Intake struct {
	repo MatchRepo
}

func NewIntake(repo MatchRepo) *Intake {
	return &Intake{repo: repo}
}

// Submit never writes points; scoring owns those.
func (in *Intake) Submit(ctx context.Context, playerId, roundId, category, text string) error {
	if playerId == "" {
		return domain.ErrUnauthenticated
	}

	round, err := in.repo.GetRound(ctx, roundId)
	if err != nil {
		return err
	}
	if !round.HasCategory(category) {
		return domain.ErrInvalidCategory
	}

	return in.repo.UpsertAnswer(ctx, roundId, playerId, category, text)
}

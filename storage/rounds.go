package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"stopgame/domain"
)

// CreateRounds persists a freshly generated batch of rounds and their
// category links in a single transaction. Round ids are filled in place.
func (pg *PostgresRepo) CreateRounds(ctx context.Context, rounds []domain.Round) error {
	tx, err := pg.pool.Begin(ctx)
	if err != nil {
		return wrapQueryError(err)
	}
	defer tx.Rollback(ctx)

	for i := range rounds {
		r := &rounds[i]
		row := tx.QueryRow(ctx,
			`INSERT INTO rounds(room_id, ordinal, letter, duration_secs, status)
			 VALUES($1, $2, $3, $4, 'ready') RETURNING id`,
			r.RoomId, r.Ordinal, r.Letter, int(r.Duration.Seconds()))
		if err := row.Scan(&r.Id); err != nil {
			return wrapQueryError(err)
		}
		for _, category := range r.Categories {
			_, err := tx.Exec(ctx,
				"INSERT INTO round_categories(round_id, category) VALUES($1, $2)",
				r.Id, category)
			if err != nil {
				return wrapQueryError(err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return wrapQueryError(err)
	}
	return nil
}

func (pg *PostgresRepo) GetRound(ctx context.Context, id string) (domain.Round, error) {
	round := domain.Round{Id: id}

	var durationSecs int
	row := pg.pool.QueryRow(ctx,
		"SELECT room_id, ordinal, letter, duration_secs, status FROM rounds WHERE id = $1", id)
	err := row.Scan(&round.RoomId, &round.Ordinal, &round.Letter, &durationSecs, &round.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Round{}, domain.ErrRoundNotFound
		}
		return domain.Round{}, wrapQueryError(err)
	}
	round.Duration = time.Duration(durationSecs) * time.Second

	rows, err := pg.pool.Query(ctx,
		"SELECT category FROM round_categories WHERE round_id = $1 ORDER BY category", id)
	if err != nil {
		return domain.Round{}, wrapQueryError(err)
	}
	defer rows.Close()
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return domain.Round{}, wrapQueryError(err)
		}
		round.Categories = append(round.Categories, category)
	}
	if err := rows.Err(); err != nil {
		return domain.Round{}, wrapQueryError(err)
	}

	return round, nil
}

// RoundsByRoom returns the room's rounds in ordinal order, categories included.
func (pg *PostgresRepo) RoundsByRoom(ctx context.Context, roomId string) ([]domain.Round, error) {
	rows, err := pg.pool.Query(ctx,
		`SELECT id, ordinal, letter, duration_secs, status FROM rounds
		 WHERE room_id = $1 ORDER BY ordinal`, roomId)
	if err != nil {
		return nil, wrapQueryError(err)
	}
	defer rows.Close()

	rounds := []domain.Round{}
	index := map[string]int{}
	for rows.Next() {
		r := domain.Round{RoomId: roomId}
		var durationSecs int
		if err := rows.Scan(&r.Id, &r.Ordinal, &r.Letter, &durationSecs, &r.Status); err != nil {
			return nil, wrapQueryError(err)
		}
		r.Duration = time.Duration(durationSecs) * time.Second
		index[r.Id] = len(rounds)
		rounds = append(rounds, r)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapQueryError(err)
	}

	catRows, err := pg.pool.Query(ctx,
		`SELECT rc.round_id, rc.category FROM round_categories rc
		 JOIN rounds r ON r.id = rc.round_id
		 WHERE r.room_id = $1 ORDER BY rc.category`, roomId)
	if err != nil {
		return nil, wrapQueryError(err)
	}
	defer catRows.Close()
	for catRows.Next() {
		var roundId, category string
		if err := catRows.Scan(&roundId, &category); err != nil {
			return nil, wrapQueryError(err)
		}
		if i, ok := index[roundId]; ok {
			rounds[i].Categories = append(rounds[i].Categories, category)
		}
	}
	if err := catRows.Err(); err != nil {
		return nil, wrapQueryError(err)
	}

	return rounds, nil
}

// AdvanceRound performs the conditional status transition and reports
// whether this caller won it. A false return means another execution got
// there first or the round is already past the source status.
func (pg *PostgresRepo) AdvanceRound(ctx context.Context, roundId string, from []domain.RoundStatus, to domain.RoundStatus) (bool, error) {
	tag, err := pg.pool.Exec(ctx,
		"UPDATE rounds SET status = $1 WHERE id = $2 AND status = ANY($3)",
		to, roundId, statusStrings(from))
	if err != nil {
		return false, wrapQueryError(err)
	}
	return tag.RowsAffected() == 1, nil
}

// ClaimRoundForScoring is the exclusive claim: at most one caller ever
// moves a round out of ready/in_progress into scoring.
func (pg *PostgresRepo) ClaimRoundForScoring(ctx context.Context, roundId string) (bool, error) {
	return pg.AdvanceRound(ctx, roundId,
		[]domain.RoundStatus{domain.RoundReady, domain.RoundInProgress}, domain.RoundScoring)
}

// UpsertAnswer records a player's answer, last write wins per
// (round, player, category). The status guard makes writes after the
// scoring claim land nowhere; those return domain.ErrRoundClosed.
func (pg *PostgresRepo) UpsertAnswer(ctx context.Context, roundId, playerId, category, answer string) error {
	tag, err := pg.pool.Exec(ctx,
		`INSERT INTO participations(round_id, player_id, category, answer)
		 SELECT $1, $2, $3, $4
		 WHERE EXISTS (SELECT 1 FROM rounds WHERE id = $1 AND status IN ('ready', 'in_progress'))
		 ON CONFLICT (round_id, player_id, category) DO UPDATE SET answer = EXCLUDED.answer`,
		roundId, playerId, category, answer)
	if err != nil {
		return wrapQueryError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRoundClosed
	}
	return nil
}

// EnsurePlaceholders creates an empty participation row for every
// player x category pair that has none, so silent players are scored as
// an empty answer instead of being skipped.
func (pg *PostgresRepo) EnsurePlaceholders(ctx context.Context, roundId string, playerIds, categories []string) error {
	batch := &pgx.Batch{}
	for _, playerId := range playerIds {
		for _, category := range categories {
			batch.Queue(
				`INSERT INTO participations(round_id, player_id, category)
				 VALUES($1, $2, $3) ON CONFLICT DO NOTHING`,
				roundId, playerId, category)
		}
	}
	if err := pg.pool.SendBatch(ctx, batch).Close(); err != nil {
		return wrapQueryError(err)
	}
	return nil
}

func (pg *PostgresRepo) ParticipationsByRound(ctx context.Context, roundId string) ([]domain.Participation, error) {
	rows, err := pg.pool.Query(ctx,
		`SELECT player_id, category, answer, points FROM participations
		 WHERE round_id = $1 ORDER BY player_id, category`, roundId)
	if err != nil {
		return nil, wrapQueryError(err)
	}
	defer rows.Close()

	parts := []domain.Participation{}
	for rows.Next() {
		p := domain.Participation{RoundId: roundId}
		if err := rows.Scan(&p.PlayerId, &p.Category, &p.Answer, &p.Points); err != nil {
			return nil, wrapQueryError(err)
		}
		parts = append(parts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapQueryError(err)
	}

	return parts, nil
}

// ParticipantsByRound is the fallback participant source when the room's
// membership list is already empty.
func (pg *PostgresRepo) ParticipantsByRound(ctx context.Context, roundId string) ([]string, error) {
	rows, err := pg.pool.Query(ctx,
		"SELECT DISTINCT player_id FROM participations WHERE round_id = $1 ORDER BY player_id", roundId)
	if err != nil {
		return nil, wrapQueryError(err)
	}
	defer rows.Close()

	players := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, wrapQueryError(err)
		}
		players = append(players, id)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapQueryError(err)
	}

	return players, nil
}

// SavePoints writes the computed scores for a round in one batch. Only the
// scoring engine calls this.
func (pg *PostgresRepo) SavePoints(ctx context.Context, roundId string, scores []domain.Participation) error {
	batch := &pgx.Batch{}
	for _, s := range scores {
		batch.Queue(
			`UPDATE participations SET points = $1
			 WHERE round_id = $2 AND player_id = $3 AND category = $4`,
			s.Points, roundId, s.PlayerId, s.Category)
	}
	if err := pg.pool.SendBatch(ctx, batch).Close(); err != nil {
		return wrapQueryError(err)
	}
	return nil
}

// RoomTotals recomputes cumulative per-player totals across all rounds of
// the room. Totals are derived on demand, never maintained incrementally.
func (pg *PostgresRepo) RoomTotals(ctx context.Context, roomId string) (map[string]int, error) {
	rows, err := pg.pool.Query(ctx,
		`SELECT p.player_id, COALESCE(SUM(p.points), 0)
		 FROM participations p JOIN rounds r ON r.id = p.round_id
		 WHERE r.room_id = $1 GROUP BY p.player_id`, roomId)
	if err != nil {
		return nil, wrapQueryError(err)
	}
	defer rows.Close()

	totals := map[string]int{}
	for rows.Next() {
		var playerId string
		var points int
		if err := rows.Scan(&playerId, &points); err != nil {
			return nil, wrapQueryError(err)
		}
		totals[playerId] = points
	}
	if err := rows.Err(); err != nil {
		return nil, wrapQueryError(err)
	}

	return totals, nil
}

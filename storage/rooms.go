package storage

import (
	"context"
	"database/sql"
	"errors"

	"stopgame/domain"
)

func (pg *PostgresRepo) CreateRoom(ctx context.Context, name, creatorId string) (domain.Room, error) {
	room := domain.Room{Name: name, CreatorId: creatorId, Status: domain.RoomWaiting}

	row := pg.pool.QueryRow(ctx,
		"INSERT INTO rooms(name, creator_id) VALUES($1, $2) RETURNING id, created_at",
		name, creatorId)

	if err := row.Scan(&room.Id, &room.CreatedAt); err != nil {
		return domain.Room{}, wrapQueryError(err)
	}

	return room, nil
}

func (pg *PostgresRepo) GetRoom(ctx context.Context, id string) (domain.Room, error) {
	room := domain.Room{Id: id}

	row := pg.pool.QueryRow(ctx,
		"SELECT name, creator_id, status, created_at FROM rooms WHERE id = $1", id)

	err := row.Scan(&room.Name, &room.CreatorId, &room.Status, &room.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Room{}, domain.ErrRoomNotFound
		}
		return domain.Room{}, wrapQueryError(err)
	}

	return room, nil
}

// SetRoomStatus performs a conditional transition and reports whether it
// took effect. Acting on a stale status is a no-op, not an error.
func (pg *PostgresRepo) SetRoomStatus(ctx context.Context, id string, from []domain.RoomStatus, to domain.RoomStatus) (bool, error) {
	tag, err := pg.pool.Exec(ctx,
		"UPDATE rooms SET status = $1 WHERE id = $2 AND status = ANY($3)",
		to, id, statusStrings(from))
	if err != nil {
		return false, wrapQueryError(err)
	}
	return tag.RowsAffected() == 1, nil
}

func statusStrings[S ~string](statuses []S) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func (pg *PostgresRepo) AddRoomMember(ctx context.Context, roomId, userId string) error {
	_, err := pg.pool.Exec(ctx,
		`INSERT INTO room_members(room_id, user_id) VALUES($1, $2)
		 ON CONFLICT (room_id, user_id) DO NOTHING`,
		roomId, userId)
	if err != nil {
		return wrapQueryError(err)
	}
	return nil
}

func (pg *PostgresRepo) RemoveRoomMember(ctx context.Context, roomId, userId string) error {
	_, err := pg.pool.Exec(ctx,
		"DELETE FROM room_members WHERE room_id = $1 AND user_id = $2", roomId, userId)
	if err != nil {
		return wrapQueryError(err)
	}
	return nil
}

func (pg *PostgresRepo) RoomMembers(ctx context.Context, roomId string) ([]domain.RoomMember, error) {
	rows, err := pg.pool.Query(ctx,
		`SELECT m.room_id, m.user_id, u.username, m.joined_at
		 FROM room_members m JOIN users u ON u.id = m.user_id
		 WHERE m.room_id = $1
		 ORDER BY m.joined_at`,
		roomId)
	if err != nil {
		return nil, wrapQueryError(err)
	}
	defer rows.Close()

	members := []domain.RoomMember{}
	for rows.Next() {
		var m domain.RoomMember
		if err := rows.Scan(&m.RoomId, &m.UserId, &m.Username, &m.JoinedAt); err != nil {
			return nil, wrapQueryError(err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapQueryError(err)
	}

	return members, nil
}

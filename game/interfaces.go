package game

import (
	"context"
	"time"

	"stopgame/domain"
)

// NetworkSession is the transport a connected player talks over.
type NetworkSession interface {
	Close(errCode string)
	Write(data []byte) error
	Read() ([]byte, error)
	Ping() error
}

type UserGetter interface {
	GetUserById(ctx context.Context, id string) (domain.User, error)
}

// LexiconStore is the read-only reference word list consulted for round
// generation and answer validity.
type LexiconStore interface {
	EligibleCategories(ctx context.Context) (map[string][]string, error)
	Words(ctx context.Context, letter string, categories []string) (map[string]map[string]struct{}, error)
}

// MatchRepo is the persistence gateway the round lifecycle runs against.
// The conditional updates (AdvanceRound, ClaimRoundForScoring,
// SetRoomStatus) are the authority on state transitions; in-process state
// is only a mirror.
type MatchRepo interface {
	CreateRoom(ctx context.Context, name, creatorId string) (domain.Room, error)
	GetRoom(ctx context.Context, id string) (domain.Room, error)
	SetRoomStatus(ctx context.Context, id string, from []domain.RoomStatus, to domain.RoomStatus) (bool, error)
	AddRoomMember(ctx context.Context, roomId, userId string) error
	RemoveRoomMember(ctx context.Context, roomId, userId string) error
	RoomMembers(ctx context.Context, roomId string) ([]domain.RoomMember, error)

	CreateRounds(ctx context.Context, rounds []domain.Round) error
	RoundsByRoom(ctx context.Context, roomId string) ([]domain.Round, error)
	GetRound(ctx context.Context, id string) (domain.Round, error)
	AdvanceRound(ctx context.Context, roundId string, from []domain.RoundStatus, to domain.RoundStatus) (bool, error)
	ClaimRoundForScoring(ctx context.Context, roundId string) (bool, error)

	UpsertAnswer(ctx context.Context, roundId, playerId, category, answer string) error
	EnsurePlaceholders(ctx context.Context, roundId string, playerIds, categories []string) error
	ParticipationsByRound(ctx context.Context, roundId string) ([]domain.Participation, error)
	ParticipantsByRound(ctx context.Context, roundId string) ([]string, error)
	SavePoints(ctx context.Context, roundId string, scores []domain.Participation) error
	RoomTotals(ctx context.Context, roomId string) (map[string]int, error)
}

type PeriodicTickerChannelCreator interface {
	Create(duration time.Duration) <-chan time.Time
}

// Player is one connected member of a room. The room actor is the only
// caller of Send/Ping/CancelAndRelease, so implementations may assume
// those are never invoked concurrently.
type Player interface {
	Id() string
	Username() string
	SetRoom(r *room)
	Send(data []byte)
	Ping()
	CancelAndRelease(errCode string)
}

// Room is what the lobby manages.
type Room interface {
	Id() string
	SetParentLobby(l Lobby)
	Description() roomDescription
	GameLoop()
	Tick(now time.Time)
	PingPlayers()
	RequestJoin(jreq roomJoinRequest)
	CloseAndRelease()
}

type Lobby interface {
	RequestUpdateDescription(desc roomDescription)
	RemoveRoom(roomId string)
}

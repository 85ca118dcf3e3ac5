package domain

import "time"

type User struct {
	Id           string
	Username     string
	PasswordHash string
}

type RoomStatus string

const (
	RoomWaiting    RoomStatus = "waiting"
	RoomInProgress RoomStatus = "in_progress"
	RoomDone       RoomStatus = "done"
	RoomAbandoned  RoomStatus = "abandoned"
)

type Room struct {
	Id        string
	Name      string
	CreatorId string
	Status    RoomStatus
	CreatedAt time.Time
}

// RoomMember entries are ordered by join time. A room holds at most
// two active members before a match starts.
type RoomMember struct {
	RoomId   string
	UserId   string
	Username string
	JoinedAt time.Time
}

type RoundStatus string

// Round status only ever advances: ready -> in_progress -> scoring -> done.
const (
	RoundReady      RoundStatus = "ready"
	RoundInProgress RoundStatus = "in_progress"
	RoundScoring    RoundStatus = "scoring"
	RoundDone       RoundStatus = "done"
)

// CategoriesPerRound is fixed at round creation and immutable afterward.
const CategoriesPerRound = 4

type Round struct {
	Id         string
	RoomId     string
	Ordinal    int
	Letter     string
	Duration   time.Duration
	Status     RoundStatus
	Categories []string
}

func (r Round) HasCategory(category string) bool {
	for _, c := range r.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// Participation is one player's answer and score for one category in one
// round. Answer is written by intake, Points only by the scoring engine.
type Participation struct {
	RoundId  string
	PlayerId string
	Category string
	Answer   string
	Points   int
}

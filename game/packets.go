package game

import (
	"encoding/json"
	"log/slog"
	"time"
)

// Wire format is JSON envelopes with a type tag; exactly one payload
// field is set per packet.

const (
	clientStartMatch   = "start_match"
	clientSubmitAnswer = "submit_answer"
	clientStopRound    = "stop_round"
	clientUsePower     = "use_power"
	clientLeave        = "leave"
)

type ClientPacket struct {
	Type         string               `json:"type"`
	StartMatch   *StartMatchRequest   `json:"start_match,omitempty"`
	SubmitAnswer *SubmitAnswerRequest `json:"submit_answer,omitempty"`
	StopRound    *StopRoundRequest    `json:"stop_round,omitempty"`
	UsePower     *UsePowerRequest     `json:"use_power,omitempty"`
}

type StartMatchRequest struct {
	Rounds       int `json:"rounds"`
	DurationSecs int `json:"duration_secs"`
}

type SubmitAnswerRequest struct {
	RoundId  string `json:"round_id"`
	Category string `json:"category"`
	Text     string `json:"text"`
}

type StopRoundRequest struct {
	RoundId string `json:"round_id"`
}

type UsePowerRequest struct {
	RoundId  string `json:"round_id"`
	Category string `json:"category"`
	Kind     string `json:"kind"`
}

const (
	serverRoomSnapshot = "room_snapshot"
	serverPlayerJoined = "player_joined"
	serverPlayerLeft   = "player_left"
	serverRoundReady   = "round_ready"
	serverRoundStarted = "round_started"
	serverRoundTick    = "round_tick"
	serverRoundClosing = "round_closing"
	serverRoundClosed  = "round_closed"
	serverMatchEnded   = "match_ended"
	serverError        = "error"
)

type ServerPacket struct {
	Type         string             `json:"type"`
	RoomSnapshot *RoomSnapshot      `json:"room_snapshot,omitempty"`
	PlayerJoined *PlayerEvent       `json:"player_joined,omitempty"`
	PlayerLeft   *PlayerEvent       `json:"player_left,omitempty"`
	RoundReady   *RoundReadyEvent   `json:"round_ready,omitempty"`
	RoundStarted *RoundStartedEvent `json:"round_started,omitempty"`
	RoundTick    *RoundTickEvent    `json:"round_tick,omitempty"`
	RoundClosing *RoundClosingEvent `json:"round_closing,omitempty"`
	RoundClosed  *RoundClosedEvent  `json:"round_closed,omitempty"`
	MatchEnded   *MatchEndedEvent   `json:"match_ended,omitempty"`
	Error        *ErrorEvent        `json:"error,omitempty"`
}

type MemberInfo struct {
	Id       string `json:"id"`
	Username string `json:"username"`
}

type RoundSnapshot struct {
	RoundId     string   `json:"round_id"`
	Ordinal     int      `json:"ordinal"`
	Letter      string   `json:"letter"`
	Categories  []string `json:"categories"`
	DurationMs  int64    `json:"duration_ms"`
	RemainingMs int64    `json:"remaining_ms"`
}

// RoomSnapshot is the full resync sent to a (re)joining client. The
// remaining time is always recomputed from the round's absolute start,
// never the configured duration.
type RoomSnapshot struct {
	RoomId       string         `json:"room_id"`
	Name         string         `json:"name"`
	Started      bool           `json:"started"`
	Members      []MemberInfo   `json:"members"`
	CurrentRound *RoundSnapshot `json:"current_round,omitempty"`
}

type PlayerEvent struct {
	Id       string `json:"id"`
	Username string `json:"username"`
}

type RoundReadyEvent struct {
	RoundId    string   `json:"round_id"`
	Ordinal    int      `json:"ordinal"`
	Letter     string   `json:"letter"`
	Categories []string `json:"categories"`
}

type RoundStartedEvent struct {
	RoundId     string `json:"round_id"`
	DurationMs  int64  `json:"duration_ms"`
	RemainingMs int64  `json:"remaining_ms"`
}

type RoundTickEvent struct {
	RoundId     string `json:"round_id"`
	RemainingMs int64  `json:"remaining_ms"`
}

type RoundClosingEvent struct {
	RoundId string `json:"round_id"`
}

type RoundClosedEvent struct {
	RoundId string                              `json:"round_id"`
	Results map[string]map[string]CategoryScore `json:"results"`
	Totals  map[string]int                      `json:"totals"`
}

type MatchEndedEvent struct {
	Totals  map[string]int `json:"totals"`
	Winners []string       `json:"winners"`
}

type ErrorEvent struct {
	Code string `json:"code"`
}

func marshalPacket(p ServerPacket) []byte {
	data, err := json.Marshal(p)
	if err != nil {
		slog.Error("Failed to marshal server packet", "type", p.Type, "error", err.Error())
		return nil
	}
	return data
}

func makePacketPlayerJoined(id, username string) []byte {
	return marshalPacket(ServerPacket{Type: serverPlayerJoined, PlayerJoined: &PlayerEvent{Id: id, Username: username}})
}

func makePacketPlayerLeft(id, username string) []byte {
	return marshalPacket(ServerPacket{Type: serverPlayerLeft, PlayerLeft: &PlayerEvent{Id: id, Username: username}})
}

func makePacketRoundReady(roundId string, ordinal int, letter string, categories []string) []byte {
	return marshalPacket(ServerPacket{Type: serverRoundReady, RoundReady: &RoundReadyEvent{
		RoundId: roundId, Ordinal: ordinal, Letter: letter, Categories: categories,
	}})
}

func makePacketRoundStarted(roundId string, duration, remaining time.Duration) []byte {
	return marshalPacket(ServerPacket{Type: serverRoundStarted, RoundStarted: &RoundStartedEvent{
		RoundId: roundId, DurationMs: duration.Milliseconds(), RemainingMs: remaining.Milliseconds(),
	}})
}

func makePacketRoundTick(roundId string, remaining time.Duration) []byte {
	return marshalPacket(ServerPacket{Type: serverRoundTick, RoundTick: &RoundTickEvent{
		RoundId: roundId, RemainingMs: remaining.Milliseconds(),
	}})
}

func makePacketRoundClosing(roundId string) []byte {
	return marshalPacket(ServerPacket{Type: serverRoundClosing, RoundClosing: &RoundClosingEvent{RoundId: roundId}})
}

func makePacketRoundClosed(roundId string, results map[string]map[string]CategoryScore, totals map[string]int) []byte {
	return marshalPacket(ServerPacket{Type: serverRoundClosed, RoundClosed: &RoundClosedEvent{
		RoundId: roundId, Results: results, Totals: totals,
	}})
}

func makePacketMatchEnded(totals map[string]int, winners []string) []byte {
	return marshalPacket(ServerPacket{Type: serverMatchEnded, MatchEnded: &MatchEndedEvent{Totals: totals, Winners: winners}})
}

func makePacketError(code string) []byte {
	return marshalPacket(ServerPacket{Type: serverError, Error: &ErrorEvent{Code: code}})
}

package game

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"stopgame/domain"
)

// --- NetworkSession ---

type MockNetworkSession struct {
	mock.Mock
}

func (m *MockNetworkSession) Close(errCode string) {
	m.Called(errCode)
}

func (m *MockNetworkSession) Write(data []byte) error {
	args := m.Called(data)
	return args.Error(0)
}

func (m *MockNetworkSession) Read() ([]byte, error) {
	args := m.Called()
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockNetworkSession) Ping() error {
	args := m.Called()
	return args.Error(0)
}

// --- UserGetter ---

type MockUserGetter struct {
	mock.Mock
}

func (m *MockUserGetter) GetUserById(ctx context.Context, id string) (domain.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.User), args.Error(1)
}

// --- LexiconStore ---

type MockLexiconStore struct {
	mock.Mock
}

func (m *MockLexiconStore) EligibleCategories(ctx context.Context) (map[string][]string, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[string][]string), args.Error(1)
}

func (m *MockLexiconStore) Words(ctx context.Context, letter string, categories []string) (map[string]map[string]struct{}, error) {
	args := m.Called(ctx, letter, categories)
	return args.Get(0).(map[string]map[string]struct{}), args.Error(1)
}

// --- MatchRepo ---

type MockMatchRepo struct {
	mock.Mock
}

func (m *MockMatchRepo) CreateRoom(ctx context.Context, name, creatorId string) (domain.Room, error) {
	args := m.Called(ctx, name, creatorId)
	return args.Get(0).(domain.Room), args.Error(1)
}

func (m *MockMatchRepo) GetRoom(ctx context.Context, id string) (domain.Room, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Room), args.Error(1)
}

func (m *MockMatchRepo) SetRoomStatus(ctx context.Context, id string, from []domain.RoomStatus, to domain.RoomStatus) (bool, error) {
	args := m.Called(ctx, id, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockMatchRepo) AddRoomMember(ctx context.Context, roomId, userId string) error {
	args := m.Called(ctx, roomId, userId)
	return args.Error(0)
}

func (m *MockMatchRepo) RemoveRoomMember(ctx context.Context, roomId, userId string) error {
	args := m.Called(ctx, roomId, userId)
	return args.Error(0)
}

func (m *MockMatchRepo) RoomMembers(ctx context.Context, roomId string) ([]domain.RoomMember, error) {
	args := m.Called(ctx, roomId)
	return args.Get(0).([]domain.RoomMember), args.Error(1)
}

func (m *MockMatchRepo) CreateRounds(ctx context.Context, rounds []domain.Round) error {
	args := m.Called(ctx, rounds)
	return args.Error(0)
}

func (m *MockMatchRepo) RoundsByRoom(ctx context.Context, roomId string) ([]domain.Round, error) {
	args := m.Called(ctx, roomId)
	return args.Get(0).([]domain.Round), args.Error(1)
}

func (m *MockMatchRepo) GetRound(ctx context.Context, id string) (domain.Round, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Round), args.Error(1)
}

func (m *MockMatchRepo) AdvanceRound(ctx context.Context, roundId string, from []domain.RoundStatus, to domain.RoundStatus) (bool, error) {
	args := m.Called(ctx, roundId, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockMatchRepo) ClaimRoundForScoring(ctx context.Context, roundId string) (bool, error) {
	args := m.Called(ctx, roundId)
	return args.Bool(0), args.Error(1)
}

func (m *MockMatchRepo) UpsertAnswer(ctx context.Context, roundId, playerId, category, answer string) error {
	args := m.Called(ctx, roundId, playerId, category, answer)
	return args.Error(0)
}

func (m *MockMatchRepo) EnsurePlaceholders(ctx context.Context, roundId string, playerIds, categories []string) error {
	args := m.Called(ctx, roundId, playerIds, categories)
	return args.Error(0)
}

func (m *MockMatchRepo) ParticipationsByRound(ctx context.Context, roundId string) ([]domain.Participation, error) {
	args := m.Called(ctx, roundId)
	return args.Get(0).([]domain.Participation), args.Error(1)
}

func (m *MockMatchRepo) ParticipantsByRound(ctx context.Context, roundId string) ([]string, error) {
	args := m.Called(ctx, roundId)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockMatchRepo) SavePoints(ctx context.Context, roundId string, scores []domain.Participation) error {
	args := m.Called(ctx, roundId, scores)
	return args.Error(0)
}

func (m *MockMatchRepo) RoomTotals(ctx context.Context, roomId string) (map[string]int, error) {
	args := m.Called(ctx, roomId)
	return args.Get(0).(map[string]int), args.Error(1)
}

// --- PeriodicTickerChannelCreator ---

type MockPeriodicTickerChannelCreator struct {
	mock.Mock
}

func (m *MockPeriodicTickerChannelCreator) Create(duration time.Duration) <-chan time.Time {
	args := m.Called(duration)
	return args.Get(0).(chan time.Time)
}

// --- Player ---

type MockPlayer struct {
	mock.Mock
}

func (m *MockPlayer) Id() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockPlayer) Username() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockPlayer) SetRoom(r *room) {
	m.Called(r)
}

func (m *MockPlayer) Send(data []byte) {
	m.Called(data)
}

func (m *MockPlayer) Ping() {
	m.Called()
}

func (m *MockPlayer) CancelAndRelease(errCode string) {
	m.Called(errCode)
}

// --- Room ---

type MockRoom struct {
	mock.Mock
}

func (m *MockRoom) Id() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockRoom) SetParentLobby(l Lobby) {
	m.Called(l)
}

func (m *MockRoom) Description() roomDescription {
	args := m.Called()
	return args.Get(0).(roomDescription)
}

func (m *MockRoom) GameLoop() {
	m.Called()
}

func (m *MockRoom) Tick(now time.Time) {
	m.Called(now)
}

func (m *MockRoom) PingPlayers() {
	m.Called()
}

func (m *MockRoom) RequestJoin(jreq roomJoinRequest) {
	m.Called(jreq)
}

func (m *MockRoom) CloseAndRelease() {
	m.Called()
}

// --- Lobby ---

type MockLobby struct {
	mock.Mock
}

func (m *MockLobby) RequestUpdateDescription(desc roomDescription) {
	m.Called(desc)
}

func (m *MockLobby) RemoveRoom(roomId string) {
	m.Called(roomId)
}

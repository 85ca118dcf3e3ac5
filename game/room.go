package game

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"stopgame/domain"
)

const maxRoomMembers = 2

const dbTimeout = time.Second * 5

type roomDescription struct {
	id           string
	name         string
	private      bool
	playersCount int
	maxPlayers   int
	started      bool
}

type roomJoinRequest struct {
	roomId  string
	player  Player
	errChan chan error
}

func newRoomJoinRequest(roomId string, player Player) roomJoinRequest {
	return roomJoinRequest{roomId: roomId, player: player, errChan: make(chan error, 1)}
}

type clientPacketEnvelope struct {
	packet ClientPacket
	from   Player
}

// room is an actor: GameLoop owns every mutable field, all outside
// interaction goes through channels. Authority on round/room status
// stays with the repo's conditional updates; the fields here are a
// mirror for driving the timer and the broadcasts.
type room struct {
	id        string
	name      string
	creatorId string
	private   bool
	started   bool
	finished  bool

	players []Player
	members map[string]string // user id -> username, mirrors room_members

	rounds     []domain.Round
	currentIdx int
	timer      roundTimer
	effects    []Effect

	repo        MatchRepo
	generator   *Generator
	scorer      *Scorer
	parentLobby Lobby
	now         func() time.Time

	inbox                 chan clientPacketEnvelope
	ticks                 chan time.Time
	pings                 chan struct{}
	playerRemovalRequests chan Player
	joinRequests          chan roomJoinRequest
	done                  chan struct{}
	closeOnce             sync.Once
}

func NewRoom(roomRow domain.Room, private bool, creator Player, repo MatchRepo, generator *Generator, scorer *Scorer) *room {
	r := &room{
		id:                    roomRow.Id,
		name:                  roomRow.Name,
		creatorId:             roomRow.CreatorId,
		private:               private,
		members:               map[string]string{creator.Id(): creator.Username()},
		players:               make([]Player, 0, maxRoomMembers),
		currentIdx:            -1,
		repo:                  repo,
		generator:             generator,
		scorer:                scorer,
		now:                   time.Now,
		inbox:                 make(chan clientPacketEnvelope, 1024),
		ticks:                 make(chan time.Time, 24),
		pings:                 make(chan struct{}, 1),
		playerRemovalRequests: make(chan Player, 64),
		joinRequests:          make(chan roomJoinRequest, 8),
		done:                  make(chan struct{}),
	}
	r.players = append(r.players, creator)
	creator.SetRoom(r)
	return r
}

func (r *room) Id() string { return r.id }

func (r *room) SetParentLobby(l Lobby) { r.parentLobby = l }

func (r *room) Description() roomDescription {
	return roomDescription{
		id:           r.id,
		name:         r.name,
		private:      r.private,
		playersCount: len(r.players),
		maxPlayers:   maxRoomMembers,
		started:      r.started,
	}
}

// Tick is lossy on purpose; a missed tick only delays a broadcast by one
// second and clients recompute remaining time from the snapshot anyway.
func (r *room) Tick(now time.Time) {
	select {
	case r.ticks <- now:
	default:
	}
}

func (r *room) PingPlayers() {
	select {
	case r.pings <- struct{}{}:
	default:
	}
}

func (r *room) RequestJoin(jreq roomJoinRequest) {
	select {
	case r.joinRequests <- jreq:
	default:
		jreq.errChan <- ErrRoomBusy
	}
}

func (r *room) RequestRemovePlayer(p Player) {
	select {
	case r.playerRemovalRequests <- p:
	default:
	}
}

func (r *room) CloseAndRelease() {
	r.closeOnce.Do(func() {
		close(r.done)
	})
}

func (r *room) GameLoop() {
	for {
		select {
		case <-r.done:
			for _, p := range r.players {
				p.CancelAndRelease("room-closed")
			}
			r.players = nil
			return
		case now := <-r.ticks:
			r.handleTick(now)
		case <-r.pings:
			for _, p := range r.players {
				p.Ping()
			}
		case env := <-r.inbox:
			r.handlePacket(env)
		case jreq := <-r.joinRequests:
			r.handleJoinRequest(jreq)
		case p := <-r.playerRemovalRequests:
			r.handleRemovePlayer(p)
		}
	}
}

func (r *room) handleTick(now time.Time) {
	round := r.currentRound()
	if round == nil || round.Status != domain.RoundInProgress {
		return
	}

	if r.timer.Expired(now) {
		r.closeCurrentRound()
		return
	}

	r.broadcast(makePacketRoundTick(round.Id, r.timer.Remaining(now)))
}

func (r *room) handlePacket(env clientPacketEnvelope) {
	switch env.packet.Type {
	case clientStartMatch:
		r.handleStartMatch(env.from, env.packet.StartMatch)
	case clientStopRound:
		r.handleStopRound(env.packet.StopRound)
	case clientUsePower:
		r.handleUsePower(env.from, env.packet.UsePower)
	case clientLeave:
		r.handleRemovePlayer(env.from)
	}
}

func (r *room) handleJoinRequest(jreq roomJoinRequest) {
	p := jreq.player

	_, isMember := r.members[p.Id()]

	if existing := r.playerById(p.Id()); existing != nil {
		// reconnect: the fresh session replaces the stale one
		r.dropConn(existing)
		existing.CancelAndRelease("reconnected")
	} else if !isMember {
		if r.started {
			jreq.errChan <- ErrMatchInProgress
			return
		}
		if len(r.members) >= maxRoomMembers {
			jreq.errChan <- domain.ErrRoomFull
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
		err := r.repo.AddRoomMember(ctx, r.id, p.Id())
		cancel()
		if err != nil {
			jreq.errChan <- err
			return
		}
		r.members[p.Id()] = p.Username()
	}

	r.players = append(r.players, p)
	p.SetRoom(r)
	jreq.errChan <- nil

	r.broadcastExcept(p, makePacketPlayerJoined(p.Id(), p.Username()))
	p.Send(r.snapshotPacket(r.now()))
	r.updateDescription()
}

func (r *room) handleRemovePlayer(p Player) {
	if !r.dropConn(p) {
		return
	}
	p.CancelAndRelease("")
	r.broadcast(makePacketPlayerLeft(p.Id(), p.Username()))

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	if !r.started {
		delete(r.members, p.Id())
		if err := r.repo.RemoveRoomMember(ctx, r.id, p.Id()); err != nil {
			slog.Error("Failed to remove room member", "room", r.id, "player", p.Id(), "error", err.Error())
		}
		if p.Id() == r.creatorId {
			if _, err := r.repo.SetRoomStatus(ctx, r.id,
				[]domain.RoomStatus{domain.RoomWaiting}, domain.RoomAbandoned); err != nil {
				slog.Error("Failed to abandon room", "room", r.id, "error", err.Error())
			}
			r.finished = true
			r.parentLobby.RemoveRoom(r.id)
			return
		}
	}

	// membership survives mid-match disconnects so scores keep counting;
	// the room itself lingers for reconnects until the match ends
	if len(r.players) == 0 && (r.finished || !r.started) {
		r.parentLobby.RemoveRoom(r.id)
		return
	}
	r.updateDescription()
}

func (r *room) handleStartMatch(from Player, req *StartMatchRequest) {
	if r.finished {
		return
	}
	if r.started {
		// duplicate trigger, resync the caller instead of restarting
		from.Send(r.snapshotPacket(r.now()))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	// reuse existing rounds so a resumed match keeps its content
	existing, err := r.repo.RoundsByRoom(ctx, r.id)
	if err != nil {
		slog.Error("Failed to load rounds", "room", r.id, "error", err.Error())
		from.Send(makePacketError("start-failed"))
		return
	}

	if !hasPending(existing) {
		if len(r.members) != maxRoomMembers {
			from.Send(makePacketError(domain.ErrNeedTwoPlayers.Error()))
			return
		}

		count := 5
		duration := time.Second * 60
		if req != nil {
			if req.Rounds > 0 {
				count = req.Rounds
			}
			if req.DurationSecs > 0 {
				duration = time.Duration(req.DurationSecs) * time.Second
			}
		}

		generated, genErr := r.generator.Generate(ctx, r.id, count, duration)
		if genErr != nil {
			if errors.Is(genErr, domain.ErrNotEnoughLetters) {
				from.Send(makePacketError(domain.ErrNotEnoughLetters.Error()))
			} else {
				slog.Error("Round generation failed", "room", r.id, "error", genErr.Error())
				from.Send(makePacketError("start-failed"))
			}
			return
		}
		if err := r.repo.CreateRounds(ctx, generated); err != nil {
			slog.Error("Failed to persist rounds", "room", r.id, "error", err.Error())
			from.Send(makePacketError("start-failed"))
			return
		}
		existing = generated
	}

	if _, err := r.repo.SetRoomStatus(ctx, r.id,
		[]domain.RoomStatus{domain.RoomWaiting}, domain.RoomInProgress); err != nil {
		slog.Error("Failed to mark room in progress", "room", r.id, "error", err.Error())
		from.Send(makePacketError("start-failed"))
		return
	}

	r.rounds = existing
	r.started = true
	r.updateDescription()

	idx := firstStartableIndex(r.rounds)
	if idx < 0 {
		// resumed into a finished (or stuck) match
		totals, totErr := r.repo.RoomTotals(ctx, r.id)
		if totErr != nil {
			slog.Error("Failed to load totals", "room", r.id, "error", totErr.Error())
			from.Send(makePacketError("start-failed"))
			return
		}
		r.finishMatch(ctx, totals)
		return
	}
	r.startRound(ctx, idx)
}

func (r *room) handleStopRound(req *StopRoundRequest) {
	round := r.currentRound()
	if round == nil || req == nil || req.RoundId != round.Id {
		return
	}
	r.closeCurrentRound()
}

func (r *room) handleUsePower(from Player, req *UsePowerRequest) {
	round := r.currentRound()
	if round == nil || req == nil || req.RoundId != round.Id {
		return
	}
	if round.Status != domain.RoundInProgress || !round.HasCategory(req.Category) {
		return
	}
	kind, ok := effectKind(req.Kind)
	if !ok {
		return
	}
	r.effects = append(r.effects, Effect{PlayerId: from.Id(), Category: req.Category, Kind: kind})
}

func (r *room) startRound(ctx context.Context, idx int) {
	if idx < 0 || idx >= len(r.rounds) {
		return
	}
	round := &r.rounds[idx]

	if round.Status == domain.RoundReady {
		if _, err := r.repo.AdvanceRound(ctx, round.Id,
			[]domain.RoundStatus{domain.RoundReady}, domain.RoundInProgress); err != nil {
			slog.Error("Failed to advance round", "round", round.Id, "error", err.Error())
			r.broadcast(makePacketError("round-start-failed"))
			return
		}
		round.Status = domain.RoundInProgress
	}

	r.currentIdx = idx
	r.timer = newRoundTimer(r.now(), round.Duration)
	r.effects = nil

	r.broadcast(makePacketRoundReady(round.Id, round.Ordinal, round.Letter, round.Categories))
	r.broadcast(makePacketRoundStarted(round.Id, round.Duration, r.timer.Remaining(r.now())))
}

// closeCurrentRound is reached by timer expiry and by any player's stop
// signal; both funnel into the scorer's exclusive claim so at most one
// close takes effect no matter how the race goes.
func (r *room) closeCurrentRound() {
	round := r.currentRound()
	if round == nil || round.Status == domain.RoundDone {
		return
	}

	r.broadcast(makePacketRoundClosing(round.Id))

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout*2)
	defer cancel()

	result, err := r.scorer.CloseRound(ctx, r.id, round.Id, r.effects)
	if err != nil {
		if result.Claimed {
			// the round stays in scoring: stuck but never double-awarded
			round.Status = domain.RoundScoring
			slog.Error("Round close failed after claim, round left in scoring",
				"room", r.id, "round", round.Id, "error", err.Error())
		} else {
			// pre-claim blip: leave the mirror alone so the next tick or
			// stop signal retries the close
			slog.Error("Round close failed before claim",
				"room", r.id, "round", round.Id, "error", err.Error())
		}
		r.broadcast(makePacketError("round-close-failed"))
		return
	}

	round.Status = domain.RoundDone
	r.effects = nil

	if !result.AlreadyClosed {
		r.broadcast(makePacketRoundClosed(round.Id, result.Results, result.Totals))
	}

	if next := firstStartableIndex(r.rounds); next >= 0 {
		r.startRound(ctx, next)
		return
	}
	r.finishMatch(ctx, result.Totals)
}

func (r *room) finishMatch(ctx context.Context, totals map[string]int) {
	if _, err := r.repo.SetRoomStatus(ctx, r.id,
		[]domain.RoomStatus{domain.RoomInProgress}, domain.RoomDone); err != nil {
		slog.Error("Failed to mark room done", "room", r.id, "error", err.Error())
	}
	r.finished = true
	r.broadcast(makePacketMatchEnded(totals, Winners(totals)))
	r.parentLobby.RemoveRoom(r.id)
}

func (r *room) snapshotPacket(now time.Time) []byte {
	snapshot := &RoomSnapshot{
		RoomId:  r.id,
		Name:    r.name,
		Started: r.started,
		Members: make([]MemberInfo, 0, len(r.members)),
	}
	for id, username := range r.members {
		snapshot.Members = append(snapshot.Members, MemberInfo{Id: id, Username: username})
	}

	if round := r.currentRound(); round != nil && round.Status == domain.RoundInProgress {
		snapshot.CurrentRound = &RoundSnapshot{
			RoundId:     round.Id,
			Ordinal:     round.Ordinal,
			Letter:      round.Letter,
			Categories:  round.Categories,
			DurationMs:  round.Duration.Milliseconds(),
			RemainingMs: r.timer.Remaining(now).Milliseconds(),
		}
	}

	return marshalPacket(ServerPacket{Type: serverRoomSnapshot, RoomSnapshot: snapshot})
}

func (r *room) currentRound() *domain.Round {
	if r.currentIdx < 0 || r.currentIdx >= len(r.rounds) {
		return nil
	}
	return &r.rounds[r.currentIdx]
}

func (r *room) playerById(id string) Player {
	for _, p := range r.players {
		if p.Id() == id {
			return p
		}
	}
	return nil
}

func (r *room) dropConn(p Player) bool {
	for i, other := range r.players {
		if other == p {
			r.players = append(r.players[:i], r.players[i+1:]...)
			return true
		}
	}
	return false
}

func (r *room) broadcast(data []byte) {
	for _, p := range r.players {
		p.Send(data)
	}
}

func (r *room) broadcastExcept(skip Player, data []byte) {
	for _, p := range r.players {
		if p == skip {
			continue
		}
		p.Send(data)
	}
}

func (r *room) updateDescription() {
	r.parentLobby.RequestUpdateDescription(r.Description())
}

func hasPending(rounds []domain.Round) bool {
	for _, round := range rounds {
		if round.Status != domain.RoundDone {
			return true
		}
	}
	return false
}

// firstStartableIndex skips done rounds and also rounds stuck in
// scoring; those need an operator, not a fresh timer.
func firstStartableIndex(rounds []domain.Round) int {
	for i, round := range rounds {
		if round.Status == domain.RoundReady || round.Status == domain.RoundInProgress {
			return i
		}
	}
	return -1
}

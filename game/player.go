package game

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"stopgame/domain"
)

const submitTimeout = time.Second * 5

type wsPlayer struct {
	id        string
	username  string
	limiter   *rate.Limiter
	socket    NetworkSession
	intake    *Intake
	inbox     chan []byte
	pingChan  chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	room      *room
}

func NewPlayer(id, username string, socket NetworkSession, intake *Intake) *wsPlayer {
	return &wsPlayer{
		id:       id,
		username: username,
		limiter:  rate.NewLimiter(4, 12),
		socket:   socket,
		intake:   intake,
		inbox:    make(chan []byte, 256),
		pingChan: make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

func (p *wsPlayer) Id() string       { return p.id }
func (p *wsPlayer) Username() string { return p.username }

// SetRoom runs before the pumps start (room construction or join
// handling), never afterwards; reconnects get a fresh player.
func (p *wsPlayer) SetRoom(r *room) { p.room = r }

// Send enqueues without blocking; a slow consumer drops packets and
// resynchronizes from the next room snapshot. The inbox is never closed:
// the room actor and the read pump both call Send while the other side
// may be releasing the player, so shutdown is signalled through done
// instead.
func (p *wsPlayer) Send(data []byte) {
	if data == nil {
		return
	}
	select {
	case <-p.done:
	case p.inbox <- data:
	default:
	}
}

func (p *wsPlayer) Ping() {
	select {
	case <-p.done:
	case p.pingChan <- struct{}{}:
	default:
	}
}

func (p *wsPlayer) CancelAndRelease(errCode string) {
	p.closeOnce.Do(func() {
		p.socket.Close(errCode)
		close(p.done)
	})
}

// ReadPump parses inbound packets. Answer submissions go straight to the
// intake service so submissions from different players never serialize
// behind the room actor; everything else is control flow and funnels
// through the room's inbox.
func (p *wsPlayer) ReadPump() {
	defer p.room.RequestRemovePlayer(p)

	for {
		data, err := p.socket.Read()
		if err != nil {
			break
		}

		if !p.limiter.Allow() {
			continue
		}

		var packet ClientPacket
		if err := json.Unmarshal(data, &packet); err != nil {
			continue
		}

		if packet.Type == clientSubmitAnswer {
			if packet.SubmitAnswer == nil {
				continue
			}
			p.submit(packet.SubmitAnswer)
			continue
		}

		select {
		case p.room.inbox <- clientPacketEnvelope{packet: packet, from: p}:
		case <-p.room.done:
			return
		}
	}
}

func (p *wsPlayer) submit(req *SubmitAnswerRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
	defer cancel()

	err := p.intake.Submit(ctx, p.id, req.RoundId, req.Category, req.Text)
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, domain.ErrRoundClosed):
		// soft outcome, tell the client to stop retrying
		p.Send(makePacketError("round-closed"))
	case errors.Is(err, domain.ErrInvalidCategory):
		p.Send(makePacketError("invalid-category"))
	case errors.Is(err, domain.ErrRoundNotFound):
		p.Send(makePacketError("round-not-found"))
	default:
		// persistence hiccup: submissions are fire-and-forget retryable
		p.Send(makePacketError("submit-failed"))
	}
}

func (p *wsPlayer) WritePump() {
	for {
		select {
		case <-p.done:
			return
		case data := <-p.inbox:
			if err := p.socket.Write(data); err != nil {
				return
			}
		case <-p.pingChan:
			if err := p.socket.Ping(); err != nil {
				return
			}
		}
	}
}

package game

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"stopgame/domain"
)

const joinReplyTimeout = time.Second * 5

type GameHandler struct {
	lobby      *lobby
	userGetter UserGetter
	repo       MatchRepo
	generator  *Generator
	scorer     *Scorer
	intake     *Intake
}

func NewGameHandler(lobby *lobby, userGetter UserGetter, repo MatchRepo, lexicon LexiconStore) *GameHandler {
	return &GameHandler{
		lobby:      lobby,
		userGetter: userGetter,
		repo:       repo,
		generator:  NewGenerator(lexicon, nil),
		scorer:     NewScorer(repo, lexicon),
		intake:     NewIntake(repo),
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func (h *GameHandler) CreateGameHandler(ctx *gin.Context) {
	id := ctx.GetString("id")

	if id == "" {
		slog.Error("Unexpected error, id not found. What is the middleware doing?",
			"ip", ctx.ClientIP(),
			"user_agent", ctx.Request.UserAgent(),
		)
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "unknown-error"})
		return
	}

	reqCtx := ctx.Request.Context()

	user, err := h.userGetter.GetUserById(reqCtx, id)
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "unknown-error"})
		return
	}

	name := ctx.Query("name")
	if name == "" {
		name = user.Username + "'s room"
	}
	private := ctx.Query("private") == "true"

	roomRow, err := h.repo.CreateRoom(reqCtx, name, id)
	if err != nil {
		slog.Error("Failed to create room", "creator", id, "error", err.Error())
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "unknown-error"})
		return
	}
	if err := h.repo.AddRoomMember(reqCtx, roomRow.Id, id); err != nil {
		slog.Error("Failed to add creator to room", "room", roomRow.Id, "error", err.Error())
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "unknown-error"})
		return
	}

	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		slog.Error("WS upgrade failed", "ip", ctx.ClientIP(), "error", err.Error())
		return
	}

	socketConn := NewWebsocketConnection(conn)
	player := NewPlayer(id, user.Username, &socketConn, h.intake)
	room := NewRoom(roomRow, private, player, h.repo, h.generator, h.scorer)

	h.lobby.RequestAddAndRunRoom(reqCtx, room)

	go player.WritePump()
	go player.ReadPump()
}

func (h *GameHandler) JoinGameHandler(ctx *gin.Context) {
	id := ctx.GetString("id")
	if id == "" {
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "unknown-error"})
		return
	}

	roomId := ctx.Param("roomid")
	reqCtx := ctx.Request.Context()

	user, err := h.userGetter.GetUserById(reqCtx, id)
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "unknown-error"})
		return
	}

	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		slog.Error("WS upgrade failed", "ip", ctx.ClientIP(), "error", err.Error())
		return
	}

	socketConn := NewWebsocketConnection(conn)
	player := NewPlayer(id, user.Username, &socketConn, h.intake)

	jreq := newRoomJoinRequest(roomId, player)
	h.lobby.ForwardPlayerJoinRequestToRoom(reqCtx, jreq)

	select {
	case err := <-jreq.errChan:
		if err != nil {
			socketConn.Close(errCodeFor(err))
			return
		}
	case <-time.After(joinReplyTimeout):
		socketConn.Close("join-timeout")
		return
	}

	go player.WritePump()
	go player.ReadPump()
}

func (h *GameHandler) GetPublicGamesHandler(ctx *gin.Context) {
	descriptions := h.lobby.GetPublicGames(ctx.Request.Context())

	games := make([]gin.H, 0, len(descriptions))
	for _, desc := range descriptions {
		games = append(games, gin.H{
			"id":          desc.id,
			"name":        desc.name,
			"players":     desc.playersCount,
			"max_players": desc.maxPlayers,
			"started":     desc.started,
		})
	}
	ctx.JSON(http.StatusOK, gin.H{"games": games})
}

// errCodeFor maps domain errors to the short codes sent to clients.
func errCodeFor(err error) string {
	switch err {
	case domain.ErrRoomNotFound:
		return "room-not-found"
	case domain.ErrRoomFull:
		return "room-full"
	case ErrMatchInProgress:
		return "match-in-progress"
	case ErrRoomBusy:
		return "room-busy"
	}
	return "unknown-error"
}

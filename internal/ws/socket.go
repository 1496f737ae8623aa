// Package ws is the realtime event layer: it owns the socket.io
// server, tracks which connection belongs to which game and player,
// and fans full game snapshots out to every subscriber after each
// mutation.
package ws

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	socketio "github.com/googollee/go-socket.io"
	"github.com/rs/zerolog/log"

	"quizboard/internal/config"
	"quizboard/internal/game"
)

// ConnCtx ties a live connection to the game and player it represents.
// PlayerID stays empty for moderator/board connections that subscribe
// without joining as a player.
type ConnCtx struct {
	GameID   string
	PlayerID string
}

type Server struct {
	mgr    *game.Manager
	config config.Config

	mu      sync.Mutex
	members map[string]map[string]socketio.Conn // gameID -> socketID -> Conn
}

func New(mgr *game.Manager, cfg config.Config) *Server {
	return &Server{
		mgr:     mgr,
		config:  cfg,
		members: make(map[string]map[string]socketio.Conn),
	}
}

// GameUpdated implements game.Broadcaster. It runs inside the game's
// critical section, so snapshots go out in mutation order; Emit only
// enqueues onto each connection's send queue and never blocks here.
func (srv *Server) GameUpdated(g *game.Game) {
	srv.emitToGame(g.ID, "game-update", g)
}

// QueueUpdated implements game.Broadcaster.
func (srv *Server) QueueUpdated(gameID string, queue []*game.BuzzerEvent) {
	srv.emitToGame(gameID, "buzzer-queue", queue)
}

func (srv *Server) emitToGame(gameID, event string, payload any) {
	srv.mu.Lock()
	conns := make([]socketio.Conn, 0, len(srv.members[gameID]))
	for _, c := range srv.members[gameID] {
		conns = append(conns, c)
	}
	srv.mu.Unlock()
	for _, c := range conns {
		c.Emit(event, payload)
	}
}

// Mount attaches the socket.io server with all game event handlers to
// the given gin engine.
func (srv *Server) Mount(r *gin.Engine) *socketio.Server {
	io := socketio.NewServer(nil)

	io.OnConnect("/", func(s socketio.Conn) error {
		s.SetContext(&ConnCtx{})
		// Connections arriving with a gameId query subscribe to that
		// game's room immediately and get the current snapshot.
		u := s.URL()
		if gameID := u.Query().Get("gameId"); gameID != "" {
			if g, err := srv.mgr.Game(gameID); err == nil {
				ctx := &ConnCtx{GameID: gameID}
				s.SetContext(ctx)
				s.Join(gameID)
				srv.addMember(gameID, s)
				s.Emit("game-update", g)
			}
		}
		log.Info().Str("sid", s.ID()).Msg("socket connected")
		return nil
	})

	io.OnEvent("/", "join-game", func(s socketio.Conn, payload struct {
		GameID     string `json:"gameId"`
		PlayerName string `json:"playerName"`
	}) {
		srv.handleJoin(s, payload.GameID, payload.PlayerName)
	})

	io.OnEvent("/", "buzz", func(s socketio.Conn, payload struct {
		GameID    string `json:"gameId"`
		Timestamp int64  `json:"timestamp"`
	}) {
		ctx, _ := s.Context().(*ConnCtx)
		if ctx == nil || ctx.PlayerID == "" {
			return
		}
		if _, err := srv.mgr.Buzz(payload.GameID, ctx.PlayerID, payload.Timestamp); err != nil {
			// Duplicate or late buzzes are expected races, not errors.
			srv.ignore(err, "buzz", payload.GameID)
			return
		}
		log.Info().Str("gameId", payload.GameID).Str("playerId", ctx.PlayerID).Int64("ts", payload.Timestamp).Msg("buzz")
	})

	io.OnEvent("/", "select-question", func(s socketio.Conn, payload struct {
		GameID     string `json:"gameId"`
		CategoryID string `json:"categoryId"`
		QuestionID string `json:"questionId"`
	}) {
		if _, err := srv.mgr.SelectQuestion(payload.GameID, payload.CategoryID, payload.QuestionID); err != nil {
			srv.ignore(err, "select-question", payload.GameID)
			return
		}
		log.Info().Str("gameId", payload.GameID).Str("questionId", payload.QuestionID).Msg("select-question")
	})

	io.OnEvent("/", "activate-buzzer", func(s socketio.Conn, payload struct {
		GameID string `json:"gameId"`
	}) {
		if _, err := srv.mgr.ActivateBuzzer(payload.GameID); err != nil {
			srv.ignore(err, "activate-buzzer", payload.GameID)
		}
	})

	io.OnEvent("/", "deactivate-buzzer", func(s socketio.Conn, payload struct {
		GameID string `json:"gameId"`
	}) {
		if _, err := srv.mgr.DeactivateBuzzer(payload.GameID); err != nil {
			srv.ignore(err, "deactivate-buzzer", payload.GameID)
		}
	})

	io.OnEvent("/", "answer-correct", func(s socketio.Conn, payload struct {
		GameID   string `json:"gameId"`
		PlayerID string `json:"playerId"`
	}) {
		if _, err := srv.mgr.JudgeCorrect(payload.GameID, payload.PlayerID); err != nil {
			srv.ignore(err, "answer-correct", payload.GameID)
			return
		}
		log.Info().Str("gameId", payload.GameID).Str("playerId", payload.PlayerID).Msg("answer-correct")
	})

	io.OnEvent("/", "answer-wrong", func(s socketio.Conn, payload struct {
		GameID   string `json:"gameId"`
		PlayerID string `json:"playerId"`
	}) {
		if _, err := srv.mgr.JudgeWrong(payload.GameID, payload.PlayerID); err != nil {
			srv.ignore(err, "answer-wrong", payload.GameID)
			return
		}
		log.Info().Str("gameId", payload.GameID).Str("playerId", payload.PlayerID).Msg("answer-wrong")
	})

	io.OnEvent("/", "skip-question", func(s socketio.Conn, payload struct {
		GameID string `json:"gameId"`
	}) {
		if _, err := srv.mgr.SkipQuestion(payload.GameID); err != nil {
			srv.ignore(err, "skip-question", payload.GameID)
			return
		}
		log.Info().Str("gameId", payload.GameID).Msg("skip-question")
	})

	io.OnEvent("/", "end-game", func(s socketio.Conn, payload struct {
		GameID string `json:"gameId"`
	}) {
		snap, err := srv.mgr.EndGame(payload.GameID)
		if err != nil {
			srv.ignore(err, "end-game", payload.GameID)
			return
		}
		log.Info().Str("gameId", payload.GameID).Msg("end-game")
		if srv.config.ExportEnabled {
			if err := game.ExportResults(snap, srv.config.ExportFile); err != nil {
				log.Error().Err(err).Str("gameId", payload.GameID).Msg("failed to export results")
			}
		}
	})

	io.OnEvent("/", "reset-game", func(s socketio.Conn, payload struct {
		GameID string `json:"gameId"`
	}) {
		if _, err := srv.mgr.ResetGame(payload.GameID); err != nil {
			srv.ignore(err, "reset-game", payload.GameID)
			return
		}
		log.Info().Str("gameId", payload.GameID).Msg("reset-game")
	})

	io.OnError("/", func(s socketio.Conn, e error) {
		log.Error().Err(e).Msg("socket error")
	})

	io.OnDisconnect("/", func(s socketio.Conn, reason string) {
		srv.handleDisconnect(s)
		log.Info().Str("sid", s.ID()).Str("reason", reason).Msg("socket disconnected")
	})

	go io.Serve()

	r.GET("/socket.io/*any", gin.WrapH(io))
	r.POST("/socket.io/*any", gin.WrapH(io))
	r.OPTIONS("/socket.io/*any", func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Status(http.StatusNoContent)
	})

	return io
}

func (srv *Server) handleJoin(s socketio.Conn, gameID, playerName string) {
	// A connection can only follow one game at a time. When it was
	// already subscribed elsewhere, release that subscription first so
	// the old game's fanout list does not keep a stale entry.
	if prev, ok := s.Context().(*ConnCtx); ok && prev.GameID != "" && prev.GameID != gameID {
		srv.releaseSubscription(s, prev, "join-game")
	}

	// Subscribe before joining so this connection sees the snapshot
	// its own join produces.
	s.Join(gameID)
	srv.addMember(gameID, s)
	playerID, _, err := srv.mgr.Join(gameID, playerName)
	if err != nil {
		srv.removeMember(gameID, s)
		s.Leave(gameID)
		s.Emit("error", map[string]any{"message": "Game not found"})
		return
	}
	s.SetContext(&ConnCtx{GameID: gameID, PlayerID: playerID})
	s.Emit("player-id", playerID)
	log.Info().Str("sid", s.ID()).Str("gameId", gameID).Str("playerId", playerID).Msg("join-game")
}

func (srv *Server) handleDisconnect(s socketio.Conn) {
	if ctx, ok := s.Context().(*ConnCtx); ok && ctx.GameID != "" {
		srv.releaseSubscription(s, ctx, "disconnect")
	}
}

// releaseSubscription drops a connection's membership in the game its
// context points at and marks the bound player, if any, disconnected.
func (srv *Server) releaseSubscription(s socketio.Conn, ctx *ConnCtx, event string) {
	srv.removeMember(ctx.GameID, s)
	s.Leave(ctx.GameID)
	if ctx.PlayerID != "" {
		if _, err := srv.mgr.Disconnect(ctx.GameID, ctx.PlayerID); err != nil {
			srv.ignore(err, event, ctx.GameID)
		}
	}
}

func (srv *Server) addMember(gameID string, c socketio.Conn) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if srv.members[gameID] == nil {
		srv.members[gameID] = make(map[string]socketio.Conn)
	}
	srv.members[gameID][c.ID()] = c
}

func (srv *Server) removeMember(gameID string, c socketio.Conn) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if m := srv.members[gameID]; m != nil {
		delete(m, c.ID())
	}
}

func (srv *Server) ignore(err error, event, gameID string) {
	if game.Ignorable(err) {
		log.Debug().Err(err).Str("event", event).Str("gameId", gameID).Msg("event dropped")
		return
	}
	log.Warn().Err(err).Str("event", event).Str("gameId", gameID).Msg("event rejected")
}

package game

import (
	"strings"
	"sync"
)

// Store is the durable record store the manager writes behind. The
// in-memory table is authoritative; the store only seeds it at startup
// and absorbs asynchronous snapshots afterwards.
type Store interface {
	PutGame(g *Game) error
	DeleteGame(id string) error
	ListGames() ([]*Game, error)
	PutTemplate(t *Template) error
	DeleteTemplate(id string) error
	ListTemplates() ([]*Template, error)
}

// Broadcaster fans out post-mutation snapshots to a game's
// subscribers. It is invoked inside the per-game critical section, so
// snapshots for one game are always emitted in mutation order;
// implementations must only enqueue, never block.
type Broadcaster interface {
	GameUpdated(g *Game)
	QueueUpdated(gameID string, queue []*BuzzerEvent)
}

type gameCtx struct {
	mu      sync.Mutex
	game    *Game
	persist *persister
}

// Manager owns every live game and template. Cross-game operations run
// in parallel; all mutations to one game are serialized on its mutex.
type Manager struct {
	mu        sync.RWMutex
	games     map[string]*gameCtx
	byCode    map[string]string // upper(access code) -> game id
	templates map[string]*Template

	store Store
	bc    Broadcaster
}

func NewManager(store Store) *Manager {
	return &Manager{
		games:     make(map[string]*gameCtx),
		byCode:    make(map[string]string),
		templates: make(map[string]*Template),
		store:     store,
	}
}

func (m *Manager) SetBroadcaster(bc Broadcaster) { m.bc = bc }

// Load seeds the in-memory table from the durable store.
func (m *Manager) Load() error {
	if m.store == nil {
		return nil
	}
	games, err := m.store.ListGames()
	if err != nil {
		return err
	}
	templates, err := m.store.ListTemplates()
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range games {
		m.games[g.ID] = &gameCtx{game: g, persist: newPersister(m.store)}
		m.byCode[strings.ToUpper(g.AccessCode)] = g.ID
	}
	for _, t := range templates {
		m.templates[t.ID] = t
	}
	return nil
}

func (m *Manager) ctx(gameID string) (*gameCtx, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ctx := m.games[gameID]
	if ctx == nil {
		return nil, ErrGameNotFound
	}
	return ctx, nil
}

// mutate runs fn under the game's mutex, then snapshots, persists and
// broadcasts. A non-nil error from fn leaves state, store and
// subscribers untouched.
func (m *Manager) mutate(gameID string, withQueue bool, fn func(g *Game) error) (*Game, error) {
	ctx, err := m.ctx(gameID)
	if err != nil {
		return nil, err
	}
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	if err := fn(ctx.game); err != nil {
		return nil, err
	}
	snap := ctx.game.Clone()
	ctx.persist.enqueue(snap)
	if m.bc != nil {
		m.bc.GameUpdated(snap)
		if withQueue {
			m.bc.QueueUpdated(snap.ID, snap.BuzzerQueue)
		}
	}
	return snap, nil
}

// CreateGame builds a new lobby-phase game, optionally copying its
// board from a template, and registers it under a fresh access code.
func (m *Manager) CreateGame(name, templateID string, settings *Settings) (*Game, error) {
	var categories []*Category
	if templateID != "" {
		tpl, err := m.GetTemplate(templateID)
		if err != nil {
			return nil, err
		}
		categories = tpl.Categories
	}
	if len(categories) > MaxCategories {
		return nil, ErrTooManyCategories
	}
	s := DefaultSettings()
	if settings != nil {
		s = *settings
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	code := newAccessCode(func(c string) bool {
		_, taken := m.byCode[strings.ToUpper(c)]
		return taken
	})
	g := newGame(name, code, categories, s)
	ctx := &gameCtx{game: g, persist: newPersister(m.store)}
	m.games[g.ID] = ctx
	m.byCode[strings.ToUpper(code)] = g.ID
	ctx.persist.enqueue(g.Clone())
	return g.Clone(), nil
}

// Game returns a snapshot of the identified game.
func (m *Manager) Game(gameID string) (*Game, error) {
	ctx, err := m.ctx(gameID)
	if err != nil {
		return nil, err
	}
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	return ctx.game.Clone(), nil
}

// GameByCode resolves an access code case-insensitively. Finished
// games are not joinable.
func (m *Manager) GameByCode(code string) (*Game, error) {
	m.mu.RLock()
	id, ok := m.byCode[strings.ToUpper(code)]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrGameNotFound
	}
	g, err := m.Game(id)
	if err != nil {
		return nil, err
	}
	if g.Phase == PhaseFinished {
		return nil, ErrGameEnded
	}
	return g, nil
}

// Games lists snapshots of every live game.
func (m *Manager) Games() []*Game {
	m.mu.RLock()
	ctxs := make([]*gameCtx, 0, len(m.games))
	for _, ctx := range m.games {
		ctxs = append(ctxs, ctx)
	}
	m.mu.RUnlock()
	out := make([]*Game, 0, len(ctxs))
	for _, ctx := range ctxs {
		ctx.mu.Lock()
		out = append(out, ctx.game.Clone())
		ctx.mu.Unlock()
	}
	return out
}

// GameUpdate carries the fields an admin edit may replace.
type GameUpdate struct {
	Name       *string     `json:"name"`
	Categories []*Category `json:"categories"`
	Settings   *Settings   `json:"settings"`
}

func (m *Manager) UpdateGame(gameID string, upd GameUpdate) (*Game, error) {
	if len(upd.Categories) > MaxCategories {
		return nil, ErrTooManyCategories
	}
	return m.mutate(gameID, false, func(g *Game) error {
		if upd.Name != nil {
			g.Name = *upd.Name
		}
		if upd.Categories != nil {
			g.Categories = upd.Categories
		}
		if upd.Settings != nil {
			g.Settings = *upd.Settings
		}
		return nil
	})
}

func (m *Manager) DeleteGame(gameID string) error {
	m.mu.Lock()
	ctx := m.games[gameID]
	if ctx == nil {
		m.mu.Unlock()
		return ErrGameNotFound
	}
	delete(m.games, gameID)
	delete(m.byCode, strings.ToUpper(ctx.game.AccessCode))
	m.mu.Unlock()

	ctx.persist.stop()
	if m.store != nil {
		return m.store.DeleteGame(gameID)
	}
	return nil
}

// Join adds a player, or reconnects one: a player with the exact same
// display name is treated as the same person coming back and keeps
// their id and score.
func (m *Manager) Join(gameID, name string) (playerID string, snap *Game, err error) {
	snap, err = m.mutate(gameID, false, func(g *Game) error {
		for _, p := range g.Players {
			if p.Name == name {
				p.Connected = true
				playerID = p.ID
				return nil
			}
		}
		p := newPlayer(name)
		g.Players = append(g.Players, p)
		playerID = p.ID
		return nil
	})
	return playerID, snap, err
}

// Disconnect marks the player as gone but never deletes them, so the
// score survives a reconnect.
func (m *Manager) Disconnect(gameID, playerID string) (*Game, error) {
	return m.mutate(gameID, false, func(g *Game) error {
		p := g.player(playerID)
		if p == nil {
			return ErrPlayerNotFound
		}
		p.Connected = false
		return nil
	})
}

// SelectQuestion puts an unanswered question live and moves the game
// into the question phase. The buzzer starts inactive with an empty
// queue; the moderator arms it separately.
func (m *Manager) SelectQuestion(gameID, categoryID, questionID string) (*Game, error) {
	return m.mutate(gameID, false, func(g *Game) error {
		cat := g.category(categoryID)
		if cat == nil {
			return ErrQuestionNotFound
		}
		var q *Question
		for _, qq := range cat.Questions {
			if qq.ID == questionID {
				q = qq
				break
			}
		}
		if q == nil {
			return ErrQuestionNotFound
		}
		if q.Answered {
			return ErrAnswered
		}
		g.CurrentCategory = cat
		g.CurrentQuestion = q
		g.Phase = PhaseQuestion
		g.BuzzerQueue = []*BuzzerEvent{}
		g.BuzzerActive = false
		return nil
	})
}

func (m *Manager) ActivateBuzzer(gameID string) (*Game, error) {
	return m.mutate(gameID, false, func(g *Game) error {
		g.BuzzerActive = true
		g.BuzzerQueue = []*BuzzerEvent{}
		return nil
	})
}

func (m *Manager) DeactivateBuzzer(gameID string) (*Game, error) {
	return m.mutate(gameID, false, func(g *Game) error {
		g.BuzzerActive = false
		return nil
	})
}

// JudgeCorrect awards the live question's points, retires the
// question and returns the game to the board.
func (m *Manager) JudgeCorrect(gameID, playerID string) (*Game, error) {
	return m.mutate(gameID, false, func(g *Game) error {
		if g.Phase != PhaseQuestion || g.CurrentQuestion == nil {
			return ErrInvalidPhase
		}
		p := g.player(playerID)
		if p == nil {
			return ErrPlayerNotFound
		}
		p.Score += g.CurrentQuestion.Points
		g.markAnswered(g.CurrentQuestion.ID)
		g.clearQuestion()
		return nil
	})
}

// JudgeWrong penalizes the player (when negative scoring is on) and
// drops them from the buzzer queue. The question stays live and the
// phase stays question so the next-ranked player can be judged.
func (m *Manager) JudgeWrong(gameID, playerID string) (*Game, error) {
	return m.mutate(gameID, true, func(g *Game) error {
		if g.Phase != PhaseQuestion || g.CurrentQuestion == nil {
			return ErrInvalidPhase
		}
		p := g.player(playerID)
		if p == nil {
			return ErrPlayerNotFound
		}
		if g.Settings.AllowNegative {
			p.Score -= g.CurrentQuestion.Points
		}
		g.removeFromQueue(playerID)
		return nil
	})
}

// SkipQuestion retires the live question without awarding anyone.
func (m *Manager) SkipQuestion(gameID string) (*Game, error) {
	return m.mutate(gameID, false, func(g *Game) error {
		if g.Phase != PhaseQuestion || g.CurrentQuestion == nil {
			return ErrInvalidPhase
		}
		g.markAnswered(g.CurrentQuestion.ID)
		g.clearQuestion()
		return nil
	})
}

// EndGame is the explicit moderator transition into the terminal
// phase. Finished games reject join-by-code lookups.
func (m *Manager) EndGame(gameID string) (*Game, error) {
	return m.mutate(gameID, false, func(g *Game) error {
		if g.Phase == PhaseQuestion {
			g.clearQuestion()
		}
		g.Phase = PhaseFinished
		return nil
	})
}

// ResetGame rewinds a game to a fresh lobby: scores zeroed, every
// question unanswered, queue empty. The only way an answered flag is
// ever cleared.
func (m *Manager) ResetGame(gameID string) (*Game, error) {
	return m.mutate(gameID, false, func(g *Game) error {
		for _, cat := range g.Categories {
			for _, q := range cat.Questions {
				q.Answered = false
			}
		}
		for _, p := range g.Players {
			p.Score = 0
		}
		g.clearQuestion()
		g.Phase = PhaseLobby
		return nil
	})
}

// Close flushes pending writes for every game.
func (m *Manager) Close() {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, ctx := range m.games {
		ctx.persist.stop()
	}
}

func (g *Game) player(id string) *Player {
	for _, p := range g.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (g *Game) category(id string) *Category {
	for _, c := range g.Categories {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// markAnswered flips the flag by question id across all categories,
// so it sticks even if the board was edited mid-question.
func (g *Game) markAnswered(questionID string) {
	for _, cat := range g.Categories {
		for _, q := range cat.Questions {
			if q.ID == questionID {
				q.Answered = true
			}
		}
	}
}

func (g *Game) clearQuestion() {
	g.Phase = PhasePlaying
	g.CurrentQuestion = nil
	g.CurrentCategory = nil
	g.BuzzerActive = false
	g.BuzzerQueue = []*BuzzerEvent{}
}

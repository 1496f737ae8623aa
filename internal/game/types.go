package game

import (
	"time"
)

type Phase string

const (
	PhaseLobby    Phase = "lobby"
	PhasePlaying  Phase = "playing"
	PhaseQuestion Phase = "question"
	PhaseFinished Phase = "finished"
)

type MediaType string

const (
	MediaImage MediaType = "image"
	MediaAudio MediaType = "audio"
	MediaVideo MediaType = "video"
)

// MediaAttachment points at an uploaded prompt or answer asset.
type MediaAttachment struct {
	Type     MediaType `json:"type"`
	URL      string    `json:"url"`
	Filename string    `json:"filename"`
}

type Question struct {
	ID          string           `json:"id"`
	Prompt      string           `json:"question"`
	Answer      string           `json:"answer"`
	Points      int              `json:"points"`
	Answered    bool             `json:"answered"`
	DailyDouble bool             `json:"dailyDouble,omitempty"`
	Media       *MediaAttachment `json:"media,omitempty"`
	AnswerMedia *MediaAttachment `json:"answerMedia,omitempty"`
}

type Category struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Questions []*Question `json:"questions"`
}

type Player struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Score     int    `json:"score"`
	Connected bool   `json:"connected"`
}

// BuzzerEvent is one entry in a game's buzzer queue. Rank is 1-based
// and recomputed whenever the queue changes.
type BuzzerEvent struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Timestamp  int64  `json:"timestamp"`
	Rank       int    `json:"order"`
}

type Settings struct {
	AllowNegative    bool `json:"allowNegative"`
	BuzzerLockoutMs  int  `json:"buzzerLockoutMs"`
	ShowAnswerToAll  bool `json:"showAnswerToAll"`
	DailyDoubleCount int  `json:"dailyDoubleCount"`
}

func DefaultSettings() Settings {
	return Settings{
		AllowNegative:    true,
		BuzzerLockoutMs:  250,
		ShowAnswerToAll:  true,
		DailyDoubleCount: 1,
	}
}

// Game is the root aggregate. CurrentQuestion is non-nil exactly while
// the phase is PhaseQuestion.
type Game struct {
	ID              string         `json:"id"`
	AccessCode      string         `json:"accessCode"`
	Name            string         `json:"name"`
	Categories      []*Category    `json:"categories"`
	Players         []*Player      `json:"players"`
	CurrentCategory *Category      `json:"currentCategory"`
	CurrentQuestion *Question      `json:"currentQuestion"`
	BuzzerActive    bool           `json:"buzzerActive"`
	BuzzerQueue     []*BuzzerEvent `json:"buzzerQueue"`
	Phase           Phase          `json:"phase"`
	CreatedAt       time.Time      `json:"createdAt"`
	Settings        Settings       `json:"settings"`
}

// Template is a game's board without players or live state, consumed
// only at game-creation time.
type Template struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Categories []*Category `json:"categories"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// MaxCategories bounds a board's width.
const MaxCategories = 6

// PointValues is the canonical point tier for a fresh category column.
var PointValues = []int{100, 200, 300, 400, 500}

func (q *Question) clone() *Question {
	if q == nil {
		return nil
	}
	c := *q
	if q.Media != nil {
		m := *q.Media
		c.Media = &m
	}
	if q.AnswerMedia != nil {
		m := *q.AnswerMedia
		c.AnswerMedia = &m
	}
	return &c
}

func (cat *Category) clone() *Category {
	if cat == nil {
		return nil
	}
	c := &Category{ID: cat.ID, Name: cat.Name, Questions: make([]*Question, 0, len(cat.Questions))}
	for _, q := range cat.Questions {
		c.Questions = append(c.Questions, q.clone())
	}
	return c
}

// Clone deep-copies a game so snapshots handed to persistence and
// broadcast never alias live state.
func (g *Game) Clone() *Game {
	c := *g
	c.Categories = make([]*Category, 0, len(g.Categories))
	for _, cat := range g.Categories {
		c.Categories = append(c.Categories, cat.clone())
	}
	c.Players = make([]*Player, 0, len(g.Players))
	for _, p := range g.Players {
		pc := *p
		c.Players = append(c.Players, &pc)
	}
	c.CurrentCategory = g.CurrentCategory.clone()
	c.CurrentQuestion = g.CurrentQuestion.clone()
	c.BuzzerQueue = cloneQueue(g.BuzzerQueue)
	return &c
}

// Clone deep-copies a template.
func (t *Template) Clone() *Template {
	c := *t
	c.Categories = make([]*Category, 0, len(t.Categories))
	for _, cat := range t.Categories {
		c.Categories = append(c.Categories, cat.clone())
	}
	return &c
}

func cloneQueue(q []*BuzzerEvent) []*BuzzerEvent {
	out := make([]*BuzzerEvent, 0, len(q))
	for _, e := range q {
		ec := *e
		out = append(out, &ec)
	}
	return out
}

package game

import (
	"time"

	"github.com/google/uuid"
)

// NewTemplate builds a reusable board fixture from category data.
// Category and question ids are regenerated so templates never share
// ids with the boards they were saved from.
func NewTemplate(name string, categories []*Category) *Template {
	if name == "" {
		name = "New Template"
	}
	t := &Template{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	t.Categories = instantiateCategories(categories)
	return t
}

// TemplateFromGame captures a game's board without its live state.
func TemplateFromGame(name string, g *Game) *Template {
	if name == "" {
		name = g.Name
	}
	return NewTemplate(name, g.Categories)
}

// newGame builds an empty game in the lobby phase. Categories are
// copied with fresh ids and all answered flags reset.
func newGame(name, accessCode string, categories []*Category, settings Settings) *Game {
	if name == "" {
		name = "New Game"
	}
	return &Game{
		ID:          uuid.NewString(),
		AccessCode:  accessCode,
		Name:        name,
		Categories:  instantiateCategories(categories),
		Players:     []*Player{},
		BuzzerQueue: []*BuzzerEvent{},
		Phase:       PhaseLobby,
		CreatedAt:   time.Now().UTC(),
		Settings:    settings,
	}
}

func newPlayer(name string) *Player {
	return &Player{
		ID:        uuid.NewString(),
		Name:      name,
		Score:     0,
		Connected: true,
	}
}

func instantiateCategories(categories []*Category) []*Category {
	out := make([]*Category, 0, len(categories))
	for _, cat := range categories {
		c := cat.clone()
		c.ID = uuid.NewString()
		for _, q := range c.Questions {
			q.ID = uuid.NewString()
			q.Answered = false
		}
		out = append(out, c)
	}
	return out
}

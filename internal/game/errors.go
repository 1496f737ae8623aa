package game

import "errors"

var (
	ErrGameNotFound      = errors.New("game not found")
	ErrTemplateNotFound  = errors.New("template not found")
	ErrGameEnded         = errors.New("game has ended")
	ErrPlayerNotFound    = errors.New("player not found")
	ErrInvalidPhase      = errors.New("invalid phase for action")
	ErrBuzzerInactive    = errors.New("buzzer not active")
	ErrAlreadyBuzzed     = errors.New("player already buzzed")
	ErrQuestionNotFound  = errors.New("question not found")
	ErrAnswered          = errors.New("question already answered")
	ErrTooManyCategories = errors.New("too many categories")
)

// Ignorable reports whether an event rejection is an expected race
// (slow client vs. fast moderator) that should be swallowed rather
// than surfaced to the user.
func Ignorable(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidPhase),
		errors.Is(err, ErrBuzzerInactive),
		errors.Is(err, ErrAlreadyBuzzed),
		errors.Is(err, ErrAnswered),
		errors.Is(err, ErrQuestionNotFound):
		return true
	}
	return false
}

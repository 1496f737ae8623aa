package game

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// persister absorbs game snapshots and writes them behind. One
// persister per game, one writer goroutine per persister: writes for
// a game are serialized so an older snapshot can never clobber a
// newer one, and only the latest pending snapshot is kept when writes
// fall behind. enqueue never blocks, so it is safe to call while
// holding the game's mutex.
type persister struct {
	store Store

	mu   sync.Mutex
	next *Game

	kick chan struct{}
	quit chan struct{}
	done chan struct{}
	once sync.Once
}

func newPersister(store Store) *persister {
	if store == nil {
		return nil
	}
	p := &persister{
		store: store,
		kick:  make(chan struct{}, 1),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *persister) enqueue(snap *Game) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.next = snap
	p.mu.Unlock()
	select {
	case p.kick <- struct{}{}:
	default:
	}
}

func (p *persister) run() {
	defer close(p.done)
	for {
		select {
		case <-p.kick:
			p.write()
		case <-p.quit:
			p.write()
			return
		}
	}
}

func (p *persister) write() {
	p.mu.Lock()
	snap := p.next
	p.next = nil
	p.mu.Unlock()
	if snap == nil {
		return
	}
	if err := p.store.PutGame(snap); err != nil {
		log.Error().Err(err).Str("gameId", snap.ID).Msg("failed to persist game")
	}
}

// stop flushes the pending snapshot, if any, and waits for the writer
// to exit. Callers can order further durable operations, such as the
// row delete in Manager.DeleteGame, strictly after the last write.
func (p *persister) stop() {
	if p == nil {
		return
	}
	p.once.Do(func() { close(p.quit) })
	<-p.done
}

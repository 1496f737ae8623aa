package game

import "sort"

// Buzz records a player's attempt to answer the live question. The
// queue is ordered by the client-reported timestamp rather than
// server arrival time: arrival order is skewed by network latency,
// while the client clock reflects actual reaction order. A second
// buzz from an already-queued player is an idempotent no-op.
func (m *Manager) Buzz(gameID, playerID string, timestamp int64) (*Game, error) {
	return m.mutate(gameID, true, func(g *Game) error {
		if g.Phase != PhaseQuestion {
			return ErrInvalidPhase
		}
		if !g.BuzzerActive {
			return ErrBuzzerInactive
		}
		p := g.player(playerID)
		if p == nil {
			return ErrPlayerNotFound
		}
		for _, e := range g.BuzzerQueue {
			if e.PlayerID == playerID {
				return ErrAlreadyBuzzed
			}
		}
		g.BuzzerQueue = append(g.BuzzerQueue, &BuzzerEvent{
			PlayerID:   p.ID,
			PlayerName: p.Name,
			Timestamp:  timestamp,
		})
		rankQueue(g.BuzzerQueue)
		return nil
	})
}

// rankQueue sorts ascending by timestamp and reassigns ranks 1..N.
// The sort is stable: equal timestamps keep their insertion order,
// since there is no fairer way to break that tie.
func rankQueue(queue []*BuzzerEvent) {
	sort.SliceStable(queue, func(i, j int) bool {
		return queue[i].Timestamp < queue[j].Timestamp
	})
	for i, e := range queue {
		e.Rank = i + 1
	}
}

func (g *Game) removeFromQueue(playerID string) {
	kept := g.BuzzerQueue[:0]
	for _, e := range g.BuzzerQueue {
		if e.PlayerID != playerID {
			kept = append(kept, e)
		}
	}
	g.BuzzerQueue = kept
	rankQueue(g.BuzzerQueue)
}

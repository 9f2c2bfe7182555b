package game

import "sync"

// Rating accumulates match scores for one player.
type Rating struct {
	mu    sync.Mutex
	score int
	games int
}

// Record adds a finished match with the given final score.
func (r *Rating) Record(score int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.score += score
	r.games++
}

// Value is the average score per game, 0 before the first game.
func (r *Rating) Value() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.games == 0 {
		return 0
	}
	return float64(r.score) / float64(r.games)
}

func (r *Rating) Games() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.games
}

package game

import "github.com/pkg/errors"

// ErrSameCard indicates a duel between a card and itself, which a single deck cannot deal.
var ErrSameCard = errors.New("duel between identical cards")

// ErrMatchAborted indicates the match loop stopped without a result.
var ErrMatchAborted = errors.New("match aborted")

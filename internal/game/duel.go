package game

// Duel resolves two played cards into the score delta of each side.
//
// Same category: the higher rank scores 1. Adjacent categories: the dominating
// one scores 2. Opposite categories: the lower rank loses a point, equal ranks tie.
func Duel(a, b Card) (int, int, error) {
	if a == b {
		return 0, 0, ErrSameCard
	}

	if a.category == b.category {
		if a.rank > b.rank {
			return 1, 0, nil
		}
		return 0, 1, nil
	}

	switch mod(int(a.category)-int(b.category), len(Categories)) {
	case 3:
		return 2, 0, nil
	case 1:
		return 0, 2, nil
	}

	switch {
	case a.rank == b.rank:
		return 0, 0, nil
	case a.rank < b.rank:
		return -1, 0, nil
	default:
		return 0, -1, nil
	}
}

func mod(a, n int) int {
	return ((a % n) + n) % n
}

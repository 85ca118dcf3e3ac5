package game

import (
	"context"
	"fmt"
	"math/rand"
	"slices"
	"sort"
	"time"

	"stopgame/domain"
)

// Generator builds the (letter, category-set) bundle for every round of a
// match. A letter is eligible only when the lexicon backs at least
// CategoriesPerRound of its categories, so every generated round is
// guaranteed answerable.
type Generator struct {
	lexicon LexiconStore
	rng     *rand.Rand
}

func NewGenerator(lexicon LexiconStore, rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{lexicon: lexicon, rng: rng}
}

// Generate produces count rounds for the room, letters distinct within
// the match. It fails fast with domain.ErrNotEnoughLetters when coverage
// is insufficient; no partial result is ever returned.
func (g *Generator) Generate(ctx context.Context, roomId string, count int, duration time.Duration) ([]domain.Round, error) {
	eligible, err := g.lexicon.EligibleCategories(ctx)
	if err != nil {
		return nil, err
	}

	letters := make([]string, 0, len(eligible))
	for letter, categories := range eligible {
		if len(categories) >= domain.CategoriesPerRound {
			letters = append(letters, letter)
		}
	}
	// map iteration order is random; sort before shuffling so the result
	// depends only on the rng
	sort.Strings(letters)

	if len(letters) < count {
		return nil, fmt.Errorf("%w: need %d letters with >=%d backed categories, have %d",
			domain.ErrNotEnoughLetters, count, domain.CategoriesPerRound, len(letters))
	}

	g.rng.Shuffle(len(letters), func(i, j int) {
		letters[i], letters[j] = letters[j], letters[i]
	})

	rounds := make([]domain.Round, 0, count)
	for i := 0; i < count; i++ {
		letter := letters[i]
		categories := slices.Clone(eligible[letter])
		g.rng.Shuffle(len(categories), func(i, j int) {
			categories[i], categories[j] = categories[j], categories[i]
		})
		rounds = append(rounds, domain.Round{
			RoomId:     roomId,
			Ordinal:    i + 1,
			Letter:     letter,
			Duration:   duration,
			Status:     domain.RoundReady,
			Categories: categories[:domain.CategoriesPerRound],
		})
	}

	return rounds, nil
}

package storage

import (
	"context"
)

// EligibleCategories maps each letter to the categories that have at
// least one lexicon entry for it. The round generator filters this down
// to letters with enough coverage.
func (pg *PostgresRepo) EligibleCategories(ctx context.Context) (map[string][]string, error) {
	rows, err := pg.pool.Query(ctx,
		"SELECT DISTINCT letter, category FROM lexicon ORDER BY letter, category")
	if err != nil {
		return nil, wrapQueryError(err)
	}
	defer rows.Close()

	eligible := map[string][]string{}
	for rows.Next() {
		var letter, category string
		if err := rows.Scan(&letter, &category); err != nil {
			return nil, wrapQueryError(err)
		}
		eligible[letter] = append(eligible[letter], category)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapQueryError(err)
	}

	return eligible, nil
}

// Words returns the accepted normalized words per category for one letter.
func (pg *PostgresRepo) Words(ctx context.Context, letter string, categories []string) (map[string]map[string]struct{}, error) {
	rows, err := pg.pool.Query(ctx,
		"SELECT category, word FROM lexicon WHERE letter = $1 AND category = ANY($2)",
		letter, categories)
	if err != nil {
		return nil, wrapQueryError(err)
	}
	defer rows.Close()

	words := map[string]map[string]struct{}{}
	for rows.Next() {
		var category, word string
		if err := rows.Scan(&category, &word); err != nil {
			return nil, wrapQueryError(err)
		}
		if words[category] == nil {
			words[category] = map[string]struct{}{}
		}
		words[category][word] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, wrapQueryError(err)
	}

	return words, nil
}

// AddLexiconEntries seeds accepted words; used by ops tooling and tests.
func (pg *PostgresRepo) AddLexiconEntries(ctx context.Context, letter, category string, words []string) error {
	for _, word := range words {
		_, err := pg.pool.Exec(ctx,
			"INSERT INTO lexicon(letter, category, word) VALUES($1, $2, $3) ON CONFLICT DO NOTHING",
			letter, category, word)
		if err != nil {
			return wrapQueryError(err)
		}
	}
	return nil
}

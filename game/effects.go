package game

import "stopgame/domain"

// Power-up effects are opaque side inputs to the scoring engine: they may
// alter the answer set before normalization but the scorer itself carries
// no effect-specific branching.
type EffectKind int

const (
	// EffectSkipCategory drops the player's entry for the category from
	// scoring entirely. The placeholder row keeps its zero points.
	EffectSkipCategory EffectKind = iota
	// EffectDisregardAnswer blanks the submitted text, so it is scored as
	// an empty (invalid) answer.
	EffectDisregardAnswer
)

type Effect struct {
	PlayerId string
	Category string
	Kind     EffectKind
}

func effectKind(s string) (EffectKind, bool) {
	switch s {
	case "skip":
		return EffectSkipCategory, true
	case "disregard":
		return EffectDisregardAnswer, true
	}
	return 0, false
}

func applyEffects(parts []domain.Participation, effects []Effect) []domain.Participation {
	if len(effects) == 0 {
		return parts
	}

	type slot struct{ player, category string }
	tagged := map[slot]EffectKind{}
	for _, e := range effects {
		tagged[slot{e.PlayerId, e.Category}] = e.Kind
	}

	out := make([]domain.Participation, 0, len(parts))
	for _, p := range parts {
		kind, ok := tagged[slot{p.PlayerId, p.Category}]
		if !ok {
			out = append(out, p)
			continue
		}
		switch kind {
		case EffectSkipCategory:
			continue
		case EffectDisregardAnswer:
			p.Answer = ""
			out = append(out, p)
		}
	}
	return out
}

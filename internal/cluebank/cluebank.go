// Package cluebank loads the static question document and owns the
// daily-double coordinate draw. The bank is read-only after Load.
package cluebank

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
)

// Clue is one cell of the board.
type Clue struct {
	Text     string `json:"text"`
	Value    int    `json:"value"`
	Answer   string `json:"answer"`
	Type     string `json:"type"`
	MediaURL string `json:"media_url,omitempty"`
}

// Category is one column: a name plus its ordered clues.
type Category struct {
	Name  string `json:"category"`
	Clues []Clue `json:"clues"`
}

// FinalClue is the single clue of the final round.
type FinalClue struct {
	Category string `json:"category"`
	Text     string `json:"text"`
	Answer   string `json:"answer"`
}

// Coordinate addresses a clue by category and row within a round.
type Coordinate struct {
	Category int `json:"cat_idx"`
	Clue     int `json:"clue_idx"`
}

type document struct {
	Round1 []Category `json:"round_1"`
	Round2 []Category `json:"round_2"`
	Final  FinalClue  `json:"final_jeopardy"`
}

// Bank holds the parsed question document.
type Bank struct {
	rounds map[int][]Category
	final  FinalClue
}

// Load reads and validates the question document at path.
func Load(path string) (*Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read question file: %w", err)
	}
	return Parse(data)
}

// Parse builds a Bank from raw JSON.
func Parse(data []byte) (*Bank, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse question document: %w", err)
	}

	b := &Bank{
		rounds: map[int][]Category{1: doc.Round1, 2: doc.Round2},
		final:  doc.Final,
	}
	for round, cats := range b.rounds {
		if len(cats) == 0 {
			return nil, fmt.Errorf("round %d has no categories", round)
		}
		for i, cat := range cats {
			if len(cat.Clues) == 0 {
				return nil, fmt.Errorf("round %d category %q (index %d) has no clues", round, cat.Name, i)
			}
		}
	}
	if b.final.Text == "" {
		return nil, fmt.Errorf("question document has no final clue")
	}
	return b, nil
}

// Categories returns the category list for a regular round (1 or 2).
func (b *Bank) Categories(round int) []Category {
	return b.rounds[round]
}

// Clue looks up a clue by coordinate within a round. The second return is
// false when the round or coordinate is out of bounds.
func (b *Bank) Clue(round int, coord Coordinate) (Clue, bool) {
	cats := b.rounds[round]
	if coord.Category < 0 || coord.Category >= len(cats) {
		return Clue{}, false
	}
	clues := cats[coord.Category].Clues
	if coord.Clue < 0 || coord.Clue >= len(clues) {
		return Clue{}, false
	}
	return clues[coord.Clue], true
}

// Final returns the final-round clue.
func (b *Bank) Final() FinalClue {
	return b.final
}

// specialCount is how many daily doubles a round carries.
func specialCount(round int) int {
	switch round {
	case 1:
		return 1
	case 2:
		return 2
	default:
		return 0
	}
}

// DrawSpecials samples the round's daily-double coordinates uniformly without
// replacement from the full coordinate space. Callers must re-draw on every
// round start rather than reuse a previous draw.
func (b *Bank) DrawSpecials(round int, rng *rand.Rand) []Coordinate {
	k := specialCount(round)
	if k == 0 {
		return nil
	}

	var all []Coordinate
	for c, cat := range b.rounds[round] {
		for r := range cat.Clues {
			all = append(all, Coordinate{Category: c, Clue: r})
		}
	}
	if len(all) < k {
		k = len(all)
	}

	picked := make([]Coordinate, 0, k)
	for _, i := range rng.Perm(len(all))[:k] {
		picked = append(picked, all[i])
	}
	return picked
}

package game

// missingAnswer stands in when a seat has no recorded answer for a round.
// Leaving purges a player's answers together with their roster entry, so
// in practice every surviving seat is filled, but the substitution keeps
// the reveal well defined either way.
const missingAnswer = "…"

// Rotate redistributes the collected answers into one deck per player.
//
// Each player occupies the seat matching their position in the roster
// slice. For round r, the player at seat i is assigned the answer written
// by the occupant of seat (i+r) mod N in that round, so the source seat
// shifts by one every round and nobody hears the same voice twice in a
// row. The offset is zero at round 0, which means everyone gets their own
// answer back for the first prompt; that quirk is part of the game.
//
// Pure function; never called with an empty roster (the submission
// barrier requires at least one player to trip).
func Rotate(responses map[int][]Response, roster []Player, prompts []string) map[string][]DeckEntry {
	n := len(roster)
	decks := make(map[string][]DeckEntry, n)
	if n == 0 {
		return decks
	}

	seat := make(map[string]int, n)
	for i, p := range roster {
		seat[p.DeviceID] = i
	}

	for r, prompt := range prompts {
		answers := make([]string, n)
		filled := make([]bool, n)
		for _, resp := range responses[r] {
			if i, ok := seat[resp.DeviceID]; ok {
				answers[i] = resp.Text
				filled[i] = true
			}
		}

		for i, p := range roster {
			src := (i + r) % n
			answer := answers[src]
			if !filled[src] {
				answer = missingAnswer
			}
			decks[p.DeviceID] = append(decks[p.DeviceID], DeckEntry{Prompt: prompt, Answer: answer})
		}
	}
	return decks
}

package blackjack

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// DefaultDecks is the shoe size used when a round does not ask for a
// specific deck count.
const DefaultDecks = 6

// BuildShoe returns decks*52 cards in the fixed deck/suit/rank enumeration
// order. The unshuffled order is deterministic so an auditor can rebuild it.
func BuildShoe(decks int) []Card {
	if decks <= 0 {
		decks = DefaultDecks
	}
	cards := make([]Card, 0, decks*52)
	uid := 0
	for d := 0; d < decks; d++ {
		for _, s := range Suits {
			for _, r := range Ranks {
				cards = append(cards, Card{
					Rank: r,
					Suit: s,
					ID:   fmt.Sprintf("%d-%s%s-%d", d, r, s, uid),
				})
				uid++
			}
		}
	}
	return cards
}

// MakeServerSeed generates a fresh 32-byte secret and its SHA-256 commitment.
// The commitment (shoeHash) is published before play; the secret is revealed
// once the round resolves so the shuffle can be replayed.
func MakeServerSeed() (serverSeed, shoeHash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("server seed: %w", err)
	}
	serverSeed = hex.EncodeToString(buf)
	sum := sha256.Sum256([]byte(serverSeed))
	return serverSeed, hex.EncodeToString(sum[:]), nil
}

// ShuffleWithSeeds builds a shoe and applies a Fisher–Yates pass driven by
// HMAC-SHA256(serverSeed, clientSeed:counter). The swap index at step i is
// the first four digest bytes, big-endian, mod (i+1), with the counter
// advancing once per draw. Same inputs, same permutation, always.
func ShuffleWithSeeds(serverSeed, clientSeed string, decks int) []Card {
	deck := BuildShoe(decks)
	counter := 0
	for i := len(deck) - 1; i > 0; i-- {
		mac := hmac.New(sha256.New, []byte(serverSeed))
		fmt.Fprintf(mac, "%s:%d", clientSeed, counter)
		counter++
		sum := mac.Sum(nil)
		j := int(binary.BigEndian.Uint32(sum[:4]) % uint32(i+1))
		deck[i], deck[j] = deck[j], deck[i]
	}
	return deck
}

package game

import (
	"fmt"
	"math/rand"
	"time"
)

type Suit int

type Rank int

const (
	Spades Suit = iota
	Hearts
	Diamonds
	Clubs
)

const (
	Two   Rank = 2
	Three Rank = 3
	Four  Rank = 4
	Five  Rank = 5
	Six   Rank = 6
	Seven Rank = 7
	Eight Rank = 8
	Nine  Rank = 9
	Ten   Rank = 10
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
	Ace   Rank = 14
)

var rankCodes = map[Rank]string{
	Two: "2", Three: "3", Four: "4", Five: "5", Six: "6", Seven: "7", Eight: "8", Nine: "9", Ten: "T", Jack: "J", Queen: "Q", King: "K", Ace: "A",
}

var suitCodes = map[Suit]string{Spades: "s", Hearts: "h", Diamonds: "d", Clubs: "c"}

var suitNames = map[Suit]string{Spades: "spades", Hearts: "hearts", Diamonds: "diamonds", Clubs: "clubs"}

type Card struct {
	Rank Rank
	Suit Suit
}

func (c Card) String() string {
	return rankCodes[c.Rank] + suitCodes[c.Suit]
}

// RankLabel renders the rank the way players read it: A, 2..10, J, Q, K.
func (c Card) RankLabel() string {
	if c.Rank == Ten {
		return "10"
	}
	return rankCodes[c.Rank]
}

func (c Card) SuitName() string {
	return suitNames[c.Suit]
}

// Points is the card's blackjack contribution with aces counted high.
func (c Card) Points() int {
	switch {
	case c.Rank == Ace:
		return 11
	case c.Rank >= Ten:
		return 10
	default:
		return int(c.Rank)
	}
}

func (c Card) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Card) UnmarshalText(b []byte) error {
	parsed, err := ParseCard(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCard reads the two-character code produced by String, e.g. "As" or "Td".
func ParseCard(code string) (Card, error) {
	if len(code) != 2 {
		return Card{}, fmt.Errorf("invalid card %q", code)
	}
	var out Card
	found := false
	for r, s := range rankCodes {
		if s == code[:1] {
			out.Rank = r
			found = true
			break
		}
	}
	if !found {
		return Card{}, fmt.Errorf("invalid card rank %q", code)
	}
	found = false
	for s, v := range suitCodes {
		if v == code[1:] {
			out.Suit = s
			found = true
			break
		}
	}
	if !found {
		return Card{}, fmt.Errorf("invalid card suit %q", code)
	}
	return out, nil
}

type Deck struct {
	Cards []Card `json:"cards"`
}

func NewDeck() *Deck {
	cards := make([]Card, 0, 52)
	for s := Spades; s <= Clubs; s++ {
		for r := Two; r <= Ace; r++ {
			cards = append(cards, Card{Rank: r, Suit: s})
		}
	}
	return &Deck{Cards: cards}
}

// StackedDeck returns a deck that deals the given cards in order.
func StackedDeck(cards ...Card) *Deck {
	return &Deck{Cards: append([]Card(nil), cards...)}
}

// ShuffledDeck is the default deck source: a fresh 52-card deck per game.
func ShuffledDeck() *Deck {
	d := NewDeck()
	d.Shuffle()
	return d
}

func (d *Deck) Shuffle() {
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	rnd.Shuffle(len(d.Cards), func(i, j int) {
		d.Cards[i], d.Cards[j] = d.Cards[j], d.Cards[i]
	})
}

// Draw removes the front card. An empty deck cannot happen with bounded hands
// and is treated as a broken invariant.
func (d *Deck) Draw() Card {
	if len(d.Cards) == 0 {
		panic("game: draw from exhausted deck")
	}
	c := d.Cards[0]
	d.Cards = d.Cards[1:]
	return c
}

func (d *Deck) Remaining() int {
	return len(d.Cards)
}

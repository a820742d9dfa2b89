package game

// freeCards lists card numbers neither dealt nor locked.
func (s *State) freeCards() []int {
	var free []int
	for _, c := range s.Deck {
		if !s.dealt[c.Number] && !s.locked[c.Number] {
			free = append(free, c.Number)
		}
	}
	return free
}

// DrawCard deals one random free card.
func (s *State) DrawCard() (Card, error) {
	free := s.freeCards()
	if len(free) == 0 {
		return Card{}, ErrDeckExhausted
	}
	n := free[s.rng.Intn(len(free))]
	s.dealt[n] = true
	return s.Deck[n], nil
}

// Deal fills a player's hand for the round and returns it. A player who
// already holds cards gets the same hand back. Shut down and dead players,
// and everyone once a winner exists, get an empty hand.
func (s *State) Deal(p *Player) ([]Card, error) {
	if len(p.Cards) > 0 {
		return p.Cards, nil
	}
	if p.Shutdown || p.Dead || s.Winner != nil || p.Robot == nil {
		return nil, nil
	}

	size := HandSize - p.Robot.Damage
	hand := make([]Card, 0, size)
	for len(hand) < size {
		c, err := s.DrawCard()
		if err != nil {
			for _, drawn := range hand {
				delete(s.dealt, drawn.Number)
			}
			return nil, err
		}
		hand = append(hand, c)
	}
	p.Cards = hand
	return hand, nil
}

// ReturnHand puts a player's dealt cards back in the pool.
func (s *State) ReturnHand(p *Player) {
	for _, c := range p.Cards {
		delete(s.dealt, c.Number)
	}
	p.Cards = nil
}

// ClearRound forgets every hand and program and frees all dealt cards.
// Locked cards stay locked.
func (s *State) ClearRound() {
	for _, p := range s.Players {
		p.Cards = nil
		p.Program = nil
	}
	clear(s.dealt)
}

// Unlock releases every lock held by every player.
func (s *State) Unlock() {
	for _, p := range s.Players {
		p.Locked = nil
	}
	clear(s.locked)
}

// CardsFromNumbers maps card numbers to cards, skipping unknown numbers.
func (s *State) CardsFromNumbers(nums []int) []Card {
	cards := make([]Card, 0, len(nums))
	for _, n := range nums {
		if n >= 0 && n < len(s.Deck) {
			cards = append(cards, s.Deck[n])
		}
	}
	return cards
}

package notify

import (
	"sync"

	"github.com/ruckusbots/ruckus/internal/game"
)

// AllPlayers addresses a deal request to every player.
const AllPlayers = -1

// Notifier is what the round engine tells observers.
type Notifier interface {
	ShowMessage(text, sound string)
	DisplayMove(m game.Move, register int)
	DisplayRegister(moves []game.Move)
	UpdateHealth(damage []int)
	DealPlayers(player int)
	ClearHands()
	StartTimer()
	Reset(all bool)
}

// Publisher fans events out to a transport.
type Publisher interface {
	Publish(evt Event)
}

// Broadcast implements Notifier by turning calls into events for a
// publisher. A nil publisher drops everything.
type Broadcast struct {
	pub Publisher
}

// New creates a notifier publishing to pub.
func New(pub Publisher) *Broadcast {
	return &Broadcast{pub: pub}
}

// Nop returns a notifier that discards every event.
func Nop() *Broadcast {
	return &Broadcast{}
}

func (b *Broadcast) publish(evt Event) {
	if b.pub != nil {
		b.pub.Publish(evt)
	}
}

func (b *Broadcast) ShowMessage(text, sound string) {
	b.publish(MessageEvent{Text: text, Sound: sound})
}

func (b *Broadcast) DisplayMove(m game.Move, register int) {
	b.publish(MoveEvent{Card: m.Card, Robot: m.Robot.Name, Register: register + 1})
}

func (b *Broadcast) DisplayRegister(moves []game.Move) {
	evt := RegisterEvent{
		Cards:  make([]game.Card, len(moves)),
		Robots: make([]string, len(moves)),
	}
	for i, m := range moves {
		evt.Cards[i] = m.Card
		evt.Robots[i] = m.Robot.Name
	}
	b.publish(evt)
}

func (b *Broadcast) UpdateHealth(damage []int) {
	b.publish(HealthEvent{Damage: damage})
}

func (b *Broadcast) DealPlayers(player int) {
	b.publish(DealEvent{Player: player})
}

func (b *Broadcast) ClearHands() {
	b.publish(ClearHandsEvent{})
}

func (b *Broadcast) StartTimer() {
	b.publish(TimerEvent{})
}

func (b *Broadcast) Reset(all bool) {
	b.publish(ResetEvent{All: all})
}

// Recorder is a Publisher that keeps every event, for tests and replays.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Publish records evt.
func (r *Recorder) Publish(evt Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

// Events returns a copy of everything recorded.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Messages returns the text of every recorded message event.
func (r *Recorder) Messages() []string {
	var out []string
	for _, evt := range r.Events() {
		if m, ok := evt.(MessageEvent); ok {
			out = append(out, m.Text)
		}
	}
	return out
}

// Multi publishes to several publishers in order.
type Multi []Publisher

// Publish forwards evt to every publisher.
func (m Multi) Publish(evt Event) {
	for _, p := range m {
		p.Publish(evt)
	}
}

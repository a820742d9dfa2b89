package game

// Event is emitted by state transitions for the orchestrator to act on.
type Event interface {
	gameEvent()
}

// LocksChanged reports a player's new set of locked cards.
type LocksChanged struct {
	Player *Player
	Locked []int
}

func (LocksChanged) gameEvent() {}

// RobotDestroyed reports a robot reaching lethal damage.
type RobotDestroyed struct {
	Player *Player
	Robot  *Robot
}

func (RobotDestroyed) gameEvent() {}

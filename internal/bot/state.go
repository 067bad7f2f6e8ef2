package bot

// Phase is the loop's classification of the screen
type Phase int

const (
	PhaseUnknown Phase = iota
	PhaseInBattle
	PhaseOnMenu
	PhasePaused
)

func (p Phase) String() string {
	switch p {
	case PhaseInBattle:
		return "IN_BATTLE"
	case PhaseOnMenu:
		return "ON_MENU"
	case PhasePaused:
		return "PAUSED"
	default:
		return "UNKNOWN"
	}
}

// State is the automation state. It is owned by the loop goroutine, seeded
// from a screen check at startup and never persisted.
type State struct {
	InBattle    bool
	BattleCount int // Troop taps since the last close-battle check
	LoopCount   int // Outer iterations, also the frame epoch driver
	Paused      bool
}

// Phase derives the steady phase from the flags. It never returns
// PhaseUnknown: a frame that matches neither the battle nor the menu is
// resolved to IN_BATTLE within the same iteration, and UNKNOWN only appears
// as the source of the state.changed event published for that transition.
func (s State) Phase() Phase {
	switch {
	case s.Paused:
		return PhasePaused
	case s.InBattle:
		return PhaseInBattle
	default:
		return PhaseOnMenu
	}
}

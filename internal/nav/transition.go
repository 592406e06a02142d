package nav

// Effect is the animation applied to one screen during a switch.
type Effect uint8

const (
	// EffectNone means no animation.
	EffectNone Effect = iota
	// EffectFade cross-fades the screen.
	EffectFade
	// EffectSlideInFromEnd slides the screen in from the trailing edge.
	EffectSlideInFromEnd
	// EffectSlideOutToEnd slides the screen out towards the trailing edge.
	EffectSlideOutToEnd
	// EffectSlideInFromStart slides the screen in from the leading edge.
	EffectSlideInFromStart
	// EffectSlideOutToStart slides the screen out towards the leading edge.
	EffectSlideOutToStart
)

// String returns the effect name.
func (e Effect) String() string {
	switch e {
	case EffectNone:
		return "none"
	case EffectFade:
		return "fade"
	case EffectSlideInFromEnd:
		return "slide-in-from-end"
	case EffectSlideOutToEnd:
		return "slide-out-to-end"
	case EffectSlideInFromStart:
		return "slide-in-from-start"
	case EffectSlideOutToStart:
		return "slide-out-to-start"
	default:
		return "unknown"
	}
}

// Reverse returns the effect that undoes e.
func (e Effect) Reverse() Effect {
	switch e {
	case EffectSlideInFromEnd:
		return EffectSlideOutToEnd
	case EffectSlideOutToEnd:
		return EffectSlideInFromEnd
	case EffectSlideInFromStart:
		return EffectSlideOutToStart
	case EffectSlideOutToStart:
		return EffectSlideInFromStart
	default:
		return e
	}
}

// Direction is the kind of screen switch.
type Direction uint8

const (
	// DirectionInitial is the first display of the root.
	DirectionInitial Direction = iota
	// DirectionForward enters a sub-screen.
	DirectionForward
	// DirectionBackward returns to the previous screen.
	DirectionBackward
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionInitial:
		return "initial"
	case DirectionForward:
		return "forward"
	case DirectionBackward:
		return "backward"
	default:
		return "unknown"
	}
}

// Transition describes how the outgoing and incoming screens animate.
type Transition struct {
	Direction Direction

	// Enter applies to the incoming screen.
	Enter Effect

	// Exit applies to the outgoing screen.
	Exit Effect
}

// Reverse returns the transition that undoes t.
func (t Transition) Reverse() Transition {
	dir := t.Direction
	switch dir {
	case DirectionForward:
		dir = DirectionBackward
	case DirectionBackward:
		dir = DirectionForward
	}
	return Transition{Direction: dir, Enter: t.Exit.Reverse(), Exit: t.Enter.Reverse()}
}

// transitionFor picks the effects for a switch. The root always fades;
// sub-screens slide, entering from the trailing edge going forward and
// leaving towards it going back.
func transitionFor(dir Direction, fromRoot, toRoot bool) Transition {
	switch dir {
	case DirectionForward:
		exit := EffectSlideOutToStart
		if fromRoot {
			exit = EffectFade
		}
		return Transition{Direction: dir, Enter: EffectSlideInFromEnd, Exit: exit}
	case DirectionBackward:
		enter := EffectSlideInFromStart
		if toRoot {
			enter = EffectFade
		}
		return Transition{Direction: dir, Enter: enter, Exit: EffectSlideOutToEnd}
	default:
		return Transition{Direction: DirectionInitial, Enter: EffectFade, Exit: EffectNone}
	}
}

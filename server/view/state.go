package view

import (
	"errors"
	"fmt"
)

var ErrInvalidTransition = errors.New("invalid card transition")

// CardState is where a card is in its interaction cycle.
type CardState string

const (
	StateViewing          CardState = "viewing"
	StateConfirmingLeave  CardState = "confirming-leave"
	StateConfirmingDelete CardState = "confirming-delete"
	StateMutating         CardState = "mutating"
)

type Intent string

const (
	IntentJoin    Intent = "join"
	IntentLeave   Intent = "leave"
	IntentDelete  Intent = "delete"
	IntentConfirm Intent = "confirm"
	IntentCancel  Intent = "cancel"
	IntentSettle  Intent = "settle"
)

var transitions = map[CardState]map[Intent]CardState{
	StateViewing: {
		IntentJoin:   StateMutating,
		IntentLeave:  StateConfirmingLeave,
		IntentDelete: StateConfirmingDelete,
	},
	StateConfirmingLeave: {
		IntentConfirm: StateMutating,
		IntentCancel:  StateViewing,
	},
	StateConfirmingDelete: {
		IntentConfirm: StateMutating,
		IntentCancel:  StateViewing,
	},
	StateMutating: {
		IntentSettle: StateViewing,
	},
}

func (s CardState) Next(intent Intent) (CardState, error) {
	next, ok := transitions[s][intent]
	if !ok {
		return s, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, intent, s)
	}
	return next, nil
}

func (s CardState) Confirming() bool {
	return s == StateConfirmingLeave || s == StateConfirmingDelete
}

// Walk applies intents in order starting from viewing. A request carrying confirmed=true walks
// through the confirmation, anything else stops at it.
func Walk(intent Intent, confirmed bool) (CardState, error) {
	state, err := StateViewing.Next(intent)
	if err != nil {
		return state, err
	}
	if state.Confirming() && confirmed {
		return state.Next(IntentConfirm)
	}
	return state, nil
}

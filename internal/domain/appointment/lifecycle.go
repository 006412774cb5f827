package appointment

type Action string

const (
	ActionConfirm  Action = "confirm"
	ActionReject   Action = "reject"
	ActionComplete Action = "complete"
)

// transitions is the whole state machine. Appointments are created pending;
// anything not listed here is illegal. No action leads to cancelled.
var transitions = map[Status]map[Action]Status{
	StatusPending: {
		ActionConfirm: StatusConfirmed,
		ActionReject:  StatusRejected,
	},
	StatusConfirmed: {
		ActionComplete: StatusCompleted,
	},
}

// Next returns the state reached by applying action in state from.
func Next(from Status, action Action) (Status, error) {
	to, ok := transitions[from][action]
	if !ok {
		return "", &TransitionError{From: from, Action: action}
	}
	return to, nil
}

func Terminal(s Status) bool {
	return len(transitions[s]) == 0
}

func (a Action) Valid() bool {
	switch a {
	case ActionConfirm, ActionReject, ActionComplete:
		return true
	}
	return false
}

// ActionVerifyOTP is accepted on confirmed appointments only and never
// changes the status, so it is not part of the transition table.
const ActionVerifyOTP Action = "verify-otp"

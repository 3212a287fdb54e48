package click

// Action is the decoded form of the callback action field.
type Action int

const (
	ActionUnknown Action = iota
	ActionPrepare
	ActionComplete
)

// Wire values of the action field.
const (
	ActionCodePrepare  = 0
	ActionCodeComplete = 1
)

// ParseAction decodes the numeric action code once at the boundary.
func ParseAction(code int) Action {
	switch code {
	case ActionCodePrepare:
		return ActionPrepare
	case ActionCodeComplete:
		return ActionComplete
	default:
		return ActionUnknown
	}
}

func (a Action) String() string {
	switch a {
	case ActionPrepare:
		return "prepare"
	case ActionComplete:
		return "complete"
	default:
		return "unknown"
	}
}


package interview

// State is the wizard step.
type State int

const (
	StateSelectingType State = iota
	StateSettingUp
	StateInterviewing
	StateAssembling
	StateFinalized
)

func (s State) String() string {
	switch s {
	case StateSelectingType:
		return "selecting_type"
	case StateSettingUp:
		return "setting_up"
	case StateInterviewing:
		return "interviewing"
	case StateAssembling:
		return "assembling"
	case StateFinalized:
		return "finalized"
	default:
		return "unknown"
	}
}

package replication

type State int32

const (
	Connecting State = iota
	Streaming
	ShuttingDown
	Stopped
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "Connecting"
	case Streaming:
		return "Streaming"
	case ShuttingDown:
		return "ShuttingDown"
	case Stopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

package worker

type Status uint8

const (
	StatusIdle    Status = iota // no process launched
	StatusRunning               // process launched and alive
	StatusExited                // process exited on its own, not yet restarted
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusExited:
		return "exited"
	}
	// shouldn't reach here
	return "ERROR"
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

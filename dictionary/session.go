package dictionary

import "fmt"

// SessionMode is the diagnostic session the ECU is in while answering. It only
// selects which firmware's DID map applies; the response bytes never say.
type SessionMode int

const (
	SessionUnknown     SessionMode = 0
	SessionDefault     SessionMode = 1
	SessionProgramming SessionMode = 2
	SessionExtended    SessionMode = 3
)

func (m SessionMode) String() string {
	switch m {
	case SessionUnknown:
		return "unknown"
	case SessionDefault:
		return "default"
	case SessionProgramming:
		return "programming"
	case SessionExtended:
		return "extended"
	default:
		return fmt.Sprintf("SessionMode(%d)", int(m))
	}
}

// ParseSessionMode validates a caller supplied session number.
func ParseSessionMode(n int) (SessionMode, error) {
	m := SessionMode(n)
	switch m {
	case SessionUnknown, SessionDefault, SessionProgramming, SessionExtended:
		return m, nil
	}
	return 0, fmt.Errorf("%w: %d", ErrUnknownSessionMode, n)
}

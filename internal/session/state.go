package session

import "fmt"

// State is the controller's position in the upload → analysis → generation cycle.
type State int

const (
	// Idle has no image.
	Idle State = iota
	// Analyzing waits on the vision-analysis collaborator.
	Analyzing
	// Ready holds an analysed image, with or without a generated result.
	Ready
	// Generating waits on the image-synthesis collaborator.
	Generating
)

var stateNames = map[State]string{
	Idle:       "idle",
	Analyzing:  "analyzing",
	Ready:      "ready",
	Generating: "generating",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Busy reports whether a collaborator request is in flight.
func (s State) Busy() bool {
	return s == Analyzing || s == Generating
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

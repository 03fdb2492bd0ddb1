package model

// Gate identifies one of the two physical timing stations.
type Gate string

const (
	GateStart Gate = "start"
	GateStop  Gate = "stop"
)

// IsValid reports whether g is a known gate.
func (g Gate) IsValid() bool {
	switch g {
	case GateStart, GateStop:
		return true
	}
	return false
}

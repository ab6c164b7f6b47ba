package types

import "fmt"

// Phase is the lifecycle state of the local session.
type Phase int

const (
	PhaseNoGame Phase = iota
	PhaseAwaitingParticipant
	PhaseAwaitingStart
	PhaseInRound
	PhaseConcluded
)

func (p Phase) String() string {
	switch p {
	case PhaseNoGame:
		return "NoGame"
	case PhaseAwaitingParticipant:
		return "AwaitingParticipant"
	case PhaseAwaitingStart:
		return "AwaitingStart"
	case PhaseInRound:
		return "InRound"
	case PhaseConcluded:
		return "Concluded"
	}
	return "Unknown"
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a phase from its name.
func (p *Phase) UnmarshalText(text []byte) error {
	for candidate := PhaseNoGame; candidate <= PhaseConcluded; candidate++ {
		if candidate.String() == string(text) {
			*p = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown phase: %q", text)
}

// PhaseOf derives the phase from the presence of fields in the snapshots.
func PhaseOf(game *GameSnapshot, participant *ParticipantSnapshot) Phase {
	switch {
	case game == nil:
		return PhaseNoGame
	case participant == nil:
		return PhaseAwaitingParticipant
	case game.IsConcluded:
		return PhaseConcluded
	case game.Round != nil:
		return PhaseInRound
	default:
		return PhaseAwaitingStart
	}
}

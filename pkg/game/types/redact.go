package types

// Redacted is the placeholder for values that must not reach logs.
const Redacted = "hidden"

// RedactParticipant returns a copy of p with the submission text hidden.
func RedactParticipant(p *ParticipantSnapshot) *ParticipantSnapshot {
	c := p.Copy()
	if c != nil && c.SubmissionText != nil && *c.SubmissionText != "" {
		hidden := Redacted
		c.SubmissionText = &hidden
	}
	return c
}

// RedactGame returns a copy of g with the choice texts hidden.
func RedactGame(g *GameSnapshot) *GameSnapshot {
	c := g.Copy()
	if c != nil {
		for id := range c.Choices {
			c.Choices[id] = Redacted
		}
	}
	return c
}

// RedactEnvelope returns a copy of e that is safe to log.
func RedactEnvelope(e *Envelope) *Envelope {
	if e == nil {
		return nil
	}
	c := &Envelope{Error: copyPtr(e.Error)}
	if e.Result != nil {
		c.Result = &Result{
			Game:        RedactGame(e.Result.Game),
			Participant: RedactParticipant(e.Result.Participant),
		}
	}
	return c
}

package types

// GameSnapshot is the authority's view of a session as of one response.
// Snapshots are never mutated after decoding; an accepted update replaces
// the previous snapshot as a whole.
type GameSnapshot struct {
	// ID identifies the session
	ID int64 `json:"id"`
	// Round is nil until play starts
	Round *int `json:"round"`
	// CurrentAsset is the asset that is live for the current round
	CurrentAsset *AssetRef `json:"currentAsset"`
	// AssetQueue lists the assets that will become live next
	AssetQueue            []AssetRef        `json:"assetQueue"`
	WaitingForSubmissions bool              `json:"waitingForSubmissions"`
	ActiveParticipantID   *int64            `json:"activeParticipantId"`
	HostID                int64             `json:"hostId"`
	JoinCode              string            `json:"joinCode,omitempty"`
	IsConcluded           bool              `json:"isConcluded"`
	Scoreboard            map[string]int    `json:"scoreboard"`
	Choices               map[string]string `json:"choices"`
	WinningSubmission     *string           `json:"winningSubmission,omitempty"`
	WinningSubmissionBy   *string           `json:"winningSubmissionBy,omitempty"`
	// TimeRemainingMs is the authority's remaining time in the current round
	TimeRemainingMs    *int64 `json:"timeRemainingMs"`
	SubmissionsInCount int    `json:"submissionsInCount"`
}

// CurrentAssetID returns the id of the live asset, if any.
func (g *GameSnapshot) CurrentAssetID() (int64, bool) {
	if g == nil || g.CurrentAsset == nil {
		return 0, false
	}
	return g.CurrentAsset.ID, true
}

// QueueHead returns the first asset of the queue, if any.
func (g *GameSnapshot) QueueHead() (AssetRef, bool) {
	if g == nil || len(g.AssetQueue) == 0 {
		return AssetRef{}, false
	}
	return g.AssetQueue[0], true
}

// Copy returns a deep copy of the snapshot.
func (g *GameSnapshot) Copy() *GameSnapshot {
	if g == nil {
		return nil
	}
	c := *g
	c.Round = copyPtr(g.Round)
	if g.CurrentAsset != nil {
		asset := *g.CurrentAsset
		c.CurrentAsset = &asset
	}
	if g.AssetQueue != nil {
		c.AssetQueue = make([]AssetRef, len(g.AssetQueue))
		copy(c.AssetQueue, g.AssetQueue)
	}
	c.ActiveParticipantID = copyPtr(g.ActiveParticipantID)
	if g.Scoreboard != nil {
		c.Scoreboard = make(map[string]int, len(g.Scoreboard))
		for k, v := range g.Scoreboard {
			c.Scoreboard[k] = v
		}
	}
	if g.Choices != nil {
		c.Choices = make(map[string]string, len(g.Choices))
		for k, v := range g.Choices {
			c.Choices[k] = v
		}
	}
	c.WinningSubmission = copyPtr(g.WinningSubmission)
	c.WinningSubmissionBy = copyPtr(g.WinningSubmissionBy)
	c.TimeRemainingMs = copyPtr(g.TimeRemainingMs)
	return &c
}

// ParticipantSnapshot is the authority's view of the local participant.
type ParticipantSnapshot struct {
	ID                    int64   `json:"id"`
	DisplayName           string  `json:"displayName"`
	Score                 *int    `json:"score"`
	HasSubmitted          bool    `json:"hasSubmitted"`
	SubmissionText        *string `json:"submissionText"`
	RoundOfLastSubmission *int    `json:"roundOfLastSubmission,omitempty"`
}

// Copy returns a deep copy of the snapshot.
func (p *ParticipantSnapshot) Copy() *ParticipantSnapshot {
	if p == nil {
		return nil
	}
	c := *p
	c.Score = copyPtr(p.Score)
	c.SubmissionText = copyPtr(p.SubmissionText)
	c.RoundOfLastSubmission = copyPtr(p.RoundOfLastSubmission)
	return &c
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

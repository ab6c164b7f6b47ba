package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGameSnapshotCopyIsDeep(t *testing.T) {
	round := 2
	game := &GameSnapshot{
		ID:           42,
		Round:        &round,
		CurrentAsset: &AssetRef{ID: 10, SourceURL: "https://cdn/10.gif"},
		AssetQueue:   []AssetRef{{ID: 11, SourceURL: "https://cdn/11.gif"}},
		Scoreboard:   map[string]int{"kim": 3},
		Choices:      map[string]string{"a": "first"},
	}

	c := game.Copy()
	*c.Round = 3
	c.CurrentAsset.ID = 99
	c.AssetQueue[0].ID = 99
	c.Scoreboard["kim"] = 0
	c.Choices["a"] = "changed"

	assert.Equal(t, 2, *game.Round)
	assert.Equal(t, int64(10), game.CurrentAsset.ID)
	assert.Equal(t, int64(11), game.AssetQueue[0].ID)
	assert.Equal(t, 3, game.Scoreboard["kim"])
	assert.Equal(t, "first", game.Choices["a"])

	var nilGame *GameSnapshot
	assert.Nil(t, nilGame.Copy())
}

func TestPhaseOf(t *testing.T) {
	round := 1
	tests := []struct {
		name        string
		game        *GameSnapshot
		participant *ParticipantSnapshot
		want        Phase
	}{
		{"no game", nil, nil, PhaseNoGame},
		{"no participant", &GameSnapshot{ID: 1}, nil, PhaseAwaitingParticipant},
		{"waiting for start", &GameSnapshot{ID: 1}, &ParticipantSnapshot{ID: 2}, PhaseAwaitingStart},
		{"in round", &GameSnapshot{ID: 1, Round: &round}, &ParticipantSnapshot{ID: 2}, PhaseInRound},
		{"concluded", &GameSnapshot{ID: 1, Round: &round, IsConcluded: true}, &ParticipantSnapshot{ID: 2}, PhaseConcluded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PhaseOf(tt.game, tt.participant))
		})
	}
}

func TestPhaseMarshalsByName(t *testing.T) {
	b, err := json.Marshal(map[string]Phase{"phase": PhaseInRound})
	require.NoError(t, err)
	assert.JSONEq(t, `{"phase":"InRound"}`, string(b))

	for phase := PhaseNoGame; phase <= PhaseConcluded; phase++ {
		b, err := json.Marshal(phase)
		require.NoError(t, err)
		var decoded Phase
		require.NoError(t, json.Unmarshal(b, &decoded))
		assert.Equal(t, phase, decoded)
	}

	var unknown Phase
	assert.Error(t, json.Unmarshal([]byte(`"Lobby"`), &unknown))
}

func TestAssetExtension(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://cdn.example.com/a/clip.MP4", ".mp4"},
		{"https://cdn.example.com/a/clip.gif?sig=abc", ".gif"},
		{"https://cdn.example.com/a/clip", ""},
		{"https://cdn.example.com/a/clip.", ""},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, AssetRef{SourceURL: tt.url}.Extension())
		})
	}
}

func TestRedactEnvelope(t *testing.T) {
	text := "my secret answer"
	envelope := &Envelope{Result: &Result{
		Game:        &GameSnapshot{ID: 42, Choices: map[string]string{"a": "first", "b": "second"}},
		Participant: &ParticipantSnapshot{ID: 7, SubmissionText: &text},
	}}

	redacted := RedactEnvelope(envelope)
	assert.Equal(t, Redacted, *redacted.Result.Participant.SubmissionText)
	assert.Equal(t, map[string]string{"a": Redacted, "b": Redacted}, redacted.Result.Game.Choices)

	assert.Equal(t, "my secret answer", *envelope.Result.Participant.SubmissionText)
	assert.Equal(t, "first", envelope.Result.Game.Choices["a"])

	msg := "boom"
	assert.Equal(t, "boom", *RedactEnvelope(&Envelope{Error: &msg}).Error)
	assert.Nil(t, RedactEnvelope(nil))
}

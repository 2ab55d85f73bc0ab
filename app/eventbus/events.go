package eventbus

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Kind names a broadcast event.
type Kind string

const (
	KindParticipantsUpdate Kind = "participants_update"
	KindAvailabilityUpdate Kind = "availability_update"
	KindDrawUpdated        Kind = "draw_updated"
)

// Event is a change notification. RoundID is set for availability and
// draw events.
type Event struct {
	Kind         Kind      `json:"kind"`
	TournamentID string    `json:"tournament_id"`
	RoundID      string    `json:"round_id,omitempty"`
	At           time.Time `json:"at"`
}

func ParticipantsUpdate(tournamentID string) Event {
	return Event{Kind: KindParticipantsUpdate, TournamentID: tournamentID, At: time.Now().UTC()}
}

func AvailabilityUpdate(tournamentID, roundID string) Event {
	return Event{Kind: KindAvailabilityUpdate, TournamentID: tournamentID, RoundID: roundID, At: time.Now().UTC()}
}

func DrawUpdated(tournamentID, roundID string) Event {
	return Event{Kind: KindDrawUpdated, TournamentID: tournamentID, RoundID: roundID, At: time.Now().UTC()}
}

// Subject is the NATS subject an event is bridged to.
func (e Event) Subject() string {
	return SubjectPrefix + "." + string(e.Kind)
}

func (e Event) toMessage() (*message.Message, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal %s event: %w", e.Kind, err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("kind", string(e.Kind))
	msg.Metadata.Set("tournament_id", e.TournamentID)
	if e.RoundID != "" {
		msg.Metadata.Set("round_id", e.RoundID)
	}
	return msg, nil
}

// Decode reads an event back out of a message.
func Decode(msg *message.Message) (Event, error) {
	var e Event
	if err := json.Unmarshal(msg.Payload, &e); err != nil {
		return Event{}, fmt.Errorf("decode event %s: %w", msg.UUID, err)
	}
	return e, nil
}

package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event is the envelope for every outbound notification. The payload is
// pre-marshaled so sinks can fan it out without re-encoding.
type Event struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// EventType identifies the kind of game event.
type EventType string

const (
	EventTypePlayerList     EventType = "PlayerList"
	EventTypeScoreUpdate    EventType = "ScoreUpdate"
	EventTypeBuzzersOpen    EventType = "BuzzersOpen"
	EventTypeBuzzersLocked  EventType = "BuzzersLocked"
	EventTypeBuzzWinner     EventType = "BuzzWinner"
	EventTypeClueShown      EventType = "ClueShown"
	EventTypeDailyDouble    EventType = "DailyDouble"
	EventTypeClueHidden     EventType = "ClueHidden"
	EventTypeAnswerRevealed EventType = "AnswerRevealed"
	EventTypeAnswerTimeout  EventType = "AnswerTimeout"
	EventTypeControlChange  EventType = "ControlChange"
	EventTypeBoardUpdate    EventType = "BoardUpdate"
	EventTypeRoundAdvanced  EventType = "RoundAdvanced"
	EventTypeFinalCategory  EventType = "FinalCategory"
	EventTypeFinalClue      EventType = "FinalClue"
	EventTypeFinalStatus    EventType = "FinalStatus"
	EventTypeFinalLocked    EventType = "FinalLocked"
	EventTypeTimerStart     EventType = "TimerStart"
)

// New builds an event envelope around the given payload.
func New(eventType EventType, payload any) (Event, error) {
	var data json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return Event{}, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
		}
		data = b
	}
	return Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}, nil
}

// Broadcaster receives every externally visible state change. Implementations
// must not block the caller; the game emits events while holding its state lock.
type Broadcaster interface {
	Broadcast(event Event)
}

// Fanout broadcasts each event to every sink in order.
type Fanout []Broadcaster

func (f Fanout) Broadcast(event Event) {
	for _, sink := range f {
		sink.Broadcast(event)
	}
}

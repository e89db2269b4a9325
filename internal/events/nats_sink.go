package events

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// NATSSink publishes every event to a NATS subject so presentation layers
// running in other processes can subscribe without holding a websocket.
type NATSSink struct {
	conn          *nats.Conn
	subjectPrefix string
}

// NewNATSSink connects to the given NATS URL. Subjects are
// "<prefix>.<event type>".
func NewNATSSink(url, subjectPrefix string) (*NATSSink, error) {
	conn, err := nats.Connect(url, nats.Name("quizshow-server"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	log.Info().Str("url", url).Str("prefix", subjectPrefix).Msg("NATS event sink connected")
	return &NATSSink{conn: conn, subjectPrefix: subjectPrefix}, nil
}

func (s *NATSSink) Broadcast(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("event_type", string(event.Type)).Msg("failed to marshal event for NATS")
		return
	}
	subject := fmt.Sprintf("%s.%s", s.subjectPrefix, event.Type)
	if err := s.conn.Publish(subject, data); err != nil {
		log.Error().Err(err).Str("subject", subject).Msg("failed to publish event to NATS")
	}
}

// Close flushes and drops the connection.
func (s *NATSSink) Close() {
	if err := s.conn.Flush(); err != nil {
		log.Error().Err(err).Msg("failed to flush NATS connection")
	}
	s.conn.Close()
}

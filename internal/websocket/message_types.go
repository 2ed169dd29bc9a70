package websocket

import (
	"encoding/json"
	"time"
)

// Типы событий live-ленты
const (
	EventAttemptRecorded = "attempt_recorded"
	EventConnected       = "connected"
)

// Event - сообщение, отправляемое клиентам ленты
type Event struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewEvent создает событие с текущим временем
func NewEvent(eventType string, data interface{}) Event {
	return Event{Type: eventType, Data: data, Timestamp: time.Now().UTC()}
}

// Marshal сериализует событие в JSON
func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// AttemptPayload - данные события attempt_recorded. Ответы не передаются.
type AttemptPayload struct {
	AttemptID      string    `json:"attempt_id"`
	UserID         *string   `json:"user_id"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	Percentage     float64   `json:"percentage"`
	TimeTaken      *int      `json:"time_taken"`
	CompletedAt    time.Time `json:"completed_at"`
}

// ClusterMessage - конверт для пересылки событий между инстансами
type ClusterMessage struct {
	InstanceID string          `json:"instance_id"`
	Payload    json.RawMessage `json:"payload"`
}

func messageTypeFromBytes(message []byte) string {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(message, &envelope); err != nil {
		return "unknown"
	}
	return envelope.Type
}

package event

import (
	"time"

	"github.com/google/uuid"
)

// Event represents a domain event raised by a kiosk session or a visit mutation
type Event struct {
	ID        string                 `json:"id"`
	Type      Type                   `json:"type"`
	SessionID string                 `json:"session_id,omitempty"`
	VisitID   string                 `json:"visit_id,omitempty"`
	SiteID    string                 `json:"site_id,omitempty"`
	Payload   map[string]interface{} `json:"payload"`
	Timestamp time.Time              `json:"timestamp"`
}

// NewEvent creates a new domain event with a generated ID and the current time
func NewEvent(eventType Type, siteID string, payload map[string]interface{}) *Event {
	if payload == nil {
		payload = make(map[string]interface{})
	}
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		SiteID:    siteID,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// ForSession returns a copy of the event bound to a kiosk session
func (e *Event) ForSession(sessionID string) *Event {
	cp := e.clone()
	cp.SessionID = sessionID
	return cp
}

// ForVisit returns a copy of the event bound to a visit record
func (e *Event) ForVisit(visitID string) *Event {
	cp := e.clone()
	cp.VisitID = visitID
	return cp
}

// GetPayloadString retrieves a string value from the payload
func (e *Event) GetPayloadString(key string) string {
	if val, ok := e.Payload[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

// GetPayloadFloat retrieves a float64 value from the payload
func (e *Event) GetPayloadFloat(key string) float64 {
	if val, ok := e.Payload[key]; ok {
		switch v := val.(type) {
		case float64:
			return v
		case int64:
			return float64(v)
		case int:
			return float64(v)
		case time.Duration:
			return v.Seconds()
		}
	}
	return 0.0
}

func (e *Event) clone() *Event {
	payload := make(map[string]interface{}, len(e.Payload)+1)
	for k, v := range e.Payload {
		payload[k] = v
	}
	cp := *e
	cp.Payload = payload
	return &cp
}

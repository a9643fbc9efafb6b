package game

// EventKind names a one-shot notification for audio and UI sinks.
type EventKind string

const (
	EventHit          EventKind = "hit"
	EventPower        EventKind = "power"
	EventCoin         EventKind = "coin"
	EventBossWarning  EventKind = "boss-warning"
	EventBossRoar     EventKind = "boss-roar"
	EventBossActive   EventKind = "boss-active"
	EventBossAttack   EventKind = "boss-attack"
	EventBossDefeated EventKind = "boss-defeated"
	EventGameOver     EventKind = "game-over"
	EventCalibrated   EventKind = "calibrated"
	EventSessionStart EventKind = "session-start"
	EventShieldRaised EventKind = "shield"
)

// Event is emitted by Tick and Apply. Score is set for game-over and
// boss-defeated, Phase for boss attacks.
type Event struct {
	Kind  EventKind `json:"kind" msgpack:"kind"`
	Score int       `json:"score,omitempty" msgpack:"score,omitempty"`
	Phase int       `json:"phase,omitempty" msgpack:"phase,omitempty"`
}

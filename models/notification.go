package models

// NotifyTarget identifies a party reachable by the notifier.
type NotifyTarget struct {
	Role ActorRole
	ID   string
}

// NotifyMessage is a structured, channel-agnostic notification payload.
type NotifyMessage struct {
	Type  string
	Title string
	Body  string
	Data  map[string]string
}

package websocket

// Message defines the structure for websocket messages sent to the
// moderation feed.
type Message struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload"`
}

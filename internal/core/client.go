package core

// Client is a live-feed connection as seen by the core layer.
type Client struct {
	ID       string
	Username string
	Events   chan *Event
}

// NewClient constructs a client with an initialized event buffer.
func NewClient(id, username string) *Client {
	return &Client{
		ID:       id,
		Username: username,
		Events:   make(chan *Event, 16),
	}
}

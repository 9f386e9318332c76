package relay

// Client is one websocket connection as seen by the hub.
type Client struct {
	ID     string
	Name   string // empty until the client joins
	Outbox chan []byte
}

// NewClient constructs a client with an initialized outbox.
func NewClient(id string) *Client {
	return &Client{
		ID:     id,
		Outbox: make(chan []byte, 32),
	}
}

func (c *Client) joined() bool {
	return c.Name != ""
}

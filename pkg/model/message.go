package model

// Message is the wire envelope: a bus channel and an opaque payload.
type Message struct {
	Channel string
	Payload []byte
}

// NewMessage builds a Message from a channel and payload bytes.
func NewMessage(channel string, payload []byte) *Message {
	return &Message{Channel: channel, Payload: payload}
}

func (m *Message) String() string {
	return m.Channel + " " + string(m.Payload)
}

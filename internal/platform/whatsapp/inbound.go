package whatsapp

// Envelope is the payload the Cloud API posts to the webhook.
type Envelope struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

type Change struct {
	Field string `json:"field"`
	Value Value  `json:"value"`
}

// Value carries either messages or delivery statuses; only messages are used.
type Value struct {
	MessagingProduct string    `json:"messaging_product"`
	Messages         []Message `json:"messages"`
	Statuses         []Status  `json:"statuses"`
}

type Status struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type Message struct {
	From        string       `json:"from"`
	ID          string       `json:"id"`
	Timestamp   string       `json:"timestamp"`
	Type        string       `json:"type"`
	Text        *Text        `json:"text,omitempty"`
	Interactive *Interactive `json:"interactive,omitempty"`
}

type Text struct {
	Body string `json:"body"`
}

type Interactive struct {
	Type        string `json:"type"`
	ButtonReply *Reply `json:"button_reply,omitempty"`
	ListReply   *Reply `json:"list_reply,omitempty"`
}

type Reply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Inbound is a message reduced to the sender and the text the patient chose.
type Inbound struct {
	ID   string
	From string
	Text string
}

// Messages flattens every entry and change into the text messages they carry.
// Unsupported message types and events without messages are dropped.
func (e *Envelope) Messages() []Inbound {
	var out []Inbound
	for _, entry := range e.Entry {
		for _, ch := range entry.Changes {
			for _, m := range ch.Value.Messages {
				text, ok := m.Body()
				if !ok {
					continue
				}
				out = append(out, Inbound{ID: m.ID, From: m.From, Text: text})
			}
		}
	}
	return out
}

// Body returns the text of a plain or interactive message.
func (m Message) Body() (string, bool) {
	switch m.Type {
	case "text":
		if m.Text == nil {
			return "", false
		}
		return m.Text.Body, true
	case "interactive":
		if m.Interactive == nil {
			return "", false
		}
		if r := m.Interactive.ButtonReply; r != nil {
			return r.Title, true
		}
		if r := m.Interactive.ListReply; r != nil {
			return r.Title, true
		}
	}
	return "", false
}

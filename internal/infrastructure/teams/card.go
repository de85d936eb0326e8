package teams

// Adaptive card payload shapes accepted by Teams incoming webhooks / workflows.

const (
	cardContentType = "application/vnd.microsoft.card.adaptive"
	cardSchema      = "http://adaptivecards.io/schemas/adaptive-card.json"
	cardVersion     = "1.0"
)

type message struct {
	Type        string       `json:"type"`
	Attachments []attachment `json:"attachments"`
}

type attachment struct {
	ContentType string      `json:"contentType"`
	Content     cardContent `json:"content"`
}

type cardContent struct {
	Type    string  `json:"type"`
	Body    []block `json:"body"`
	Schema  string  `json:"$schema"`
	Version string  `json:"version"`
}

// block is either a TextBlock or an Image; unused fields are omitted.
type block struct {
	Type    string `json:"type"`
	Text    string `json:"text,omitempty"`
	Weight  string `json:"weight,omitempty"`
	Size    string `json:"size,omitempty"`
	URL     string `json:"url,omitempty"`
	AltText string `json:"altText,omitempty"`
}

type cardBuilder struct {
	blocks []block
}

func (b *cardBuilder) title(text string) *cardBuilder {
	b.blocks = append(b.blocks, block{Type: "TextBlock", Text: text, Weight: "Bolder", Size: "Large"})
	return b
}

func (b *cardBuilder) description(text string) *cardBuilder {
	b.blocks = append(b.blocks, block{Type: "TextBlock", Text: text})
	return b
}

func (b *cardBuilder) image(url, altText string) *cardBuilder {
	b.blocks = append(b.blocks, block{Type: "Image", URL: url, AltText: altText})
	return b
}

func (b *cardBuilder) message() message {
	return message{
		Type: "message",
		Attachments: []attachment{{
			ContentType: cardContentType,
			Content: cardContent{
				Type:    "AdaptiveCard",
				Body:    b.blocks,
				Schema:  cardSchema,
				Version: cardVersion,
			},
		}},
	}
}

package slack

import "encoding/json"

// Message is a chat message: a plain-text fallback plus optional Block Kit
// blocks.
type Message struct {
	Text   string
	Blocks []Block
}

// Block is one Block Kit layout block.
type Block struct {
	Type     string    `json:"type"`
	Text     *Text     `json:"text,omitempty"`
	Fields   []Text    `json:"fields,omitempty"`
	Elements []Element `json:"elements,omitempty"`
}

// Text is a Block Kit text object.
type Text struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

// Element is an interactive or contextual block element. Buttons carry a
// text object and a URL; mrkdwn context elements carry their text inline
// as a plain string, which MarshalJSON handles.
type Element struct {
	Type    string `json:"type"`
	Text    *Text  `json:"text,omitempty"`
	URL     string `json:"url,omitempty"`
	RawText string `json:"-"`
}

// MarshalJSON encodes context elements with their string text and every
// other element with the object form.
func (e Element) MarshalJSON() ([]byte, error) {
	if e.RawText != "" {
		return json.Marshal(struct {
			Type string `json:"type"`
			Text string `json:"text"`
		}{Type: e.Type, Text: e.RawText})
	}
	type alias Element
	return json.Marshal(alias(e))
}

// PlainText builds a plain_text object.
func PlainText(text string) Text {
	return Text{Type: "plain_text", Text: text, Emoji: true}
}

// Markdown builds an mrkdwn text object.
func Markdown(text string) Text {
	return Text{Type: "mrkdwn", Text: text}
}

// HeaderBlock builds a header block.
func HeaderBlock(text string) Block {
	header := PlainText(text)
	return Block{Type: "header", Text: &header}
}

// SectionBlock builds a section with markdown fields laid out in columns.
func SectionBlock(fields ...Text) Block {
	return Block{Type: "section", Fields: fields}
}

// TextSectionBlock builds a section with a single markdown body.
func TextSectionBlock(text string) Block {
	body := Markdown(text)
	return Block{Type: "section", Text: &body}
}

// DividerBlock builds a divider.
func DividerBlock() Block {
	return Block{Type: "divider"}
}

// ContextBlock builds a context block from markdown fragments.
func ContextBlock(fragments ...string) Block {
	elements := make([]Element, 0, len(fragments))
	for _, fragment := range fragments {
		elements = append(elements, Element{Type: "mrkdwn", RawText: fragment})
	}
	return Block{Type: "context", Elements: elements}
}

// ActionsBlock builds an actions block of link buttons.
func ActionsBlock(buttons ...Element) Block {
	return Block{Type: "actions", Elements: buttons}
}

// LinkButton builds a button element that opens a URL.
func LinkButton(label, url string) Element {
	text := PlainText(label)
	return Element{Type: "button", Text: &text, URL: url}
}

package alexa

import (
	"bytes"
	"encoding/xml"
	"html"
	"strings"
)

const responseVersion = "1.0"

type ResponseEnvelope struct {
	Version           string         `json:"version"`
	SessionAttributes map[string]any `json:"sessionAttributes,omitempty"`
	Response          Response       `json:"response"`
}

type Response struct {
	OutputSpeech     *OutputSpeech `json:"outputSpeech,omitempty"`
	Reprompt         *Reprompt     `json:"reprompt,omitempty"`
	Card             *Card         `json:"card,omitempty"`
	Directives       []Directive   `json:"directives,omitempty"`
	ShouldEndSession *bool         `json:"shouldEndSession,omitempty"`
}

type OutputSpeech struct {
	Type string `json:"type"`
	SSML string `json:"ssml,omitempty"`
	Text string `json:"text,omitempty"`
}

type Reprompt struct {
	OutputSpeech *OutputSpeech `json:"outputSpeech"`
}

type Card struct {
	Type        string   `json:"type"`
	Permissions []string `json:"permissions,omitempty"`
}

type Directive struct {
	Type string `json:"type"`
}

const (
	speechSSML         = "SSML"
	cardConsent        = "AskForPermissionsConsent"
	directiveDelegate  = "Dialog.Delegate"
	ssmlOpen, ssmlShut = "<speak>", "</speak>"
)

// ResponseBuilder assembles a ResponseEnvelope. The zero value is ready.
type ResponseBuilder struct {
	r Response
}

func NewResponse() *ResponseBuilder { return &ResponseBuilder{} }

// Speak sets the spoken output.
func (b *ResponseBuilder) Speak(text string) *ResponseBuilder {
	b.r.OutputSpeech = ssml(text)
	return b
}

// Reprompt sets the reprompt and keeps the session open.
func (b *ResponseBuilder) Reprompt(text string) *ResponseBuilder {
	b.r.Reprompt = &Reprompt{OutputSpeech: ssml(text)}
	open := false
	b.r.ShouldEndSession = &open
	return b
}

// AskForPermissionsConsent attaches a consent card naming scopes.
func (b *ResponseBuilder) AskForPermissionsConsent(scopes ...string) *ResponseBuilder {
	b.r.Card = &Card{Type: cardConsent, Permissions: append([]string(nil), scopes...)}
	return b
}

// Delegate hands dialog management back to the platform.
func (b *ResponseBuilder) Delegate() *ResponseBuilder {
	b.r.Directives = append(b.r.Directives, Directive{Type: directiveDelegate})
	return b
}

func (b *ResponseBuilder) Build() ResponseEnvelope {
	return ResponseEnvelope{Version: responseVersion, Response: b.r}
}

func ssml(text string) *OutputSpeech {
	var buf bytes.Buffer
	buf.WriteString(ssmlOpen)
	_ = xml.EscapeText(&buf, []byte(text))
	buf.WriteString(ssmlShut)
	return &OutputSpeech{Type: speechSSML, SSML: buf.String()}
}

// SpeechText returns the plain text inside an SSML speech, for logs and tests.
func (o *OutputSpeech) SpeechText() string {
	if o == nil {
		return ""
	}
	if o.Text != "" {
		return o.Text
	}
	s := strings.TrimSuffix(strings.TrimPrefix(o.SSML, ssmlOpen), ssmlShut)
	return html.UnescapeString(s)
}

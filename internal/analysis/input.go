package analysis

import "strings"

// Input holds the topic being edited and gates submission on the session.
type Input struct {
	topic   string
	session *Session
}

func NewInput(session *Session) *Input {
	return &Input{session: session}
}

func (in *Input) SetTopic(text string) { in.topic = text }

func (in *Input) Topic() string { return in.topic }

func (in *Input) CanSubmit() bool {
	return strings.TrimSpace(in.topic) != "" && !in.session.Pending()
}

// Submit starts an analysis of the trimmed topic. It returns false without
// side effects when submission is not currently allowed.
func (in *Input) Submit() (*Request, bool) {
	if !in.CanSubmit() {
		return nil, false
	}
	return in.session.Start(strings.TrimSpace(in.topic)), true
}

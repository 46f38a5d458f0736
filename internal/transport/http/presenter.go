package http

type textPayload struct {
	Text string `json:"text"`
}

type timePayload struct {
	Remaining string `json:"remaining"`
}

type progressPayload struct {
	Fraction float64 `json:"fraction"`
}

type redirectPayload struct {
	Target string `json:"target"`
}

// presenter turns session output into websocket messages. Messages pushed
// after the connection is torn down are dropped.
type presenter struct {
	send    chan<- outboundMessage[any]
	closing <-chan struct{}
}

func newPresenter(send chan<- outboundMessage[any], closing <-chan struct{}) *presenter {
	return &presenter{send: send, closing: closing}
}

func (p *presenter) push(typ string, payload any) {
	select {
	case p.send <- outboundMessage[any]{Type: typ, Payload: payload}:
	case <-p.closing:
	}
}

func (p *presenter) ShowMeaning(meaning string) { p.push("meaning", textPayload{Text: meaning}) }

func (p *presenter) ClearInputs() { p.push("clear", struct{}{}) }

func (p *presenter) ShowTime(remaining string) { p.push("time", timePayload{Remaining: remaining}) }

func (p *presenter) ShowProgress(fraction float64) {
	p.push("progress", progressPayload{Fraction: fraction})
}

func (p *presenter) ShowMessage(text string) { p.push("message", textPayload{Text: text}) }

func (p *presenter) Navigate(target string) { p.push("redirect", redirectPayload{Target: target}) }

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"vocab-quiz/internal/app"
	"vocab-quiz/internal/domain"
)

type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
	log      logrus.FieldLogger
}

func NewWSHandler(service *app.QuizService, log logrus.FieldLogger) *WSHandler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &WSHandler{
		service: service,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	Key  string `json:"key"`
	Pos  string `json:"pos"`
	Word string `json:"word"`
}

type answerResult struct {
	Record domain.AnswerRecord `json:"record"`
}

type sessionPayload struct {
	ID    string `json:"id"`
	State string `json:"state"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and runs one quiz session for the lifetime of the connection.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "Guest"
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("ws upgrade failed")
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 64)
	closing := make(chan struct{})
	writerDone := make(chan struct{})

	// Single writer. After a write error it keeps draining so presenters never block.
	go func() {
		defer close(writerDone)
		failed := false
		for {
			select {
			case msg := <-send:
				if failed {
					continue
				}
				if err := conn.WriteJSON(msg); err != nil {
					h.log.WithError(err).Debug("ws write error")
					failed = true
					_ = conn.Close()
				}
			case <-closing:
				return
			}
		}
	}()

	view := newPresenter(send, closing)
	session, err := h.service.Begin(r.Context(), view, name)
	log := h.log.WithFields(logrus.Fields{"session": session.ID(), "name": name})
	switch {
	case errors.Is(err, domain.ErrNoContent):
		log.Info("session opened without vocabulary")
	case err != nil:
		log.WithError(err).Warn("session failed to start")
	}
	view.push("session", sessionPayload{ID: session.ID(), State: session.State().String()})

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		var payload answerPayload
		if len(inbound.Payload) > 0 {
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				view.push("error", errorPayload{Message: "invalid answer payload"})
				continue
			}
		}

		var (
			rec     domain.AnswerRecord
			handled = true
		)
		switch inbound.Type {
		case "submit":
			rec, err = h.service.Submit(session.ID(), payload.Pos, payload.Word)
		case "skip":
			rec, err = h.service.Skip(session.ID(), payload.Pos, payload.Word)
		case "key":
			rec, handled, err = h.service.Key(session.ID(), payload.Key, payload.Pos, payload.Word)
		default:
			view.push("error", errorPayload{Message: "unsupported message type"})
			continue
		}
		if err != nil {
			view.push("error", errorPayload{Message: err.Error()})
			continue
		}
		if handled {
			view.push("answerResult", answerResult{Record: rec})
		}
	}

	h.service.End(session.ID())
	log.WithField("outcome", session.Outcome().String()).Info("session connection closed")
	close(closing)
	<-writerDone
}

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
)

// Role of a connection within a session room.
const (
	RoleHost   = "host"
	RolePlayer = "player"
)

// Gateway upgrades client connections, routes inbound events to the
// matching session actor, and fans session broadcasts out to every
// connection in the room.
type Gateway struct {
	registry app.SessionRegistry
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewGateway(registry app.SessionRegistry, log zerolog.Logger) *Gateway {
	return &Gateway{
		registry: registry,
		log:      log,
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

type joinPayload struct {
	ParticipantName string `json:"participantName"`
	ParticipantID   string `json:"participantId,omitempty"`
}

type submitAnswerPayload struct {
	Answer         domain.Answer `json:"answer"`
	ElapsedSeconds float64       `json:"elapsedSeconds"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and attaches them to a
// session room. Hosts create the session (or reattach to a live one);
// players join with a join event after connecting.
func (g *Gateway) ServeWS(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	role := r.URL.Query().Get("role")
	if sessionID == "" || (role != RoleHost && role != RolePlayer) {
		http.Error(w, "missing sessionId or role", http.StatusBadRequest)
		return
	}

	var session *app.Session
	var err error
	if role == RoleHost {
		quizID := r.URL.Query().Get("quizId")
		session, err = g.registry.Create(r.Context(), sessionID, quizID)
		if errors.Is(err, domain.ErrSessionExists) {
			// Host reconnect: attach to the running session.
			session, _ = g.registry.Get(sessionID)
			err = nil
		}
		if session == nil && err == nil {
			err = domain.ErrSessionNotFound
		}
	} else {
		var ok bool
		session, ok = g.registry.Get(sessionID)
		if !ok {
			err = domain.ErrSessionNotFound
		}
	}

	conn, upgradeErr := g.upgrader.Upgrade(w, r, nil)
	if upgradeErr != nil {
		g.log.Warn().Err(upgradeErr).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	g.serveConn(conn, session, role)
}

// serveConn runs one connection's lifetime: a writer goroutine owns
// all websocket writes, a forwarder moves session broadcasts into the
// writer, and the read loop dispatches inbound events.
func (g *Gateway) serveConn(conn *websocket.Conn, session *app.Session, role string) {
	updates, cancel := session.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				g.log.Debug().Err(err).Msg("ws write error")
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case ev, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: ev.Type, Payload: ev.Payload}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	participantID := g.readLoop(conn, session, role, send)

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone

	if participantID != "" {
		session.Detach(participantID)
	}
}

// readLoop dispatches inbound events until the connection drops and
// returns the participant ID bound to the connection, if any.
func (g *Gateway) readLoop(conn *websocket.Conn, session *app.Session, role string, send chan<- outboundMessage[any]) string {
	participantID := ""
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return participantID
		}

		switch {
		case inbound.Type == "join" && role == RolePlayer:
			var payload joinPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.ParticipantName == "" {
				send <- errorMessage("invalid join payload")
				continue
			}
			participant, err := session.Join(payload.ParticipantID, payload.ParticipantName)
			if err != nil {
				send <- errorMessage(err.Error())
				continue
			}
			participantID = participant.ID
			send <- outboundMessage[any]{Type: "joined", Payload: participant}

		case inbound.Type == "submitAnswer" && role == RolePlayer:
			if participantID == "" {
				send <- errorMessage("join before submitting answers")
				continue
			}
			var payload submitAnswerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errorMessage("invalid answer payload")
				continue
			}
			ack, err := session.SubmitAnswer(participantID, payload.Answer, int(payload.ElapsedSeconds*1000))
			if err != nil {
				send <- errorMessage(err.Error())
				continue
			}
			send <- outboundMessage[any]{Type: "answerResult", Payload: ack}

		case inbound.Type == "start" && role == RoleHost:
			if err := session.Start(); err != nil {
				send <- errorMessage(err.Error())
			}

		case inbound.Type == "endQuestionEarly" && role == RoleHost:
			if err := session.EndQuestionEarly(); err != nil {
				send <- errorMessage(err.Error())
			}

		default:
			send <- errorMessage("unsupported message type for role")
		}
	}
}

func errorMessage(msg string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg}}
}

package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"lms-challenge-service/internal/app"
	"lms-challenge-service/internal/challenge"
	"lms-challenge-service/internal/domain"
)

// ChallengeHandler runs one chapter challenge per websocket connection.
type ChallengeHandler struct {
	service       *app.ChallengeService
	upgrader      websocket.Upgrader
	feedbackDelay time.Duration
	tickInterval  time.Duration
}

// NewChallengeHandler builds the handler. feedbackDelay is how long an
// answered question stays on screen; tickInterval is one countdown second.
func NewChallengeHandler(service *app.ChallengeService, feedbackDelay, tickInterval time.Duration) *ChallengeHandler {
	if tickInterval <= 0 {
		tickInterval = time.Second
	}
	return &ChallengeHandler{
		service:       service,
		upgrader:      newUpgrader(),
		feedbackDelay: feedbackDelay,
		tickInterval:  tickInterval,
	}
}

func newUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectPowersPayload struct {
	Powers []domain.Power `json:"powers"`
}

type activatePowerPayload struct {
	Power domain.Power `json:"power"`
}

type answerPayload struct {
	Option string `json:"option"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type powerEffectPayload struct {
	Effect challenge.Effect `json:"effect"`
	View   challenge.View   `json:"view"`
}

type answerResultPayload struct {
	Result challenge.AnswerResult `json:"result"`
	View   challenge.View         `json:"view"`
}

type timeoutPayload struct {
	Event challenge.Event `json:"event"`
	View  challenge.View  `json:"view"`
}

type completedPayload struct {
	RunID        string             `json:"runId"`
	Attempt      domain.QuizAttempt `json:"attempt"`
	PersistError string             `json:"persistError,omitempty"`
}

type connection struct {
	send         chan outboundMessage[any]
	closeSignals chan struct{}
}

func (c connection) push(typ string, payload any) bool {
	select {
	case c.send <- outboundMessage[any]{Type: typ, Payload: payload}:
		return true
	case <-c.closeSignals:
		return false
	}
}

func (c connection) fail(err error) {
	c.push("error", errorPayload{Message: err.Error()})
}

// progress emits a state update, or the completion message once the run is
// finished. It reports whether the run is finished.
func (c connection) progress(p app.Progress) bool {
	if p.Attempt == nil {
		c.push("state", p)
		return false
	}
	done := completedPayload{RunID: p.RunID, Attempt: *p.Attempt}
	if p.PersistErr != nil {
		done.PersistError = p.PersistErr.Error()
	}
	c.push("completed", done)
	return true
}

// ServeWS upgrades the request and plays a challenge for the chapter until
// it completes or the socket closes. A closed socket abandons the run.
func (h *ChallengeHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	courseID := r.URL.Query().Get("courseId")
	chapterID := r.URL.Query().Get("chapterId")
	userID := r.URL.Query().Get("userId")
	if courseID == "" || chapterID == "" || userID == "" {
		http.Error(w, "missing courseId, chapterId, or userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	started, err := h.service.Start(ctx, userID, courseID, chapterID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	runID := started.RunID
	defer h.service.Abandon(context.Background(), runID)

	c := connection{
		send:         make(chan outboundMessage[any], 16),
		closeSignals: make(chan struct{}),
	}
	pending := make(chan int, 1)
	writerDone := make(chan struct{})
	pumpDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range c.send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(pumpDone)
		h.pump(ctx, runID, c, pending)
	}()

	c.push("state", started)

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "selectPowers":
			var payload selectPowersPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				c.push("error", errorPayload{Message: "invalid selectPowers payload"})
				continue
			}
			p, err := h.service.SelectPowers(ctx, runID, payload.Powers)
			if err != nil {
				c.fail(err)
				continue
			}
			c.progress(p)
		case "activatePower":
			var payload activatePowerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				c.push("error", errorPayload{Message: "invalid activatePower payload"})
				continue
			}
			effect, p, err := h.service.ActivatePower(ctx, runID, payload.Power)
			if err != nil {
				c.fail(err)
				continue
			}
			c.push("powerEffect", powerEffectPayload{Effect: effect, View: p.View})
			if p.Attempt != nil {
				c.progress(p)
			}
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				c.push("error", errorPayload{Message: "invalid answer payload"})
				continue
			}
			result, p, err := h.service.Answer(ctx, runID, payload.Option)
			if err != nil {
				c.fail(err)
				continue
			}
			c.push("answerResult", answerResultPayload{Result: result, View: p.View})
			if !result.Retry {
				schedule(pending, result.Question)
			}
		case "next":
			p, err := h.service.Advance(ctx, runID)
			if err != nil {
				c.fail(err)
				continue
			}
			c.progress(p)
		default:
			c.push("error", errorPayload{Message: "unsupported message type"})
		}
	}

	close(c.closeSignals)
	<-pumpDone
	close(c.send)
	<-writerDone
}

// schedule replaces any pending advance with one for question.
func schedule(pending chan int, question int) {
	select {
	case <-pending:
	default:
	}
	pending <- question
}

// pump owns the run's clock. It ticks the countdown and advances answered
// questions once the feedback delay has passed.
func (h *ChallengeHandler) pump(ctx context.Context, runID string, c connection, pending <-chan int) {
	ticker := time.NewTicker(h.tickInterval)
	defer ticker.Stop()

	var (
		advanceC <-chan time.Time
		timer    *time.Timer
		question int
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-c.closeSignals:
			return
		case <-ticker.C:
			events, p, err := h.service.Tick(ctx, runID, 1)
			if err != nil {
				return
			}
			for _, ev := range events {
				switch ev.Kind {
				case challenge.EventTimeout:
					c.push("timeout", timeoutPayload{Event: ev, View: p.View})
				case challenge.EventSelectionExpired:
					log.Printf("run %s: power selection expired", runID)
				}
			}
			if c.progress(p) {
				return
			}
		case question = <-pending:
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(h.feedbackDelay)
			advanceC = timer.C
		case <-advanceC:
			advanceC = nil
			snap, err := h.service.Snapshot(ctx, runID)
			if err != nil {
				return
			}
			// The player may already have moved on with "next".
			if snap.View.State != challenge.StateAwaitingAdvance || snap.View.Question != question {
				continue
			}
			p, err := h.service.Advance(ctx, runID)
			if errors.Is(err, domain.ErrRunNotFound) {
				return
			}
			if err != nil {
				if !errors.Is(err, domain.ErrInvalidState) {
					c.fail(err)
				}
				continue
			}
			if c.progress(p) {
				return
			}
		}
	}
}

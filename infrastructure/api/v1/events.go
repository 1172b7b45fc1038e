package v1

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/helixml/careerpath"
	"github.com/helixml/careerpath/domain/interaction"
	"github.com/helixml/careerpath/infrastructure/api/middleware"
	"github.com/helixml/careerpath/infrastructure/api/v1/dto"
)

// EventsRouter handles interaction event tracking.
type EventsRouter struct {
	client *careerpath.Client
	logger *slog.Logger
}

// NewEventsRouter creates a new EventsRouter.
func NewEventsRouter(client *careerpath.Client) *EventsRouter {
	return &EventsRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Routes returns the router mounted at /career-event.
func (r *EventsRouter) Routes() chi.Router {
	router := chi.NewRouter()
	router.Post("/", r.Record)
	return router
}

// Record handles POST /career-event.
func (r *EventsRouter) Record(w http.ResponseWriter, req *http.Request) {
	var body dto.CareerEventRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	eventType, err := interaction.ParseEventType(body.EventType)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	e := interaction.Event{
		UserID:     body.UserID,
		SessionID:  body.SessionID,
		JobID:      body.JobID,
		Type:       eventType,
		RankPos:    body.RankPos,
		ScoreShown: body.ScoreShown,
	}
	if body.Timestamp != nil {
		e.Timestamp = *body.Timestamp
	}

	saved, err := r.client.Events.Record(req.Context(), e)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, dto.CareerEventResponse{
		ID:        saved.ID,
		Timestamp: saved.Timestamp,
	})
}

package v1

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/helixml/careerpath"
	"github.com/helixml/careerpath/domain/bandit"
	"github.com/helixml/careerpath/domain/errs"
	"github.com/helixml/careerpath/infrastructure/api/middleware"
	"github.com/helixml/careerpath/infrastructure/api/v1/dto"
	"github.com/helixml/careerpath/internal/log"
)

// RecsRouter handles ranking and recommendation endpoints.
type RecsRouter struct {
	client *careerpath.Client
	logger *slog.Logger
}

// NewRecsRouter creates a new RecsRouter.
func NewRecsRouter(client *careerpath.Client) *RecsRouter {
	return &RecsRouter{
		client: client,
		logger: client.Logger(),
	}
}

// RankRoutes returns the router mounted at /rank.
func (r *RecsRouter) RankRoutes() chi.Router {
	router := chi.NewRouter()
	router.Post("/", r.Rank)
	return router
}

// Routes returns the router mounted at /recs.
func (r *RecsRouter) Routes() chi.Router {
	router := chi.NewRouter()
	router.Post("/top_careers", r.TopCareers)
	router.Get("/policy", r.GetPolicy)
	router.Put("/policy", r.PutPolicy)
	return router
}

// Rank handles POST /rank. It returns the ranker's ordering of the
// retrieved candidates without bandit selection.
func (r *RecsRouter) Rank(w http.ResponseWriter, req *http.Request) {
	var body dto.RankRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	if body.UserID <= 0 {
		middleware.WriteError(w, req, errs.Validationf("user_id must be positive"), r.logger)
		return
	}
	ctx := log.WithUserID(req.Context(), body.UserID)

	ranked, err := r.client.Recommend.Rank(ctx, body.UserID, body.TopK)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	items := make([]dto.RankedItem, 0, len(ranked))
	for _, it := range ranked {
		items = append(items, dto.RankedItem{JobID: it.JobID, Score: it.Score})
	}
	middleware.WriteJSON(w, http.StatusOK, dto.RankResponse{UserID: body.UserID, Items: items})
}

// TopCareers handles POST /recs/top_careers. Empty retrieval is a 404 and
// the ranker is not called; an empty ranking over real candidates is a 500.
func (r *RecsRouter) TopCareers(w http.ResponseWriter, req *http.Request) {
	var body dto.TopCareersRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	if body.UserID <= 0 {
		middleware.WriteError(w, req, errs.Validationf("user_id must be positive"), r.logger)
		return
	}
	ctx := log.WithUserID(req.Context(), body.UserID)

	final, err := r.client.Recommend.TopCareers(ctx, body.UserID, body.TopK, body.SessionID)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	items := make([]dto.CareerItem, 0, len(final))
	for _, it := range final {
		items = append(items, dto.CareerItem{CareerID: it.CareerID, FinalScore: it.FinalScore})
	}
	middleware.WriteJSON(w, http.StatusOK, dto.TopCareersResponse{Items: items})
}

// GetPolicy handles GET /recs/policy.
func (r *RecsRouter) GetPolicy(w http.ResponseWriter, _ *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, policyToDTO(r.client.Recommend.Policy()))
}

// PutPolicy handles PUT /recs/policy. The new policy applies to the next
// selection; in-flight requests keep the old one.
func (r *RecsRouter) PutPolicy(w http.ResponseWriter, req *http.Request) {
	var body dto.PolicyBody
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	cfg, err := r.client.Recommend.SetPolicy(req.Context(), bandit.Config{
		Name:        body.Name,
		Epsilon:     body.Epsilon,
		Temperature: body.Temperature,
	})
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, policyToDTO(cfg))
}

func policyToDTO(c bandit.Config) dto.PolicyBody {
	return dto.PolicyBody{Name: c.Name, Epsilon: c.Epsilon, Temperature: c.Temperature}
}

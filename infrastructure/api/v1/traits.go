// Package v1 provides the v1 API routes.
package v1

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/helixml/careerpath"
	"github.com/helixml/careerpath/domain/trait"
	"github.com/helixml/careerpath/infrastructure/api/middleware"
	"github.com/helixml/careerpath/infrastructure/api/v1/dto"
)

// TraitsRouter handles essay inference and trait snapshot endpoints.
type TraitsRouter struct {
	client *careerpath.Client
	logger *slog.Logger
}

// NewTraitsRouter creates a new TraitsRouter.
func NewTraitsRouter(client *careerpath.Client) *TraitsRouter {
	return &TraitsRouter{
		client: client,
		logger: client.Logger(),
	}
}

// InferRoutes returns the router mounted at /ai.
func (r *TraitsRouter) InferRoutes() chi.Router {
	router := chi.NewRouter()
	router.Post("/infer_user_traits", r.Infer)
	return router
}

// UserRoutes returns the router mounted at /users.
func (r *TraitsRouter) UserRoutes() chi.Router {
	router := chi.NewRouter()
	router.Get("/{id}/traits", r.Latest)
	router.Get("/{id}/traits/history", r.History)
	router.Post("/{id}/traits/essay", r.SaveEssay)
	router.Post("/{id}/traits/test", r.SaveTest)
	return router
}

// Infer handles POST /ai/infer_user_traits.
func (r *TraitsRouter) Infer(w http.ResponseWriter, req *http.Request) {
	var body dto.InferTraitsRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	inf, err := r.client.Traits.Infer(req.Context(), body.EssayText, body.Lang)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, inferenceToDTO(inf))
}

// SaveEssay handles POST /users/{id}/traits/essay. It infers traits, fuses
// them with the user's latest questionnaire scores and stores a snapshot.
func (r *TraitsRouter) SaveEssay(w http.ResponseWriter, req *http.Request) {
	userID, err := userIDParam(req)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	var body dto.InferTraitsRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	snap, inf, err := r.client.Traits.SaveEssay(req.Context(), userID, body.EssayText, body.Lang)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, dto.EssaySnapshotResponse{
		Inference: inferenceToDTO(inf),
		Snapshot:  snapshotToDTO(snap),
	})
}

// SaveTest handles POST /users/{id}/traits/test.
func (r *TraitsRouter) SaveTest(w http.ResponseWriter, req *http.Request) {
	userID, err := userIDParam(req)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	var body dto.TestScoresRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	snap, err := r.client.Traits.SaveTest(req.Context(), userID, trait.Scores{
		RIASEC:  body.RIASEC,
		BigFive: body.BigFive,
	})
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, snapshotToDTO(snap))
}

// Latest handles GET /users/{id}/traits.
func (r *TraitsRouter) Latest(w http.ResponseWriter, req *http.Request) {
	userID, err := userIDParam(req)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	snap, err := r.client.Traits.Latest(req.Context(), userID)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, snapshotToDTO(snap))
}

// History handles GET /users/{id}/traits/history, newest first.
func (r *TraitsRouter) History(w http.ResponseWriter, req *http.Request) {
	userID, err := userIDParam(req)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	limit := 0
	if s := req.URL.Query().Get("limit"); s != "" {
		limit, err = strconv.Atoi(s)
		if err != nil || limit < 0 {
			middleware.WriteError(w, req, middleware.NewAPIError(http.StatusBadRequest, "limit must be a non-negative integer", err), r.logger)
			return
		}
	}

	snaps, err := r.client.Traits.History(req.Context(), userID, limit)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	data := make([]dto.TraitSnapshotResponse, 0, len(snaps))
	for _, s := range snaps {
		data = append(data, snapshotToDTO(s))
	}
	middleware.WriteJSON(w, http.StatusOK, dto.TraitHistoryResponse{Data: data})
}

func userIDParam(req *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(req, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, middleware.NewAPIError(http.StatusBadRequest, "user id must be a positive integer", err)
	}
	return id, nil
}

func inferenceToDTO(inf trait.Inference) dto.InferTraitsResponse {
	return dto.InferTraitsResponse{
		DetectedLang:  inf.DetectedLang,
		UsedLang:      inf.UsedLang,
		EssayOriginal: inf.Original,
		EssayUsed:     inf.Clean,
		RIASEC:        inf.RIASEC,
		BigFive:       inf.BigFive,
		EmbeddingDim:  len(inf.Embedding),
		Embedding:     inf.Embedding,
	}
}

func snapshotToDTO(s trait.Snapshot) dto.TraitSnapshotResponse {
	return dto.TraitSnapshotResponse{
		ID:           s.ID,
		UserID:       s.UserID,
		RIASECTest:   s.Test.RIASEC,
		BigFiveTest:  s.Test.BigFive,
		RIASECEssay:  s.Essay.RIASEC,
		BigFiveEssay: s.Essay.BigFive,
		RIASECFused:  s.RIASECFused,
		BigFiveFused: s.BigFiveFused,
		HasTest:      s.HasTest(),
		HasEssay:     s.HasEssay(),
		CreatedAt:    s.CreatedAt,
	}
}

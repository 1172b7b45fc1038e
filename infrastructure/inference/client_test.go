package inference

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixml/careerpath/domain/errs"
	"github.com/helixml/careerpath/domain/essay"
	"github.com/helixml/careerpath/infrastructure/api/v1/dto"
)

func validResponse(req dto.InferTraitsRequest) dto.InferTraitsResponse {
	return dto.InferTraitsResponse{
		DetectedLang:  "en",
		UsedLang:      "en",
		EssayOriginal: req.EssayText,
		EssayUsed:     req.EssayText,
		RIASEC:        []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6},
		BigFive:       []float64{0.5, 0.5, 0.5, 0.5, 0.5},
		EmbeddingDim:  3,
		Embedding:     []float64{1, 0, 0},
	}
}

func inferServer(t *testing.T, calls *atomic.Int64, handle func(w http.ResponseWriter, req dto.InferTraitsRequest)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != inferPath || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var body dto.InferTraitsRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		handle(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Infer(t *testing.T) {
	var calls atomic.Int64
	srv := inferServer(t, &calls, func(w http.ResponseWriter, req dto.InferTraitsRequest) {
		assert.Equal(t, "en", req.Lang)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(validResponse(req))
	})

	client := NewClient(srv.URL+"/", time.Second)
	got, err := client.Infer(context.Background(), "I like building bridges", essay.LanguageEnglish)
	require.NoError(t, err)

	assert.Equal(t, "I like building bridges", got.Original)
	assert.Equal(t, []float64{1, 0, 0}, got.Embedding)
	assert.Len(t, got.RIASEC, 6)
	assert.Equal(t, "en", got.UsedLang)
}

func TestClient_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{name: "unprocessable", status: http.StatusUnprocessableEntity, want: errs.ErrValidation},
		{name: "unavailable", status: http.StatusServiceUnavailable, want: errs.ErrModelUnavailable},
		{name: "gateway timeout", status: http.StatusGatewayTimeout, want: errs.ErrUpstreamTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int64
			srv := inferServer(t, &calls, func(w http.ResponseWriter, _ dto.InferTraitsRequest) {
				http.Error(w, "nope", tt.status)
			})

			_, err := NewClient(srv.URL, time.Second).Infer(context.Background(), "essay text", essay.LanguageAuto)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestClient_Timeout(t *testing.T) {
	var calls atomic.Int64
	srv := inferServer(t, &calls, func(_ http.ResponseWriter, _ dto.InferTraitsRequest) {
		time.Sleep(500 * time.Millisecond)
	})

	_, err := NewClient(srv.URL, 50*time.Millisecond).Infer(context.Background(), "essay text", essay.LanguageAuto)
	require.ErrorIs(t, err, errs.ErrUpstreamTimeout)
}

func TestClient_RejectsMalformedResponse(t *testing.T) {
	var calls atomic.Int64
	srv := inferServer(t, &calls, func(w http.ResponseWriter, req dto.InferTraitsRequest) {
		resp := validResponse(req)
		resp.EmbeddingDim = 8
		_ = json.NewEncoder(w).Encode(resp)
	})

	_, err := NewClient(srv.URL, time.Second).Infer(context.Background(), "essay text", essay.LanguageAuto)
	require.Error(t, err)
}

func TestClient_RejectsOutOfRangeScores(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*dto.InferTraitsResponse)
	}{
		{"riasec above one", func(r *dto.InferTraitsResponse) { r.RIASEC[2] = 1.5 }},
		{"big five negative", func(r *dto.InferTraitsResponse) { r.BigFive[0] = -0.01 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int64
			srv := inferServer(t, &calls, func(w http.ResponseWriter, req dto.InferTraitsRequest) {
				resp := validResponse(req)
				tt.mutate(&resp)
				_ = json.NewEncoder(w).Encode(resp)
			})

			_, err := NewClient(srv.URL, time.Second).Infer(context.Background(), "essay text", essay.LanguageAuto)
			require.ErrorIs(t, err, errs.ErrValidation)
			assert.Contains(t, err.Error(), "outside [0,1]")
		})
	}
}

func TestClient_Cache(t *testing.T) {
	var calls atomic.Int64
	srv := inferServer(t, &calls, func(w http.ResponseWriter, req dto.InferTraitsRequest) {
		_ = json.NewEncoder(w).Encode(validResponse(req))
	})

	client := NewClient(srv.URL, time.Second, WithCache(NewCache(t.TempDir())))
	first, err := client.Infer(context.Background(), "cached essay", essay.LanguageAuto)
	require.NoError(t, err)
	second, err := client.Infer(context.Background(), "cached essay", essay.LanguageAuto)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), calls.Load())

	_, err = client.Infer(context.Background(), "cached essay", essay.LanguageVietnamese)
	require.NoError(t, err)
	assert.Equal(t, int64(2), calls.Load())
}

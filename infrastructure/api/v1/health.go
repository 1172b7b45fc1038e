package v1

import (
	"net/http"

	"github.com/helixml/careerpath"
	"github.com/helixml/careerpath/infrastructure/api/middleware"
	"github.com/helixml/careerpath/infrastructure/api/v1/dto"
)

// HealthHandler reports liveness and the loaded models.
func HealthHandler(client *careerpath.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		h := client.Health()
		middleware.WriteJSON(w, http.StatusOK, dto.HealthResponse{
			Status:           "ok",
			EncoderLanguages: h.EncoderLanguages,
			IndexSize:        h.IndexSize,
			RankerVersion:    h.RankerVersion,
		})
	}
}

package health

import (
	"encoding/json"
	"net/http"

	"github.com/janisto/subscriber-pipeline/internal/platform/timeutil"
)

const message = "Subscriber Pipeline is running"

// Response is the payload for the health endpoint.
type Response struct {
	Status    string        `json:"status"`
	Message   string        `json:"message"`
	Timestamp timeutil.Time `json:"timestamp"`
}

// Handler is a plain HTTP handler for the health check endpoint.
func Handler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(Response{
		Status:    "healthy",
		Message:   message,
		Timestamp: timeutil.Now(),
	})
}

// Package pipeline exposes the subscriber pipeline as a single HTTP Cloud
// Function. Routing happens inside the shared handler, so /subscribe,
// /unsubscribe, /subscribers, /send-template-email and /health behave as
// they do on the server.
package pipeline

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/janisto/subscriber-pipeline/internal/app"
	"github.com/janisto/subscriber-pipeline/internal/config"
	applog "github.com/janisto/subscriber-pipeline/internal/platform/logging"
	"github.com/janisto/subscriber-pipeline/internal/platform/respond"
)

const initTimeout = 30 * time.Second

func init() {
	functions.HTTP("Pipeline", handle)
}

var (
	initMu  sync.Mutex
	handler http.Handler
)

// handle builds the pipeline on the first request; instances are reused
// across invocations.
func handle(w http.ResponseWriter, r *http.Request) {
	h, err := pipelineHandler()
	if err != nil {
		applog.LogError(r.Context(), "pipeline init failed", err)
		_ = respond.WriteError(w, r.Context(), http.StatusInternalServerError, "", "service misconfigured")
		return
	}
	h.ServeHTTP(w, r)
}

// pipelineHandler keeps the first successfully built handler. A failed build
// is retried by the next request.
func pipelineHandler() (http.Handler, error) {
	initMu.Lock()
	defer initMu.Unlock()
	if handler != nil {
		return handler, nil
	}
	h, err := newHandler(context.Background())
	if err != nil {
		return nil, err
	}
	handler = h
	return h, nil
}

func newHandler(ctx context.Context) (http.Handler, error) {
	cfg, err := config.Parse()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, initTimeout)
	defer cancel()
	a, err := app.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return a.Handler, nil
}

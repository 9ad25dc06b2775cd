package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/lmorales-dev/shopstream-backend/api/middleware"
	"github.com/lmorales-dev/shopstream-backend/api/responses"
	"github.com/lmorales-dev/shopstream-backend/internal/realtime"
	pkgerrors "github.com/lmorales-dev/shopstream-backend/pkg/errors"
	"github.com/lmorales-dev/shopstream-backend/pkg/logger"
)

// Comment frames keep idle proxies from closing the stream.
const sseHeartbeat = 25 * time.Second

// RealtimeEvents streams order events to the connected seller over
// server-sent events. Delivery is fire-and-forget: events published
// while a seller is disconnected are lost.
func RealtimeEvents(hub *realtime.Hub, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "streaming unsupported"))
			return
		}

		frames, cancel := hub.Subscribe(actor.String())
		defer cancel()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)

		fmt.Fprint(w, ": connected\n\n")
		flusher.Flush()

		if logg != nil {
			logg.Info(logg.WithFields(r.Context(), map[string]any{
				"seller_id": middleware.UserIDFromContext(r.Context()),
			}), "realtime.subscribed")
		}

		heartbeat := time.NewTicker(sseHeartbeat)
		defer heartbeat.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case <-heartbeat.C:
				fmt.Fprint(w, ": ping\n\n")
				flusher.Flush()
			case frame, ok := <-frames:
				if !ok {
					return
				}
				writeSSEFrame(w, frame)
				flusher.Flush()
			}
		}
	}
}

// writeSSEFrame unwraps the pub/sub envelope into an SSE event. Frames
// that do not parse are forwarded as plain data so nothing is silently
// swallowed.
func writeSSEFrame(w http.ResponseWriter, frame []byte) {
	var env realtime.Envelope
	if err := json.Unmarshal(frame, &env); err != nil || env.Event == "" {
		fmt.Fprintf(w, "data: %s\n\n", frame)
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", env.Event, env.Data)
}

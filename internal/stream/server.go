package stream

import (
	"fmt"
	"net/http"
)

// NewServeMux routes /ws to the hub and, when metrics is set, /metrics to it.
func NewServeMux(h *Hub, metrics http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/ws", h)
	if metrics != nil {
		mux.Handle("/metrics", metrics)
	}
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "ok clients=%d\n", h.Clients())
	})
	return mux
}

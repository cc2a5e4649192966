// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package bootstrap

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	sigilerr "github.com/sigil-dev/bridge/pkg/errors"
	"github.com/sigil-dev/bridge/pkg/plugin"
	"github.com/sigil-dev/bridge/pkg/types"
)

// Fact is the wire form of a remembered fact.
type Fact struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	EntityID  string    `json:"entityId,omitempty"`
	RoomID    string    `json:"roomId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// FactsResponse is the body of GET /bootstrap/facts.
type FactsResponse struct {
	Facts []Fact `json:"facts"`
}

// serveFacts lists facts, newest first. Query parameters: roomId filters
// by room, count bounds the result (default DefaultFactCount).
func serveFacts(w http.ResponseWriter, r *http.Request, rt plugin.Runtime) {
	count := DefaultFactCount
	if raw := r.URL.Query().Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, sigilerr.Errorf(sigilerr.CodeServerRequestInvalid, "count must be a non-negative integer, got %q", raw))
			return
		}
		count = n
	}

	mems, err := rt.GetMemories(r.Context(), types.MemoryQuery{
		TableName: types.TableFacts,
		RoomID:    r.URL.Query().Get("roomId"),
		Count:     count,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	resp := FactsResponse{Facts: make([]Fact, 0, len(mems))}
	for _, m := range mems {
		resp.Facts = append(resp.Facts, Fact{
			ID:        m.ID,
			Text:      m.Content.Text,
			EntityID:  m.EntityID,
			RoomID:    m.RoomID,
			CreatedAt: m.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("bootstrap: writing response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, sigilerr.HTTPStatus(err), map[string]string{"error": err.Error()})
}

package events

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	coreevents "github.com/kilianp07/bikesim/core/events"
	"github.com/kilianp07/bikesim/core/eventlog"
)

// NewHandler returns an HTTP handler exposing the event log via GET /api/events.
// Supported filters: start and end (RFC3339), kind (name or numeric code),
// origin, bicycle_id and limit. Requests must include an Authorization header
// with "Bearer <token>" when token is non-empty.
func NewHandler(store eventlog.Store, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		q, err := parseQuery(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		evs, err := store.Query(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if evs == nil {
			evs = []coreevents.Event{}
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(evs); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}

func parseQuery(r *http.Request) (eventlog.Query, error) {
	v := r.URL.Query()
	q := eventlog.Query{
		Origin:    v.Get("origin"),
		BicycleID: v.Get("bicycle_id"),
	}
	if s := v.Get("start"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return q, err
		}
		q.Start = t
	}
	if s := v.Get("end"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return q, err
		}
		q.End = t
	}
	if s := v.Get("kind"); s != "" {
		k, err := parseKind(s)
		if err != nil {
			return q, err
		}
		q.Kind = k
	}
	if s := v.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return q, strconv.ErrSyntax
		}
		q.Limit = n
	}
	return q, nil
}

func parseKind(s string) (coreevents.Kind, error) {
	if n, err := strconv.Atoi(s); err == nil {
		k := coreevents.Kind(n)
		if k.Valid() {
			return k, nil
		}
	}
	return coreevents.ParseKind(s)
}

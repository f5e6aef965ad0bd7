package stations

import (
	"encoding/json"
	"net/http"

	"github.com/kilianp07/bikesim/core/model"
	"github.com/kilianp07/bikesim/core/station"
)

// Source exposes the live network. *manager.Manager implements it.
type Source interface {
	Stations() []*station.Station
	Yard() *station.MaintenanceYard
}

// YardStatus reports the maintenance yard stock.
type YardStatus struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}

// Response is the body of GET /api/stations.
type Response struct {
	Stations []model.StationSnapshot `json:"stations"`
	Yard     YardStatus              `json:"yard"`
}

// NewHandler returns an HTTP handler exposing station snapshots via
// GET /api/stations. With ?id=<station> only that station is returned.
func NewHandler(src Source) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var body any
		if id := r.URL.Query().Get("id"); id != "" {
			snap, ok := find(src, id)
			if !ok {
				http.Error(w, "station not found", http.StatusNotFound)
				return
			}
			body = snap
		} else {
			resp := Response{Stations: []model.StationSnapshot{}}
			for _, s := range src.Stations() {
				resp.Stations = append(resp.Stations, s.Snapshot())
			}
			if y := src.Yard(); y != nil {
				resp.Yard = YardStatus{ID: y.ID(), Count: y.Count()}
			}
			body = resp
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(body); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}

func find(src Source, id string) (model.StationSnapshot, bool) {
	for _, s := range src.Stations() {
		if s.ID() == id {
			return s.Snapshot(), true
		}
	}
	return model.StationSnapshot{}, false
}

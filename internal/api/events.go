package api

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/echo-chain/sidenode/internal/events"
	"github.com/gorilla/mux"
)

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := events.Filter{
		Category: q.Get("category"),
		Action:   q.Get("action"),
		Actor:    q.Get("actor"),
		TxID:     q.Get("transactionId"),
	}
	if v := q.Get("startTime"); v != "" {
		f.StartTime, _ = strconv.ParseInt(v, 10, 64)
	}
	if v := q.Get("endTime"); v != "" {
		f.EndTime, _ = strconv.ParseInt(v, 10, 64)
	}
	descending := q.Get("sortDirection") != "asc"
	poolID := q.Get("poolId")
	limit, offset := pagingParams(r)

	recs, err := s.Jrnl.Query(f, 0, 0, descending)
	if err != nil {
		respondInternalError(w, err)
		return
	}
	if poolID != "" {
		filtered := recs[:0]
		for _, rec := range recs {
			if toString(rec.Data["poolId"]) == poolID {
				filtered = append(filtered, rec)
			}
		}
		recs = filtered
	}
	total := len(recs)
	if offset > 0 {
		if offset >= len(recs) {
			recs = nil
		} else {
			recs = recs[offset:]
		}
	}
	if limit > 0 && limit < len(recs) {
		recs = recs[:limit]
	}
	respondList(w, recs, total, limit, offset)
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	rec, ok, err := s.Jrnl.Get(id)
	if err != nil {
		respondInternalError(w, err)
		return
	}
	if !ok {
		respondNotFound(w, "event")
		return
	}
	respondData(w, rec)
}

// handleEventTypes and handleEventCategories derive their distinct-value
// lists from a full unfiltered scan; the journal keeps no separate
// category/action index since these are read-path-only conveniences.
func (s *Server) handleEventTypes(w http.ResponseWriter, r *http.Request) {
	recs, err := s.Jrnl.Query(events.Filter{}, 0, 0, false)
	if err != nil {
		respondInternalError(w, err)
		return
	}
	respondData(w, distinctSorted(recs, func(rec events.Record) string { return rec.Action }))
}

func (s *Server) handleEventCategories(w http.ResponseWriter, r *http.Request) {
	recs, err := s.Jrnl.Query(events.Filter{}, 0, 0, false)
	if err != nil {
		respondInternalError(w, err)
		return
	}
	respondData(w, distinctSorted(recs, func(rec events.Record) string { return rec.Category }))
}

func distinctSorted(recs []events.Record, key func(events.Record) string) []string {
	seen := make(map[string]struct{})
	for _, rec := range recs {
		seen[key(rec)] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func (s *Server) handleEventStats(w http.ResponseWriter, r *http.Request) {
	recs, err := s.Jrnl.Query(events.Filter{}, 0, 0, false)
	if err != nil {
		respondInternalError(w, err)
		return
	}
	byCategory := make(map[string]int)
	byAction := make(map[string]int)
	for _, rec := range recs {
		byCategory[rec.Category]++
		byAction[rec.Action]++
	}
	respondData(w, map[string]any{
		"total":      len(recs),
		"byCategory": byCategory,
		"byAction":   byAction,
	})
}

// Package events implements the append-only event journal (spec §2.4, §6):
// a (category, action, actor, data, txId, timestamp) tuple per operation,
// queryable by the HTTP surface and fanned out to live subscribers.
package events

import (
	"fmt"
	"sync/atomic"

	"github.com/echo-chain/sidenode/internal/store"
	"go.uber.org/zap"
)

const Collection = "events"

// Record is one journal entry.
type Record struct {
	ID        string         `json:"id"`
	Category   string        `json:"category"`
	Action    string         `json:"action"`
	Actor     string         `json:"actor"`
	Data      map[string]any `json:"data"`
	TxID      string         `json:"txId"`
	Timestamp int64          `json:"timestamp"`
}

// Sink receives every appended record for fan-out (e.g. the websocket hub).
// Implementations must not block the journal; they should buffer/drop.
type Sink interface {
	Publish(Record)
}

// Journal is the append-only store-backed event log.
type Journal struct {
	st      store.Store
	log     *zap.SugaredLogger
	sink    Sink
	counter uint64
}

func NewJournal(st store.Store, log *zap.SugaredLogger, sink Sink) *Journal {
	return &Journal{st: st, log: log, sink: sink}
}

// Append writes a record through the store adapter (fire-and-forget from
// the handler's point of view per spec §5.3: awaited only long enough to
// preserve causal ordering within the calling transaction) and fans it out
// to the live sink if configured.
func (j *Journal) Append(category, action, actor string, data map[string]any, txID string, timestamp int64) (Record, error) {
	seq := atomic.AddUint64(&j.counter, 1)
	id := fmt.Sprintf("evt_%s_%020d", txID, seq)
	rec := Record{
		ID:        id,
		Category:  category,
		Action:    action,
		Actor:     actor,
		Data:      data,
		TxID:      txID,
		Timestamp: timestamp,
	}
	doc := store.Doc{
		"id":        rec.ID,
		"category":  rec.Category,
		"action":    rec.Action,
		"actor":     rec.Actor,
		"data":      rec.Data,
		"txId":      rec.TxID,
		"timestamp": rec.Timestamp,
	}
	if err := j.st.InsertOne(Collection, rec.ID, doc); err != nil {
		if j.log != nil {
			j.log.Errorw("event journal write failed", "category", category, "action", action, "err", err)
		}
		return Record{}, err
	}
	if j.sink != nil {
		j.sink.Publish(rec)
	}
	return rec, nil
}

// Filter narrows a FindMany query over the events collection.
type Filter struct {
	Category  string
	Action    string
	Actor     string
	TxID      string
	StartTime int64
	EndTime   int64
}

func (j *Journal) Query(f Filter, limit, offset int, descending bool) ([]Record, error) {
	docs, err := j.st.FindMany(Collection, func(d store.Doc) bool {
		if f.Category != "" && d["category"] != f.Category {
			return false
		}
		if f.Action != "" && d["action"] != f.Action {
			return false
		}
		if f.Actor != "" && d["actor"] != f.Actor {
			return false
		}
		if f.TxID != "" && d["txId"] != f.TxID {
			return false
		}
		ts, _ := d["timestamp"].(int64)
		if f.StartTime != 0 && ts < f.StartTime {
			return false
		}
		if f.EndTime != 0 && ts > f.EndTime {
			return false
		}
		return true
	}, store.FindOptions{SortBy: "timestamp", SortDescending: descending, Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(docs))
	for _, d := range docs {
		out = append(out, docToRecord(d))
	}
	return out, nil
}

func (j *Journal) Get(id string) (Record, bool, error) {
	d, ok, err := j.st.FindOne(Collection, id)
	if err != nil || !ok {
		return Record{}, ok, err
	}
	return docToRecord(d), true, nil
}

func docToRecord(d store.Doc) Record {
	data, _ := d["data"].(map[string]any)
	ts, _ := d["timestamp"].(int64)
	return Record{
		ID:        fmt.Sprint(d["id"]),
		Category:  fmt.Sprint(d["category"]),
		Action:    fmt.Sprint(d["action"]),
		Actor:     fmt.Sprint(d["actor"]),
		Data:      data,
		TxID:      fmt.Sprint(d["txId"]),
		Timestamp: ts,
	}
}

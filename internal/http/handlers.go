package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"familyfinance/internal/log"
	"familyfinance/internal/repository"
)

// resource serves the CRUD routes of one bucket
type resource[T any] struct {
	kind    string
	records repository.Records[T]
	sl      *log.StructuredLogger
	fail    func(http.ResponseWriter, *http.Request, string, error)

	// logWrites is false when records already logs its committed writes
	logWrites bool
}

// changeLogger is implemented by record wrappers that log every committed write
type changeLogger interface {
	LogsChanges() bool
}

func mountResource[T any](api *mux.Router, s *Server, plural, kind string, records repository.Records[T]) {
	res := &resource[T]{
		kind:    kind,
		records: records,
		sl:      s.sl,
		fail:    s.respondFailure,
	}
	if cl, ok := records.(changeLogger); !ok || !cl.LogsChanges() {
		res.logWrites = true
	}
	api.HandleFunc("/"+plural, res.list).Methods(http.MethodGet)
	api.HandleFunc("/"+plural, res.create).Methods(http.MethodPost)
	api.HandleFunc("/"+plural+"/{id}", res.get).Methods(http.MethodGet)
	api.HandleFunc("/"+plural+"/{id}", res.update).Methods(http.MethodPut)
	api.HandleFunc("/"+plural+"/{id}", res.remove).Methods(http.MethodDelete)
}

func (res *resource[T]) list(w http.ResponseWriter, r *http.Request) {
	items, err := res.records.List(r.Context())
	if err != nil {
		res.fail(w, r, log.OpList, err)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

func (res *resource[T]) get(w http.ResponseWriter, r *http.Request) {
	item, err := res.records.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		res.fail(w, r, log.OpRead, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

func (res *resource[T]) create(w http.ResponseWriter, r *http.Request) {
	var in T
	if status, msg, ok := decodeBody(w, r, &in); !ok {
		respondError(w, status, msg)
		return
	}

	created, err := res.records.Create(r.Context(), in)
	if err != nil {
		res.fail(w, r, log.OpCreate, err)
		return
	}
	res.logChange(r, log.OpCreate, idOf(&created))
	respondJSON(w, http.StatusCreated, created)
}

func (res *resource[T]) update(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var in T
	if status, msg, ok := decodeBody(w, r, &in); !ok {
		respondError(w, status, msg)
		return
	}

	updated, err := res.records.Update(r.Context(), id, in)
	if err != nil {
		res.fail(w, r, log.OpUpdate, err)
		return
	}
	res.logChange(r, log.OpUpdate, id)
	respondJSON(w, http.StatusOK, updated)
}

func (res *resource[T]) remove(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := res.records.Delete(r.Context(), id); err != nil {
		res.fail(w, r, log.OpDelete, err)
		return
	}
	res.logChange(r, log.OpDelete, id)
	respondJSON(w, http.StatusOK, map[string]string{"message": res.kind + " deleted"})
}

func (res *resource[T]) logChange(r *http.Request, op, id string) {
	if res.logWrites {
		res.sl.LogRecordChange(r.Context(), op, res.records.Bucket(), id)
	}
}

func idOf(v any) string {
	if e, ok := v.(interface{ GetID() string }); ok {
		return e.GetID()
	}
	return ""
}

// internal/configapi/handlers.go
package configapi

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	jmes "github.com/jmespath/go-jmespath"

	"stratus/pkg/errs"
	"stratus/pkg/naming"
)

func (a *App) listTenants(w http.ResponseWriter, r *http.Request) {
	keys := make([]string, 0, len(a.cfg.Tenants))
	for k := range a.cfg.Tenants {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	writeJSON(w, http.StatusOK, map[string]any{"tenants": keys})
}

func (a *App) getDocument(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "tenant")
	doc, err := a.document(r.Context(), tenant)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (a *App) getNames(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "tenant")
	doc, err := a.document(r.Context(), tenant)
	if err != nil {
		a.writeError(w, err)
		return
	}
	out := map[string][]naming.Name{}
	for domain, e := range doc {
		out[domain] = naming.AllNames(e)
	}
	writeJSON(w, http.StatusOK, out)
}

// queryDocument evaluates a JMESPath expression against the resolved
// document, e.g. {"expr": "*.behaviors[?[1]=='api']"}.
func (a *App) queryDocument(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "tenant")
	var req struct {
		Expr string `json:"expr"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Expr == "" {
		http.Error(w, "expr is required", http.StatusBadRequest)
		return
	}
	doc, err := a.document(r.Context(), tenant)
	if err != nil {
		a.writeError(w, err)
		return
	}
	// Round-trip through JSON so the expression sees the wire shapes
	// (positional behavior tuples), not Go structs.
	raw, err := json.Marshal(doc)
	if err != nil {
		a.writeError(w, err)
		return
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		a.writeError(w, err)
		return
	}
	result, err := jmes.Search(req.Expr, data)
	if err != nil {
		http.Error(w, "invalid expression: "+err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": result})
}

func (a *App) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errs.Code(err) {
	case errs.UnknownTenant, errs.UnknownSubtenant, errs.StackNotFound:
		status = http.StatusNotFound
	case errs.ConfigInvalid, errs.MissingStackOutput, errs.PayloadTooLarge:
		status = http.StatusUnprocessableEntity
	}
	a.log.Warnw("request failed", "code", errs.Code(err), "err", err)
	writeJSON(w, status, map[string]string{"code": errs.Code(err), "error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

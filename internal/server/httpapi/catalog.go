package httpapi

import (
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/yamdb/internal/common"
	"github.com/go-chi/chi/v5"
)

// idParam parses a numeric path segment. Anything else cannot name an
// existing row and is reported as not found.
func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, common.ErrorNotFound
	}
	return id, nil
}

func (a *API) listCategories(w http.ResponseWriter, r *http.Request) {
	list, err := a.catalog.ListCategories(r.Context(), ActorFromContext(r.Context()))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) createCategory(w http.ResponseWriter, r *http.Request) {
	var req sluggedRequest
	if err := decode(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	c, err := a.catalog.CreateCategory(r.Context(), ActorFromContext(r.Context()), req.Name, req.Slug)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (a *API) deleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := a.catalog.DeleteCategory(r.Context(), ActorFromContext(r.Context()), chi.URLParam(r, "slug")); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listGenres(w http.ResponseWriter, r *http.Request) {
	list, err := a.catalog.ListGenres(r.Context(), ActorFromContext(r.Context()))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) createGenre(w http.ResponseWriter, r *http.Request) {
	var req sluggedRequest
	if err := decode(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	g, err := a.catalog.CreateGenre(r.Context(), ActorFromContext(r.Context()), req.Name, req.Slug)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func (a *API) deleteGenre(w http.ResponseWriter, r *http.Request) {
	if err := a.catalog.DeleteGenre(r.Context(), ActorFromContext(r.Context()), chi.URLParam(r, "slug")); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listTitles(w http.ResponseWriter, r *http.Request) {
	list, err := a.catalog.ListTitles(r.Context(), ActorFromContext(r.Context()))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	out := make([]titleJSON, 0, len(list))
	for i := range list {
		out = append(out, toTitleJSON(&list[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) getTitle(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "titleID")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	t, err := a.catalog.GetTitle(r.Context(), ActorFromContext(r.Context()), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTitleJSON(t))
}

func (a *API) createTitle(w http.ResponseWriter, r *http.Request) {
	var req titleWriteJSON
	if err := decode(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	t, err := a.catalog.CreateTitle(r.Context(), ActorFromContext(r.Context()), req.input())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTitleJSON(t))
}

func (a *API) updateTitle(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "titleID")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var req titleWriteJSON
	if err := decode(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	t, err := a.catalog.UpdateTitle(r.Context(), ActorFromContext(r.Context()), id, req.input())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTitleJSON(t))
}

func (a *API) deleteTitle(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "titleID")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.catalog.DeleteTitle(r.Context(), ActorFromContext(r.Context()), id); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

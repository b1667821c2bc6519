package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/yamdb/internal/server/models"
	"github.com/go-chi/chi/v5"
)

func (a *API) listUsers(w http.ResponseWriter, r *http.Request) {
	list, err := a.users.List(r.Context(), ActorFromContext(r.Context()), r.URL.Query().Get("search"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	out := make([]userJSON, 0, len(list))
	for i := range list {
		out = append(out, toUserJSON(&list[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) createUser(w http.ResponseWriter, r *http.Request) {
	var req userJSON
	if err := decode(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	u, err := a.users.Create(r.Context(), ActorFromContext(r.Context()), &models.User{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
		Role:      req.Role,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserJSON(u))
}

func (a *API) getUser(w http.ResponseWriter, r *http.Request) {
	u, err := a.users.Get(r.Context(), ActorFromContext(r.Context()), chi.URLParam(r, "username"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserJSON(u))
}

func (a *API) updateUser(w http.ResponseWriter, r *http.Request) {
	var req userPatchJSON
	if err := decode(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	u, err := a.users.Update(r.Context(), ActorFromContext(r.Context()), chi.URLParam(r, "username"), req.patch())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserJSON(u))
}

func (a *API) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := a.users.Delete(r.Context(), ActorFromContext(r.Context()), chi.URLParam(r, "username")); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) getMe(w http.ResponseWriter, r *http.Request) {
	u, err := a.identity.Me(r.Context(), ActorFromContext(r.Context()))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserJSON(u))
}

func (a *API) updateMe(w http.ResponseWriter, r *http.Request) {
	var req userPatchJSON
	if err := decode(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	u, err := a.identity.UpdateMe(r.Context(), ActorFromContext(r.Context()), req.patch())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserJSON(u))
}

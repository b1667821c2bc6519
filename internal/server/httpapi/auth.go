package httpapi

import (
	"net/http"
)

func (a *API) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decode(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	res, err := a.identity.Signup(r.Context(), req.Username, req.Email)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	resp := signupResponse{Username: res.Username, Email: res.Email}
	if res.DeliveryErr != nil {
		resp.Warning = "confirmation code could not be delivered, request it again later"
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) token(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decode(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	token, err := a.identity.Login(r.Context(), req.Username, req.ConfirmationCode)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

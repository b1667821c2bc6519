package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/yamdb/internal/common"
	"github.com/dmitrijs2005/yamdb/internal/validation"
)

// reviewPath extracts titleID and, when withReview is set, reviewID.
func reviewPath(r *http.Request, withReview bool) (titleID, reviewID int64, err error) {
	if titleID, err = idParam(r, "titleID"); err != nil {
		return 0, 0, err
	}
	if withReview {
		if reviewID, err = idParam(r, "reviewID"); err != nil {
			return 0, 0, err
		}
	}
	return titleID, reviewID, nil
}

func (a *API) listReviews(w http.ResponseWriter, r *http.Request) {
	titleID, _, err := reviewPath(r, false)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	list, err := a.reviews.ListReviews(r.Context(), ActorFromContext(r.Context()), titleID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	out := make([]reviewJSON, 0, len(list))
	for i := range list {
		out = append(out, toReviewJSON(&list[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) getReview(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, err := reviewPath(r, true)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	rv, err := a.reviews.GetReview(r.Context(), ActorFromContext(r.Context()), titleID, reviewID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReviewJSON(rv))
}

func (a *API) createReview(w http.ResponseWriter, r *http.Request) {
	titleID, _, err := reviewPath(r, false)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var req reviewWriteJSON
	if err := decode(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	var text string
	if req.Text != nil {
		text = *req.Text
	}
	rv, err := a.reviews.CreateReview(r.Context(), ActorFromContext(r.Context()), titleID, text, req.Score)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReviewJSON(rv))
}

func (a *API) updateReview(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, err := reviewPath(r, true)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var req reviewWriteJSON
	if err := decode(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	rv, err := a.reviews.UpdateReview(r.Context(), ActorFromContext(r.Context()), titleID, reviewID, req.Text, req.Score)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReviewJSON(rv))
}

func (a *API) deleteReview(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, err := reviewPath(r, true)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.reviews.DeleteReview(r.Context(), ActorFromContext(r.Context()), titleID, reviewID); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listComments(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, err := reviewPath(r, true)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	list, err := a.reviews.ListComments(r.Context(), ActorFromContext(r.Context()), titleID, reviewID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	out := make([]commentJSON, 0, len(list))
	for i := range list {
		out = append(out, toCommentJSON(&list[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) getComment(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, err := reviewPath(r, true)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	commentID, err := idParam(r, "commentID")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	c, err := a.reviews.GetComment(r.Context(), ActorFromContext(r.Context()), titleID, reviewID, commentID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCommentJSON(c))
}

func (a *API) createComment(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, err := reviewPath(r, true)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var req commentWriteJSON
	if err := decode(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	var text string
	if req.Text != nil {
		text = *req.Text
	}
	c, err := a.reviews.CreateComment(r.Context(), ActorFromContext(r.Context()), titleID, reviewID, text)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCommentJSON(c))
}

func (a *API) updateComment(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, err := reviewPath(r, true)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	commentID, err := idParam(r, "commentID")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var req commentWriteJSON
	if err := decode(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	if req.Text == nil {
		a.writeError(w, r, common.NewValidationError("text", validation.MsgRequired))
		return
	}
	c, err := a.reviews.UpdateComment(r.Context(), ActorFromContext(r.Context()), titleID, reviewID, commentID, *req.Text)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCommentJSON(c))
}

func (a *API) deleteComment(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, err := reviewPath(r, true)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	commentID, err := idParam(r, "commentID")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.reviews.DeleteComment(r.Context(), ActorFromContext(r.Context()), titleID, reviewID, commentID); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

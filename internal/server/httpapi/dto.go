package httpapi

import (
	"time"

	"github.com/dmitrijs2005/yamdb/internal/server/models"
)

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type signupResponse struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Warning  string `json:"warning,omitempty"`
}

type tokenRequest struct {
	Username         string `json:"username"`
	ConfirmationCode string `json:"confirmation_code"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type userJSON struct {
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Bio       string      `json:"bio"`
	Role      models.Role `json:"role"`
}

func toUserJSON(u *models.User) userJSON {
	return userJSON{
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Bio:       u.Bio,
		Role:      u.Role,
	}
}

type userPatchJSON struct {
	Username  *string      `json:"username"`
	Email     *string      `json:"email"`
	FirstName *string      `json:"first_name"`
	LastName  *string      `json:"last_name"`
	Bio       *string      `json:"bio"`
	Role      *models.Role `json:"role"`
}

func (p userPatchJSON) patch() models.UserPatch {
	return models.UserPatch{
		Username:  p.Username,
		Email:     p.Email,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Bio:       p.Bio,
		Role:      p.Role,
	}
}

type sluggedRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type titleJSON struct {
	ID          int64            `json:"id"`
	Name        string           `json:"name"`
	Year        int              `json:"year"`
	Rating      *float64         `json:"rating"`
	Description string           `json:"description"`
	Genre       []models.Genre   `json:"genre"`
	Category    *models.Category `json:"category"`
}

func toTitleJSON(t *models.Title) titleJSON {
	genres := t.Genres
	if genres == nil {
		genres = []models.Genre{}
	}
	return titleJSON{
		ID:          t.ID,
		Name:        t.Name,
		Year:        t.Year,
		Rating:      t.Rating,
		Description: t.Description,
		Genre:       genres,
		Category:    t.Category,
	}
}

// titleWriteJSON references the category and genres by slug. An empty
// category slug clears it.
type titleWriteJSON struct {
	Name        *string   `json:"name"`
	Year        *int      `json:"year"`
	Description *string   `json:"description"`
	Genre       *[]string `json:"genre"`
	Category    *string   `json:"category"`
}

func (t titleWriteJSON) input() models.TitleInput {
	in := models.TitleInput{
		Name:         t.Name,
		Year:         t.Year,
		Description:  t.Description,
		CategorySlug: t.Category,
	}
	if t.Genre != nil {
		in.GenreSlugs = *t.Genre
		in.SetGenres = true
	}
	return in
}

type reviewJSON struct {
	ID      int64     `json:"id"`
	Text    string    `json:"text"`
	Author  string    `json:"author"`
	Score   int       `json:"score"`
	PubDate time.Time `json:"pub_date"`
}

func toReviewJSON(r *models.Review) reviewJSON {
	return reviewJSON{ID: r.ID, Text: r.Text, Author: r.AuthorUsername, Score: r.Score, PubDate: r.PubDate}
}

type reviewWriteJSON struct {
	Text  *string `json:"text"`
	Score *int    `json:"score"`
}

type commentJSON struct {
	ID      int64     `json:"id"`
	Text    string    `json:"text"`
	Author  string    `json:"author"`
	PubDate time.Time `json:"pub_date"`
}

func toCommentJSON(c *models.Comment) commentJSON {
	return commentJSON{ID: c.ID, Text: c.Text, Author: c.AuthorUsername, PubDate: c.PubDate}
}

type commentWriteJSON struct {
	Text *string `json:"text"`
}

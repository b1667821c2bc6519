package models

import "time"

type Review struct {
	ID             int64     `db:"id"`
	TitleID        int64     `db:"title_id"`
	AuthorID       int64     `db:"author_id"`
	AuthorUsername string    `db:"author_username"`
	Text           string    `db:"text"`
	Score          int       `db:"score"`
	PubDate        time.Time `db:"pub_date"`
}

// OwnerID returns the id of the review author.
func (r *Review) OwnerID() int64 { return r.AuthorID }

type Comment struct {
	ID             int64     `db:"id"`
	ReviewID       int64     `db:"review_id"`
	AuthorID       int64     `db:"author_id"`
	AuthorUsername string    `db:"author_username"`
	Text           string    `db:"text"`
	PubDate        time.Time `db:"pub_date"`
}

// OwnerID returns the id of the comment author.
func (c *Comment) OwnerID() int64 { return c.AuthorID }

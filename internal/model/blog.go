package model

import "time"

// BlogPost is a single article on the blog.
//
// Slug is derived from Title when the post is created and re-derived whenever the
// title changes. ViewCount only ever goes up (one per detail read).
type BlogPost struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Content          string    `json:"content"`
	ShortDescription string    `json:"shortDescription"`
	PublishDate      time.Time `json:"publishDate"`
	Slug             string    `json:"slug"`
	Tags             []string  `json:"tags"`
	ViewCount        int64     `json:"viewCount"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// BlogSummary is the list projection of a BlogPost (no content, no timestamps).
type BlogSummary struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	ShortDescription string    `json:"shortDescription"`
	PublishDate      time.Time `json:"publishDate"`
	Slug             string    `json:"slug"`
	Tags             []string  `json:"tags"`
	ViewCount        int64     `json:"viewCount"`
}

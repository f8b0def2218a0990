package model

import "time"

type Comment struct {
	ID        int       `json:"id"`
	TaskID    int       `json:"taskId"`
	AuthorID  int       `json:"authorId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// FileAttachment records an uploaded file's location; the bytes live elsewhere.
type FileAttachment struct {
	ID         int       `json:"id"`
	TaskID     int       `json:"taskId"`
	UploaderID int       `json:"uploaderId"`
	FileName   string    `json:"fileName"`
	URL        string    `json:"url"`
	SizeBytes  int64     `json:"sizeBytes"`
	CreatedAt  time.Time `json:"createdAt"`
}

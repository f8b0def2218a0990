package model

import "time"

type Notification struct {
	ID        int       `json:"id"`
	UserID    int       `json:"userId"`
	ProjectID int       `json:"projectId"`
	Type      string    `json:"type"`
	Content   string    `json:"content"`
	EventID   string    `json:"eventId"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

package models

import "github.com/gofrs/uuid"

type StatusCount struct {
	Status TaskStatus `json:"status"`
	Count  int64      `json:"count"`
}

type UserTaskCount struct {
	UserID   uuid.UUID `json:"user_id"`
	FullName string    `json:"full_name"`
	Count    int64     `json:"count"`
}

type AnalyticsSummary struct {
	TotalTasks       int64           `json:"total_tasks"`
	ByStatus         []StatusCount   `json:"by_status"`
	CompletedPerUser []UserTaskCount `json:"completed_per_user"`
	ActivePerUser    []UserTaskCount `json:"active_per_user"`
}

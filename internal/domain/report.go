package domain

import (
	"context"
	"time"
)

type ReportType string

const (
	ReportTypeUsers  ReportType = "USERS"
	ReportTypePlaces ReportType = "PLACES"
	ReportTypeFull   ReportType = "FULL"
)

func (t ReportType) Valid() bool {
	switch t {
	case ReportTypeUsers, ReportTypePlaces, ReportTypeFull:
		return true
	}
	return false
}

// Report is a free text snapshot of users and/or places taken at GeneratedAt.
type Report struct {
	ID          int64      `json:"id"`
	Type        ReportType `json:"type"`
	GeneratedAt time.Time  `json:"generated_at"`
	Content     string     `json:"content"`
}

type ReportRepository interface {
	Create(ctx context.Context, report *Report) error
	FindByID(ctx context.Context, id int64) (*Report, error)
	FindAll(ctx context.Context) ([]*Report, error)
	Delete(ctx context.Context, id int64) error
}

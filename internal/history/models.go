package history

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/suPer8Hu/symptom-checker/internal/symptom"
	"gorm.io/datatypes"
)

// QueryRecord is one stored symptom check. Rows are never updated.
type QueryRecord struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	Symptoms     string `gorm:"type:text;not null"`
	Age          *int
	Sex          *string `gorm:"type:varchar(16)"`
	DurationDays *int
	Severity     *string        `gorm:"type:varchar(16)"`
	Context      *string        `gorm:"type:text"`
	Response     datatypes.JSON `gorm:"not null"`
	RequestID    string         `gorm:"type:varchar(128);index"`
	CreatedAt    time.Time      `gorm:"index:idx_query_records_created_at"`
}

func (QueryRecord) TableName() string { return "query_records" }

// Query is the wire form of a QueryRecord.
type Query struct {
	ID           uint64           `json:"id"`
	Symptoms     string           `json:"symptoms"`
	Age          *int             `json:"age"`
	Sex          *string          `json:"sex"`
	DurationDays *int             `json:"duration_days"`
	Severity     *string          `json:"severity"`
	Context      *string          `json:"context"`
	Response     symptom.Response `json:"response"`
	CreatedAt    string           `json:"created_at"`
}

type Page struct {
	Queries  []Query `json:"queries"`
	Total    int64   `json:"total"`
	Page     int     `json:"page"`
	PageSize int     `json:"page_size"`
}

// PendingRecord is queued when a check could not be written and is replayed by the worker.
type PendingRecord struct {
	EventID   string           `json:"event_id"`
	RequestID string           `json:"request_id"`
	Request   symptom.Request  `json:"request"`
	Response  symptom.Response `json:"response"`
	FailedAt  time.Time        `json:"failed_at"`
}

func NewRecord(req symptom.Request, resp symptom.Response, requestID string) (*QueryRecord, error) {
	b, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return &QueryRecord{
		Symptoms:     req.Symptoms,
		Age:          req.Age,
		Sex:          req.Sex,
		DurationDays: req.DurationDays,
		Severity:     req.Severity,
		Context:      req.Context,
		Response:     datatypes.JSON(b),
		RequestID:    requestID,
	}, nil
}

func (r *QueryRecord) ToQuery() (*Query, error) {
	var resp symptom.Response
	if err := json.Unmarshal(r.Response, &resp); err != nil {
		return nil, fmt.Errorf("decode stored response %d: %w", r.ID, err)
	}
	if resp.RedFlags == nil {
		resp.RedFlags = []string{}
	}
	return &Query{
		ID:           r.ID,
		Symptoms:     r.Symptoms,
		Age:          r.Age,
		Sex:          r.Sex,
		DurationDays: r.DurationDays,
		Severity:     r.Severity,
		Context:      r.Context,
		Response:     resp,
		CreatedAt:    symptom.FormatTimestamp(r.CreatedAt),
	}, nil
}

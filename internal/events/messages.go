package events

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"persacc/internal/models"
)

// MonthClosedType is the type field of a month-closed message.
const MonthClosedType = "month.closed"

// MonthClosed announces a committed month close. It carries the headline
// figures so consumers do not have to read the snapshot back.
type MonthClosed struct {
	Type               string          `json:"type"`
	FiscalMonth        string          `json:"fiscal_month"`
	NextMonth          string          `json:"next_month"`
	SnapshotID         string          `json:"snapshot_id"`
	ClosingBalance     decimal.Decimal `json:"closing_balance"`
	NextOpeningBalance decimal.Decimal `json:"next_opening_balance"`
	RetentionExecuted  decimal.Decimal `json:"retention_executed"`
	Deviation          decimal.Decimal `json:"deviation"`
	ExecutedAt         time.Time       `json:"executed_at"`
}

// NewMonthClosed builds the message for a stored snapshot.
func NewMonthClosed(snapshot *models.Snapshot, nextMonth string) *MonthClosed {
	return &MonthClosed{
		Type:               MonthClosedType,
		FiscalMonth:        snapshot.ClosedMonth,
		NextMonth:          nextMonth,
		SnapshotID:         snapshot.ID,
		ClosingBalance:     snapshot.ClosingBalance,
		NextOpeningBalance: snapshot.NewOpeningBalance,
		RetentionExecuted:  snapshot.RetentionExecuted,
		Deviation:          snapshot.RecordedDeviation,
		ExecutedAt:         snapshot.ExecutedAt,
	}
}

// ToJSON converts the message to JSON bytes
func (m *MonthClosed) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MonthClosedFromJSON decodes a message published by PublishMonthClosed.
func MonthClosedFromJSON(data []byte) (*MonthClosed, error) {
	var msg MonthClosed
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

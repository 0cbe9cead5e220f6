package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/roach88/crosscheck/internal/caseid"
	"github.com/roach88/crosscheck/internal/harness"
	"github.com/roach88/crosscheck/internal/model"
)

// marshalOrder converts a case's order to canonical JSON TEXT, the same
// encoding its case key is hashed over.
func marshalOrder(c harness.Case) (string, error) {
	data, err := caseid.MarshalCanonical(caseid.Object(c)["order"])
	if err != nil {
		return "", fmt.Errorf("marshal order: %w", err)
	}
	return string(data), nil
}

// storedOrder mirrors the keys caseid.Object writes for an order.
type storedOrder struct {
	P      int    `json:"p"`
	D      int    `json:"d"`
	Q      int    `json:"q"`
	SP     int    `json:"P"`
	SD     int    `json:"D"`
	SQ     int    `json:"Q"`
	S      int    `json:"s"`
	Length int    `json:"length"`
	Solver string `json:"solver"`
}

func unmarshalOrder(data string) (model.Order, error) {
	var so storedOrder
	if err := json.Unmarshal([]byte(data), &so); err != nil {
		return model.Order{}, fmt.Errorf("unmarshal order: %w", err)
	}
	return model.Order{
		P: so.P, D: so.D, Q: so.Q,
		SP: so.SP, SD: so.SD, SQ: so.SQ,
		S:      so.S,
		Length: so.Length,
		Solver: model.Solver(so.Solver),
	}, nil
}

// SQLite cannot hold NaN; a diff that is not finite is stored as NULL.
func nullableDiff(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

// timeLayout is fixed width so stored times sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

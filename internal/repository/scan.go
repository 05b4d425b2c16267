package repository

import (
	"database/sql"
	"fmt"
	"time"

	"growthtrack/internal/models"
)

func formatDate(t time.Time) string {
	return models.Day(t).Format(models.DateLayout)
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored date %q: %w", s, err)
	}
	return t, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func nullString[T ~string](v *T) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*v), Valid: true}
}

func stringPtr[T ~string](n sql.NullString) *T {
	if !n.Valid {
		return nil
	}
	v := T(n.String)
	return &v
}

package services

import (
	"context"
	"fmt"
	"time"

	"pms/constants"
	apperrors "pms/errors"
	"pms/services/formula"
	"pms/types"
)

// Counters a summary formula may reference.
var summaryFormulaTokens = []string{"TOTALROOM", "ONHAND", "AVAIL", "BLOCK", "OOS", "OOI"}

// NightAvailability is one row of the availability grid.
type NightAvailability struct {
	NightUsage
	Capacity  int64    `json:"capacity"`
	Sold      int64    `json:"sold"`
	Available int64    `json:"available"`
	KPI       *float64 `json:"kpi,omitempty"`
}

type AvailabilitySummary struct {
	RoomTypeID uint                `json:"roomTypeId"`
	Formula    string              `json:"formula,omitempty"`
	Nights     []NightAvailability `json:"nights"`
}

// Summary builds the per-night grid for a room type over [from, to) and, when the
// availability_formula setting is present, evaluates it for every night.
func (s *AvailabilityService) Summary(ctx context.Context, prop types.PropertyContext, roomTypeID uint, from, to time.Time) (*AvailabilitySummary, error) {
	if from.IsZero() || to.IsZero() {
		return nil, apperrors.Validation("from and to are required")
	}
	from, to = types.DateOnly(from), types.DateOnly(to)
	if !from.Before(to) {
		return nil, apperrors.Validation("from must be before to")
	}
	if types.DaysBetween(from, to) > constants.MaxDateWindowDays {
		return nil, apperrors.Validation(fmt.Sprintf("summary range must not exceed %d days", constants.MaxDateWindowDays))
	}

	usage, capacity, err := s.nightlyUsage(ctx, roomTypeID, from, to, "")
	if err != nil {
		return nil, err
	}

	summary := &AvailabilitySummary{RoomTypeID: roomTypeID}
	var expr *formula.Expression
	if s.settings != nil {
		if src := s.settings.Get(ctx, prop, constants.SettingAvailabilityFormula, ""); src != "" {
			expr, err = formula.CompileWith(src, summaryFormulaTokens...)
			if err != nil {
				return nil, apperrors.NewAppError(apperrors.ErrCodeValidation, "invalid availability formula", err)
			}
			summary.Formula = src
		}
	}

	for _, u := range usage {
		row := NightAvailability{
			NightUsage: u,
			Capacity:   capacity,
			Sold:       u.Stay - u.OutOfOrder - u.OutOfInventory,
			Available:  capacity - u.Total(),
		}
		if expr != nil {
			v, err := expr.Eval(map[string]float64{
				"TOTALROOM": float64(capacity),
				"ONHAND":    float64(row.Sold + u.Reassigned),
				"AVAIL":     float64(row.Available),
				"BLOCK":     float64(u.Blocked),
				"OOS":       float64(u.OutOfOrder),
				"OOI":       float64(u.OutOfInventory),
			})
			if err != nil {
				s.logger.Debug("availability formula on %s: %v", u.Date.Format(constants.DateLayout), err)
			} else {
				row.KPI = &v
			}
		}
		summary.Nights = append(summary.Nights, row)
	}
	return summary, nil
}

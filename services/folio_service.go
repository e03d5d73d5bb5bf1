package services

import (
	"context"
	"errors"
	"fmt"

	apperrors "pms/errors"
	"pms/models"
	"pms/repositories"
	"pms/services/logger"
	"pms/types"

	"github.com/shopspring/decimal"
)

// PostTotalsRequest carries the caller's view of a folio. Charges and Payment are only
// compared against the ledger; the stored totals always come from posted charge lines.
type PostTotalsRequest struct {
	TransactionNo string
	FolioNo       string
	Rate          decimal.Decimal
	Charges       decimal.Decimal
	Payment       decimal.Decimal
	MasterFolioNo string
	Remark        *string
	Type          models.FolioType
	CreditLimit   *decimal.Decimal
}

type PostTotalsResult struct {
	FolioNo string       `json:"folioNo"`
	Created bool         `json:"created"`
	Folio   models.Folio `json:"folio"`
}

type FolioService struct {
	repo      repositories.Repository
	sequences *SequenceGenerator
	logger    logger.Logger
}

type FolioServiceOptions struct {
	Repo      repositories.Repository
	Sequences *SequenceGenerator
	Logger    logger.Logger
}

func NewFolioService(opts FolioServiceOptions) *FolioService {
	seq := opts.Sequences
	if seq == nil {
		seq = NewSequenceGenerator()
	}
	return &FolioService{repo: opts.Repo, sequences: seq, logger: opts.Logger}
}

// PostTotals recomputes the folio balance from the ledger and upserts the folio row.
func (s *FolioService) PostTotals(ctx context.Context, prop types.PropertyContext, req PostTotalsRequest) (*PostTotalsResult, error) {
	if req.TransactionNo == "" {
		return nil, apperrors.Validation("transaction number is required")
	}
	if req.Type != "" && !req.Type.Valid() {
		return nil, apperrors.Validation("folio type must be master, sharer or additional")
	}

	result := &PostTotalsResult{}
	err := s.repo.Transaction(ctx, func(tx repositories.Repository) error {
		folioNo := req.FolioNo
		if folioNo == "" {
			kind := TransactionKindStay
			if models.IsReservationNo(req.TransactionNo) {
				kind = TransactionKindReservation
			}
			no, err := s.sequences.NextFolioNumber(ctx, tx, kind)
			if err != nil {
				return err
			}
			folioNo = no
		}

		sums, err := tx.SumCharges(ctx, repositories.ChargeQuery{TransactionNo: req.TransactionNo, FolioNo: folioNo})
		if err != nil {
			return fmt.Errorf("sum charges: %w", err)
		}
		totals := models.TotalsFromSums(sums)
		if !req.Charges.Equal(totals.Charges) || !req.Payment.Equal(totals.Payment) {
			s.logger.Debug("folio %s/%s caller totals differ from ledger: charges %s vs %s, payment %s vs %s",
				req.TransactionNo, folioNo, req.Charges, totals.Charges, req.Payment, totals.Payment)
		}

		folio := models.Folio{
			FolioNo:         folioNo,
			TransactionNo:   req.TransactionNo,
			Type:            req.Type,
			MasterFolioNo:   req.MasterFolioNo,
			TotalRate:       req.Rate,
			TotalCharges:    totals.Charges,
			TotalAdjustment: totals.Adjustment,
			TotalPayment:    totals.Payment,
			Balance:         req.Rate.Add(totals.Charges).Add(totals.Adjustment).Sub(totals.Payment),
		}
		if req.Remark != nil {
			folio.Remark = *req.Remark
		}
		if req.CreditLimit != nil && !req.CreditLimit.IsNegative() {
			limit := *req.CreditLimit
			folio.CreditLimit = &limit
		}

		existing, err := tx.GetFolio(ctx, folioNo, req.TransactionNo)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("load folio: %w", err)
		}
		if existing == nil {
			if folio.Type == "" {
				folio.Type = models.FolioTypeMaster
			}
			created, err := tx.CreateFolio(ctx, &folio)
			if err != nil {
				return fmt.Errorf("create folio: %w", err)
			}
			if created {
				result.FolioNo, result.Created, result.Folio = folioNo, true, folio
				return nil
			}
			// Inserted concurrently; fall through to a full update of that row.
			if existing, err = tx.GetFolio(ctx, folioNo, req.TransactionNo); err != nil {
				return fmt.Errorf("reload folio: %w", err)
			}
		}

		mergeFolio(&folio, existing)
		if err := tx.UpdateFolio(ctx, &folio); err != nil {
			return fmt.Errorf("update folio: %w", err)
		}
		result.FolioNo, result.Folio = folioNo, folio
		return nil
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		s.logger.Error("post folio totals %s request=%s: %v", req.TransactionNo, prop.RequestID, err)
		return nil, apperrors.Persistence("post folio totals", err)
	}
	s.logger.Info("folio %s/%s balance %s", req.TransactionNo, result.FolioNo, result.Folio.Balance.StringFixed(2))
	return result, nil
}

// mergeFolio keeps stored optional fields the caller did not supply.
func mergeFolio(folio, existing *models.Folio) {
	if folio.Type == "" {
		folio.Type = existing.Type
	}
	if folio.MasterFolioNo == "" {
		folio.MasterFolioNo = existing.MasterFolioNo
	}
	if folio.Remark == "" {
		folio.Remark = existing.Remark
	}
	if folio.CreditLimit == nil {
		folio.CreditLimit = existing.CreditLimit
	}
	folio.CreatedAt = existing.CreatedAt
}

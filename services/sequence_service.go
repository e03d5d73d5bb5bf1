package services

import (
	"context"
	"fmt"

	"pms/repositories"
)

// Transaction kinds accepted by NextFolioNumber.
const (
	TransactionKindReservation = "reservation"
	TransactionKindStay        = "stay"
)

// SequenceGenerator hands out document numbers from the sequences table.
type SequenceGenerator struct{}

func NewSequenceGenerator() *SequenceGenerator {
	return &SequenceGenerator{}
}

// NextFolioNumber allocates the next folio number for the transaction kind using repo,
// so the allocation commits or rolls back with the caller's transaction.
func (g *SequenceGenerator) NextFolioNumber(ctx context.Context, repo repositories.FolioRepository, transactionKind string) (string, error) {
	prefix := "F"
	if transactionKind == TransactionKindReservation {
		prefix = "RF"
	}
	n, err := repo.NextSequence(ctx, "folio:"+transactionKind)
	if err != nil {
		return "", fmt.Errorf("next folio number: %w", err)
	}
	return fmt.Sprintf("%s%06d", prefix, n), nil
}

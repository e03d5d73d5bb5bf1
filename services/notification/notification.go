package notification

import (
	"context"
	"fmt"
	"time"

	"pms/constants"
	"pms/models"
	"pms/repositories"
	"pms/services/logger"
	"pms/types"

	"github.com/goccy/go-json"
	"github.com/olahol/melody"
)

// Broadcaster pushes a message to every connected websocket client.
type Broadcaster interface {
	SendMessage(message []byte) error
}

type MelodyService struct {
	m *melody.Melody
}

func NewMelodyService(m *melody.Melody) *MelodyService {
	return &MelodyService{m: m}
}

func (s *MelodyService) SendMessage(message []byte) error {
	if s.m == nil {
		return fmt.Errorf("melody instance is nil")
	}
	return s.m.Broadcast(message)
}

// AvailabilityChange is the event emitted after a room-type's sellable stock changed.
type AvailabilityChange struct {
	RoomTypeID uint      `json:"roomTypeId"`
	RoomNo     int       `json:"roomNo,omitempty"`
	From       time.Time `json:"from"`
	To         time.Time `json:"to"`
	Reason     string    `json:"reason"`
}

// AvailabilityNotifier is the one-way sink towards channel managers.
type AvailabilityNotifier interface {
	NotifyAvailabilityChanged(ctx context.Context, prop types.PropertyContext, change AvailabilityChange) error
}

// OTANotifier queues the change for the channel manager and broadcasts it to websocket clients.
type OTANotifier struct {
	repo        repositories.AuditRepository
	broadcaster Broadcaster
	logger      logger.Logger
}

type OTANotifierOptions struct {
	Repo        repositories.AuditRepository
	Broadcaster Broadcaster
	Logger      logger.Logger
}

func NewOTANotifier(opts OTANotifierOptions) *OTANotifier {
	return &OTANotifier{repo: opts.Repo, broadcaster: opts.Broadcaster, logger: opts.Logger}
}

type message struct {
	Type       string             `json:"type"`
	PropertyID string             `json:"propertyId"`
	Change     AvailabilityChange `json:"change"`
}

func (n *OTANotifier) NotifyAvailabilityChanged(ctx context.Context, prop types.PropertyContext, change AvailabilityChange) error {
	arrival := types.MaxDate(types.DateOnly(change.From), prop.Today())
	departure := types.DateOnly(change.To).AddDate(0, 0, constants.OTADepartureExtensionDays)

	row := &models.OTAAvailability{
		PropertyID:    prop.PropertyID,
		RoomTypeID:    change.RoomTypeID,
		InvTypeCode:   fmt.Sprintf("RT%d", change.RoomTypeID),
		ArrivalDate:   arrival,
		DepartureDate: departure,
	}
	if err := n.repo.CreateOTAAvailability(ctx, row); err != nil {
		return fmt.Errorf("queue ota availability: %w", err)
	}

	if n.broadcaster == nil {
		return nil
	}
	payload, err := json.Marshal(message{Type: "availability", PropertyID: prop.PropertyID, Change: change})
	if err != nil {
		return fmt.Errorf("encode availability message: %w", err)
	}
	if err := n.broadcaster.SendMessage(payload); err != nil {
		n.logger.Error("broadcast availability change: %v", err)
	}
	return nil
}

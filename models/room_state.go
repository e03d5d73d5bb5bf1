package models

import (
	"fmt"
	"time"

	apperrors "pms/errors"
)

// LifecycleState is the derived state of a room used by the lifecycle manager.
type LifecycleState string

const (
	StateNormalClean    LifecycleState = "NormalClean"
	StateNormalDirty    LifecycleState = "NormalDirty"
	StateInspect        LifecycleState = "Inspect"
	StateHold           LifecycleState = "Hold"
	StateOutOfOrder     LifecycleState = "OutOfOrder"
	StateOutOfInventory LifecycleState = "OutOfInventory"
	StateOccupied       LifecycleState = "Occupied"
	StateInactive       LifecycleState = "Inactive"
)

// lifecycleTransitions lists every state change the lifecycle manager may perform.
var lifecycleTransitions = map[LifecycleState][]LifecycleState{
	StateNormalClean:    {StateHold, StateOutOfOrder, StateOutOfInventory},
	StateNormalDirty:    {StateHold, StateOutOfOrder, StateOutOfInventory},
	StateInspect:        {StateHold, StateOutOfOrder, StateOutOfInventory},
	StateHold:           {StateNormalClean, StateNormalDirty, StateInspect},
	StateOutOfOrder:     {StateNormalDirty},
	StateOutOfInventory: {StateNormalDirty},
}

// CanTransition reports whether the table allows from -> to.
func CanTransition(from, to LifecycleState) bool {
	for _, s := range lifecycleTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// OOOWindowChange describes an out-of-order mark being applied.
type OOOWindowChange struct {
	Kind   OOOKind
	From   time.Time
	To     time.Time
	Remark string
	Actor  string
}

// RoomState applies lifecycle transitions to a room.
type RoomState interface {
	Name() LifecycleState
	Hold(room *Room, remark, actor string) error
	Release(room *Room) error
	MarkOutOfOrder(room *Room, change OOOWindowChange) error
	ClearOutOfOrder(room *Room, kind OOOKind) error
}

// GetRoomState derives the current state from the room's status and flags.
func GetRoomState(room *Room) RoomState {
	switch room.Status {
	case RoomStatusInactive:
		return &inactiveState{}
	case RoomStatusOccupied:
		return &occupiedState{}
	case RoomStatusOutOfOrder:
		return &outOfOrderState{kind: OOOKindOutOfService}
	case RoomStatusOutOfInventory:
		return &outOfOrderState{kind: OOOKindOutOfInventory}
	}
	switch {
	case room.IsHold:
		return &holdState{}
	case room.IsInspect:
		return &normalState{name: StateInspect}
	case room.Status == RoomStatusVacantDirty:
		return &normalState{name: StateNormalDirty}
	default:
		return &normalState{name: StateNormalClean}
	}
}

func checkTransition(from, to LifecycleState) error {
	if !CanTransition(from, to) {
		return apperrors.State(fmt.Sprintf("room cannot move from %s to %s", from, to))
	}
	return nil
}

type normalState struct {
	name LifecycleState
}

func (s *normalState) Name() LifecycleState { return s.name }

func (s *normalState) Hold(room *Room, remark, actor string) error {
	if err := checkTransition(s.name, StateHold); err != nil {
		return err
	}
	room.IsHold = true
	room.HoldRemark = remark
	room.HoldBy = actor
	return nil
}

func (s *normalState) Release(room *Room) error {
	return apperrors.State(fmt.Sprintf("Room %d is not on hold.", room.RoomNo))
}

func (s *normalState) MarkOutOfOrder(room *Room, change OOOWindowChange) error {
	target := change.Kind.State()
	if err := checkTransition(s.name, target); err != nil {
		return err
	}
	from, to := change.From, change.To
	room.Status = change.Kind.RoomStatus()
	room.OOOStart = &from
	room.OOOEnd = &to
	room.OOORemark = change.Remark
	room.OOOBy = change.Actor
	room.IsInspect = false
	return nil
}

func (s *normalState) ClearOutOfOrder(room *Room, kind OOOKind) error {
	return apperrors.State(fmt.Sprintf("Room is not %s.", kind.Short()))
}

type holdState struct{}

func (s *holdState) Name() LifecycleState { return StateHold }

func (s *holdState) Hold(room *Room, remark, actor string) error {
	return apperrors.Conflict(fmt.Sprintf("Room %d is already on hold.", room.RoomNo))
}

func (s *holdState) Release(room *Room) error {
	room.IsHold = false
	room.HoldRemark = ""
	room.HoldBy = ""
	return nil
}

func (s *holdState) MarkOutOfOrder(room *Room, change OOOWindowChange) error {
	return apperrors.Conflict(fmt.Sprintf("Room %d is on hold.", room.RoomNo))
}

func (s *holdState) ClearOutOfOrder(room *Room, kind OOOKind) error {
	return apperrors.State(fmt.Sprintf("Room is not %s.", kind.Short()))
}

type outOfOrderState struct {
	kind OOOKind
}

func (s *outOfOrderState) Name() LifecycleState { return s.kind.State() }

func (s *outOfOrderState) Hold(room *Room, remark, actor string) error {
	return apperrors.Conflict(fmt.Sprintf("Room %d is %s.", room.RoomNo, room.Status))
}

func (s *outOfOrderState) Release(room *Room) error {
	return apperrors.State(fmt.Sprintf("Room %d is not on hold.", room.RoomNo))
}

func (s *outOfOrderState) MarkOutOfOrder(room *Room, change OOOWindowChange) error {
	return apperrors.Conflict("Already set as OOS/OOI in another date.")
}

func (s *outOfOrderState) ClearOutOfOrder(room *Room, kind OOOKind) error {
	if kind != s.kind {
		return apperrors.State(fmt.Sprintf("Room is not %s.", kind.Short()))
	}
	if err := checkTransition(s.Name(), StateNormalDirty); err != nil {
		return err
	}
	room.Status = RoomStatusVacantDirty
	room.OOOStart = nil
	room.OOOEnd = nil
	room.OOORemark = ""
	room.OOOBy = ""
	room.IsInspect = false
	return nil
}

type occupiedState struct{}

func (s *occupiedState) Name() LifecycleState { return StateOccupied }

func (s *occupiedState) Hold(room *Room, remark, actor string) error {
	return apperrors.Conflict(fmt.Sprintf("Room %d is in use.", room.RoomNo))
}

func (s *occupiedState) Release(room *Room) error {
	return apperrors.State(fmt.Sprintf("Room %d is not on hold.", room.RoomNo))
}

func (s *occupiedState) MarkOutOfOrder(room *Room, change OOOWindowChange) error {
	return apperrors.Conflict(fmt.Sprintf("Room %d is in use.", room.RoomNo))
}

func (s *occupiedState) ClearOutOfOrder(room *Room, kind OOOKind) error {
	return apperrors.State(fmt.Sprintf("Room is not %s.", kind.Short()))
}

type inactiveState struct{}

func (s *inactiveState) Name() LifecycleState { return StateInactive }

func (s *inactiveState) Hold(room *Room, remark, actor string) error {
	return apperrors.Conflict("Invalid room status.")
}

func (s *inactiveState) Release(room *Room) error {
	return apperrors.State(fmt.Sprintf("Room %d is not on hold.", room.RoomNo))
}

func (s *inactiveState) MarkOutOfOrder(room *Room, change OOOWindowChange) error {
	return apperrors.Conflict("Invalid room status.")
}

func (s *inactiveState) ClearOutOfOrder(room *Room, kind OOOKind) error {
	return apperrors.State(fmt.Sprintf("Room is not %s.", kind.Short()))
}

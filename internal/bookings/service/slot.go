package service

import (
	"context"
	"errors"

	"turfbook/internal/slots/lock"
	slotrepo "turfbook/internal/slots/repository"
	mongotx "turfbook/pkg/db/mongo"
	apperrors "turfbook/pkg/errors"
	"turfbook/pkg/model"
)

// slotMutation computes the next slot state and performs the ledger writes
// that belong with it. It runs inside the transaction and may run again if
// the slot changed underneath it.
type slotMutation func(txCtx context.Context, slot *model.Slot) (*model.Slot, error)

// updateSlot applies fn to one slot under the slot lock. The ledger writes
// and the versioned slot swap commit in one transaction; a lost swap rolls
// both back and the attempt is retried up to SlotMaxAttempts times.
func (s *bookingService) updateSlot(ctx context.Context, key model.SlotKey, create bool, fn slotMutation) (*model.Slot, error) {
	release, err := s.locker.Acquire(ctx, key)
	if err != nil {
		return nil, s.lockError(key, err)
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.cfg.Log.Warn("Failed to release slot lock", "slot", key.String(), "error", err)
		}
	}()

	for attempt := 1; attempt <= s.cfg.SlotMaxAttempts; attempt++ {
		var committed *model.Slot
		err := s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
			slot, err := s.loadSlot(txCtx, key, create)
			if err != nil {
				return err
			}

			next, err := fn(txCtx, slot)
			if err != nil {
				return err
			}

			committed, err = s.slots.CompareAndSwap(txCtx, key, slot.Version, next)
			if err != nil && !isSlotConflict(err) {
				return apperrors.Internal("Failed to update slot", err)
			}
			return err
		})
		if err == nil {
			return committed, nil
		}
		if !isSlotConflict(err) {
			if apperrors.IsAppError(err) {
				return nil, err
			}
			return nil, apperrors.Internal("Failed to commit booking", err)
		}

		s.cfg.Log.Warn("Slot changed concurrently, retrying",
			"slot", key.String(),
			"attempt", attempt,
			"max_attempts", s.cfg.SlotMaxAttempts,
		)
	}

	return nil, apperrors.Conflict("Slot is busy with other bookings, please try again")
}

// isSlotConflict reports a lost race on the slot: either the versioned swap
// matched nothing or the server aborted the transaction on a write conflict.
func isSlotConflict(err error) bool {
	return errors.Is(err, slotrepo.ErrVersionConflict) || mongotx.IsTransientTransactionError(err)
}

func (s *bookingService) loadSlot(ctx context.Context, key model.SlotKey, create bool) (*model.Slot, error) {
	if create {
		slot, err := s.slots.GetOrCreate(ctx, key)
		if err != nil && !isSlotConflict(err) {
			return nil, apperrors.Internal("Failed to load slot", err)
		}
		return slot, err
	}

	slot, err := s.slots.Get(ctx, key)
	if err != nil {
		if errors.Is(err, slotrepo.ErrNotFound) {
			return nil, apperrors.NotFound("Slot")
		}
		return nil, apperrors.Internal("Failed to load slot", err)
	}
	return slot, nil
}

func (s *bookingService) lockError(key model.SlotKey, err error) error {
	switch {
	case errors.Is(err, lock.ErrLockTimeout):
		s.cfg.Log.Warn("Timed out waiting for slot lock", "slot", key.String())
		return apperrors.Conflict("Slot is busy with other bookings, please try again")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return apperrors.Timeout("Request timed out waiting for slot")
	default:
		s.cfg.Log.Error("Failed to acquire slot lock", "slot", key.String(), "error", err)
		return apperrors.Internal("Failed to acquire slot lock", err)
	}
}

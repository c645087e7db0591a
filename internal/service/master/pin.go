package master

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/timeclock/internal/domain/master"
	"github.com/cmlabs-hris/timeclock/internal/domain/setting"
	"github.com/cmlabs-hris/timeclock/internal/pkg/validator"
	"golang.org/x/crypto/bcrypt"
)

func (s *MasterServiceImpl) HasPIN(ctx context.Context) (bool, error) {
	hash, err := s.settings.Get(ctx, setting.KeyAdminPINHash)
	if err != nil {
		return false, err
	}
	return hash != nil && *hash != "", nil
}

// SetPIN replaces the admin PIN.
func (s *MasterServiceImpl) SetPIN(ctx context.Context, pin string) error {
	if err := validatePIN(pin); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash PIN: %w", err)
	}
	if err := s.settings.Put(ctx, setting.KeyAdminPINHash, string(hash)); err != nil {
		return fmt.Errorf("failed to store PIN: %w", err)
	}

	s.logger.Info("admin PIN updated")
	return nil
}

// VerifyPIN returns master.ErrPINNotSet when no PIN exists and
// master.ErrInvalidPIN on mismatch.
func (s *MasterServiceImpl) VerifyPIN(ctx context.Context, pin string) error {
	hash, err := s.settings.Get(ctx, setting.KeyAdminPINHash)
	if err != nil {
		return err
	}
	if hash == nil || *hash == "" {
		return master.ErrPINNotSet
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*hash), []byte(pin)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return master.ErrInvalidPIN
		}
		return fmt.Errorf("failed to verify PIN: %w", err)
	}
	return nil
}

// Unlock verifies pin. When no PIN has been set yet, pin becomes the PIN and
// created is true.
func (s *MasterServiceImpl) Unlock(ctx context.Context, pin string) (bool, error) {
	err := s.VerifyPIN(ctx, pin)
	if !errors.Is(err, master.ErrPINNotSet) {
		return false, err
	}

	if err := s.SetPIN(ctx, pin); err != nil {
		return false, err
	}
	return true, nil
}

func validatePIN(pin string) error {
	var errs validator.ValidationErrors
	if len([]rune(pin)) < master.MinPINLength {
		errs.Add("pin", fmt.Sprintf("pin must be at least %d characters", master.MinPINLength))
	} else if len(pin) > 72 {
		errs.Add("pin", "pin must not exceed 72 bytes")
	}
	return errs.Err()
}

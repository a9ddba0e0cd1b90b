// ABOUTME: Snapshot store combinators for the wizard
// ABOUTME: Mirrors writes from the primary local store to optional sync stores
package wizard

import (
	"context"
	"errors"

	"github.com/harperreed/podium/models"
)

// MirroredStore reads from the primary store and writes to every store.
type MirroredStore struct {
	primary Store
	mirrors []Store
}

// Mirror returns a store writing through primary and all mirrors.
func Mirror(primary Store, mirrors ...Store) *MirroredStore {
	return &MirroredStore{primary: primary, mirrors: mirrors}
}

func (m *MirroredStore) SaveSession(ctx context.Context, session *models.WizardSession) error {
	errs := []error{m.primary.SaveSession(ctx, session)}
	for _, s := range m.mirrors {
		errs = append(errs, s.SaveSession(ctx, session))
	}
	return errors.Join(errs...)
}

// GetSession falls back to the mirrors when the primary has no record,
// which is how a session started on another device is picked up.
func (m *MirroredStore) GetSession(ctx context.Context, id string) (*models.WizardSession, error) {
	session, err := m.primary.GetSession(ctx, id)
	if err != nil || session != nil {
		return session, err
	}
	for _, s := range m.mirrors {
		session, err := s.GetSession(ctx, id)
		if err != nil {
			return nil, err
		}
		if session != nil {
			return session, nil
		}
	}
	return nil, nil
}

func (m *MirroredStore) DeleteSession(ctx context.Context, id string) error {
	errs := []error{m.primary.DeleteSession(ctx, id)}
	for _, s := range m.mirrors {
		errs = append(errs, s.DeleteSession(ctx, id))
	}
	return errors.Join(errs...)
}

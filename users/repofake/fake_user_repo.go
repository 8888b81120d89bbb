package fakeuserrepo

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/bookstore-auth/internal/errors"
	"github.com/jrsteele09/bookstore-auth/users"
)

var _ users.UserRepo = (*FakeUserRepo)(nil)

// FakeUserRepo is an in-memory credential store. It hands out copies so
// callers cannot mutate stored records behind the lock.
type FakeUserRepo struct {
	users    map[string]*users.User
	emailIds map[string]string // normalised email to user id
	lock     sync.RWMutex
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		users:    make(map[string]*users.User),
		emailIds: make(map[string]string),
	}
}

func (ur *FakeUserRepo) Upsert(_ context.Context, user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.Email = users.NormaliseEmail(user.Email)

	if ownerID, ok := ur.emailIds[user.Email]; ok && ownerID != user.ID {
		return apperrors.Wrapf(apperrors.ErrAlreadyExists, "user %s", user.Email)
	}

	if previous, ok := ur.users[user.ID]; ok && previous.Email != user.Email {
		delete(ur.emailIds, previous.Email)
	}

	stored := copyUser(user)
	ur.users[user.ID] = stored
	ur.emailIds[user.Email] = user.ID
	return nil
}

func (ur *FakeUserRepo) GetByEmail(_ context.Context, email string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	id, ok := ur.emailIds[users.NormaliseEmail(email)]
	if !ok {
		return nil, apperrors.Wrapf(apperrors.ErrNotFound, "user %s", email)
	}
	return copyUser(ur.users[id]), nil
}

func (ur *FakeUserRepo) GetByID(_ context.Context, id string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	u, ok := ur.users[id]
	if !ok {
		return nil, apperrors.Wrapf(apperrors.ErrNotFound, "user id %s", id)
	}
	return copyUser(u), nil
}

func (ur *FakeUserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	_, ok := ur.emailIds[users.NormaliseEmail(email)]
	return ok, nil
}

func (ur *FakeUserRepo) SetBlocked(_ context.Context, email string, blocked bool) error {
	return ur.update(email, func(u *users.User) { u.Blocked = blocked })
}

func (ur *FakeUserRepo) SoftDelete(_ context.Context, email string) error {
	return ur.update(email, func(u *users.User) {
		if u.DeletedAt == nil {
			now := time.Now().UTC()
			u.DeletedAt = &now
		}
	})
}

func (ur *FakeUserRepo) update(email string, fn func(*users.User)) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	id, ok := ur.emailIds[users.NormaliseEmail(email)]
	if !ok {
		return apperrors.Wrapf(apperrors.ErrNotFound, "user %s", email)
	}
	fn(ur.users[id])
	return nil
}

func copyUser(u *users.User) *users.User {
	c := *u
	if u.DeletedAt != nil {
		d := *u.DeletedAt
		c.DeletedAt = &d
	}
	if u.Customer != nil {
		p := *u.Customer
		c.Customer = &p
	}
	if u.Staff != nil {
		p := *u.Staff
		c.Staff = &p
	}
	return &c
}

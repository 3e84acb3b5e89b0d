package memory

import (
	"context"

	"savoria/domain/delivery"
	"savoria/domain/directory"
	"savoria/domain/shared"
	"savoria/domain/user"
)

type MenuCatalog struct {
	store *Store
}

func NewMenuCatalog(store *Store) *MenuCatalog {
	return &MenuCatalog{store: store}
}

func (c *MenuCatalog) GetMenuItem(_ context.Context, id string) (*directory.MenuItem, error) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	item, ok := c.store.menu[id]
	if !ok {
		return nil, shared.NewNotFoundError("menu_item", id)
	}
	return &item, nil
}

// DriverDirectory stages availability changes in the caller's transaction.
type DriverDirectory struct {
	store *Store
}

func NewDriverDirectory(store *Store) *DriverDirectory {
	return &DriverDirectory{store: store}
}

func (d *DriverDirectory) GetDriver(ctx context.Context, id string) (*directory.Driver, error) {
	d.store.mu.RLock()
	driver, ok := d.store.drivers[id]
	d.store.mu.RUnlock()
	if !ok {
		return nil, shared.NewNotFoundError("driver", id)
	}
	if t := txnFrom(ctx); t != nil {
		if c, ok := t.drivers[id]; ok {
			driver.Available = c.available
		}
	}
	return &driver, nil
}

// SetAvailability with available=false claims the driver and fails when
// the driver is already taken.
func (d *DriverDirectory) SetAvailability(ctx context.Context, id string, available bool) error {
	return d.store.write(ctx, func(t *txn) error {
		current, err := d.GetDriver(withTxn(ctx, t), id)
		if err != nil {
			return err
		}
		if !available && !current.Available {
			return delivery.NewDriverUnavailableError(id)
		}
		t.drivers[id] = driverChange{available: available}
		return nil
	})
}

type UserDirectory struct {
	store *Store
}

func NewUserDirectory(store *Store) *UserDirectory {
	return &UserDirectory{store: store}
}

func (u *UserDirectory) FindByID(_ context.Context, id string) (*user.User, error) {
	u.store.mu.RLock()
	defer u.store.mu.RUnlock()
	found, ok := u.store.users[id]
	if !ok {
		return nil, user.NewUserNotFoundError(id)
	}
	return &found, nil
}

func (u *UserDirectory) FindByUsername(_ context.Context, username string) (*user.User, error) {
	u.store.mu.RLock()
	defer u.store.mu.RUnlock()
	for _, found := range u.store.users {
		if found.Username == username {
			f := found
			return &f, nil
		}
	}
	return nil, user.NewUserNotFoundError(username)
}

var (
	_ directory.MenuCatalog     = (*MenuCatalog)(nil)
	_ directory.DriverDirectory = (*DriverDirectory)(nil)
	_ user.Directory            = (*UserDirectory)(nil)
)

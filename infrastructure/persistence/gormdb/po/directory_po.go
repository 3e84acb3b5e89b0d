package po

import (
	"time"

	"savoria/domain/directory"
	"savoria/domain/shared"
	"savoria/domain/user"

	"github.com/shopspring/decimal"
)

// MenuItemPO, DriverPO and UserPO are owned by other services in a full
// deployment. They are mapped here so a single database can serve the
// lookups the fulfillment engine needs.

type MenuItemPO struct {
	ID                 string          `gorm:"primaryKey;size:64"`
	Name               string          `gorm:"size:255;not null"`
	Price              decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DiscountPercentage decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	Available          bool            `gorm:"not null"`
	UpdatedAt          time.Time
}

func (MenuItemPO) TableName() string {
	return "menu_items"
}

func (p *MenuItemPO) ToDomain() *directory.MenuItem {
	return &directory.MenuItem{
		ID:                 p.ID,
		Name:               p.Name,
		Price:              shared.MoneyFromDecimal(p.Price),
		DiscountPercentage: p.DiscountPercentage,
		Available:          p.Available,
	}
}

type DriverPO struct {
	ID        string `gorm:"primaryKey;size:64"`
	Name      string `gorm:"size:255;not null"`
	Phone     string `gorm:"size:40"`
	Vehicle   string `gorm:"size:100"`
	Available bool   `gorm:"not null"`
	UpdatedAt time.Time
}

func (DriverPO) TableName() string {
	return "drivers"
}

func (p *DriverPO) ToDomain() *directory.Driver {
	return &directory.Driver{
		ID:        p.ID,
		Name:      p.Name,
		Phone:     p.Phone,
		Vehicle:   p.Vehicle,
		Available: p.Available,
	}
}

type UserPO struct {
	ID        string `gorm:"primaryKey;size:64"`
	Username  string `gorm:"size:100;uniqueIndex;not null"`
	FullName  string `gorm:"size:255"`
	Email     string `gorm:"size:255"`
	Role      string `gorm:"size:20;not null"`
	Active    bool   `gorm:"not null"`
	CreatedAt time.Time
}

func (UserPO) TableName() string {
	return "users"
}

// ToDomain leaves Email empty when the stored address does not parse and
// demotes an unrecognised role to customer.
func (p *UserPO) ToDomain() *user.User {
	u := &user.User{
		ID:       p.ID,
		Username: p.Username,
		FullName: p.FullName,
		Role:     user.RoleCustomer,
		Active:   p.Active,
	}
	if role, err := user.ParseRole(p.Role); err == nil {
		u.Role = role
	}
	if email, err := user.ParseEmail(p.Email); err == nil {
		u.Email = email
	}
	return u
}

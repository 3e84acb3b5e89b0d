package cmd

import (
	"savoria/domain/directory"
	"savoria/domain/shared"
	"savoria/domain/user"
	"savoria/infrastructure/persistence/gormdb"
	"savoria/infrastructure/persistence/gormdb/po"
	"savoria/infrastructure/persistence/memory"

	"github.com/shopspring/decimal"
)

// Reference data for development runs. Production menus, drivers and users
// are owned by other services and are never seeded.
var (
	demoMenu = []directory.MenuItem{
		{ID: "menu-pad-thai", Name: "Pad Thai", Price: shared.MustMoney("120.00"), DiscountPercentage: decimal.Zero, Available: true},
		{ID: "menu-green-curry", Name: "Green Curry", Price: shared.MustMoney("150.00"), DiscountPercentage: decimal.NewFromInt(10), Available: true},
		{ID: "menu-mango-rice", Name: "Mango Sticky Rice", Price: shared.MustMoney("90.00"), DiscountPercentage: decimal.Zero, Available: true},
	}
	demoDrivers = []directory.Driver{
		{ID: "driver-1", Name: "Somchai", Phone: "0800000001", Vehicle: "scooter", Available: true},
		{ID: "driver-2", Name: "Niran", Phone: "0800000002", Vehicle: "car", Available: true},
	}
	demoUsers = []po.UserPO{
		{ID: "admin-1", Username: "admin", FullName: "Kitchen Admin", Email: "admin@savoria.local", Role: string(user.RoleAdmin), Active: true},
		{ID: "driver-1", Username: "somchai", FullName: "Somchai", Email: "somchai@savoria.local", Role: string(user.RoleDriver), Active: true},
		{ID: "customer-1", Username: "alice", FullName: "Alice", Email: "alice@example.com", Role: string(user.RoleCustomer), Active: true},
	}
)

func seedMemory(store *memory.Store) {
	for _, item := range demoMenu {
		store.PutMenuItem(item)
	}
	for _, d := range demoDrivers {
		store.PutDriver(d)
	}
	for i := range demoUsers {
		store.PutUser(*demoUsers[i].ToDomain())
	}
}

func sqlSeed() gormdb.SeedData {
	data := gormdb.SeedData{Users: demoUsers}
	for _, item := range demoMenu {
		data.MenuItems = append(data.MenuItems, po.MenuItemPO{
			ID:                 item.ID,
			Name:               item.Name,
			Price:              item.Price.Decimal(),
			DiscountPercentage: item.DiscountPercentage,
			Available:          item.Available,
		})
	}
	for _, d := range demoDrivers {
		data.Drivers = append(data.Drivers, po.DriverPO{
			ID:        d.ID,
			Name:      d.Name,
			Phone:     d.Phone,
			Vehicle:   d.Vehicle,
			Available: d.Available,
		})
	}
	return data
}

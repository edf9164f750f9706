package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrConflict 乐观锁版本不匹配
	ErrConflict = errors.New("version conflict")
)

// Repositories WMS仓库集合
type Repositories struct {
	PO        *PORepository
	Inventory *InventoryRepository
	Supplier  *SupplierRepository
	Customer  *CustomerRepository
	Shipment  *ShipmentRepository
}

// NewRepositories 创建WMS仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		PO:        NewPORepository(db),
		Inventory: NewInventoryRepository(db),
		Supplier:  NewSupplierRepository(db),
		Customer:  NewCustomerRepository(db),
		Shipment:  NewShipmentRepository(db),
	}
}

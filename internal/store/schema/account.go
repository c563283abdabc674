package schema

import "time"

// Account represents the accounts table - a layer-2 identity keyed by its
// stark key, optionally bound to a settlement-layer address.
// Accounts are created lazily on first reference by either key.
type Account struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// StarkKey is the account's public stark key (a field element)
	StarkKey string `gorm:"column:stark_key;not null;uniqueIndex;type:numeric(78,0)"`
	// Address is the bound settlement-layer address, set by register_account
	Address *string `gorm:"column:address;uniqueIndex;type:text"`
	// CreatedAt is the timestamp when this row was persisted
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Account model
func (Account) TableName() string {
	return "accounts"
}

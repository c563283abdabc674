package schema

import "time"

// Balance represents the balances table - an account's holding of one
// fungible contract.
// Invariant: Amount is never negative after a committed interpretation step;
// the interpreter asserts this rather than clamping.
type Balance struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// AccountID references the holding account
	AccountID uint64 `gorm:"column:account_id;not null;uniqueIndex:idx_balances_account_contract,priority:1"`
	// ContractID references the fungible TokenContract
	ContractID uint64 `gorm:"column:contract_id;not null;uniqueIndex:idx_balances_account_contract,priority:2"`
	// Amount is the held quantity (string to support up to 78 digits)
	Amount string `gorm:"column:amount;not null;default:0;type:numeric(78,0)"`
	// UpdatedAt is the timestamp when this balance was last mutated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`

	// Associations
	Account  Account       `gorm:"foreignKey:AccountID"`
	Contract TokenContract `gorm:"foreignKey:ContractID"`
}

// TableName specifies the table name for the Balance model
func (Balance) TableName() string {
	return "balances"
}

package schema

import "time"

// LimitOrder represents the limit_orders table - an exchange order over one
// non-fungible token against a fungible quote contract.
// State is derived: NEW while Fulfilled is nil, FULFILLED when true,
// CANCELLED when false; terminal once ClosedTxHash is set.
type LimitOrder struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// OrderID is the order's on-chain identifier
	OrderID string `gorm:"column:order_id;not null;uniqueIndex;type:numeric(78,0)"`
	// UserID references the account that opened the order
	UserID uint64 `gorm:"column:user_id;not null;index"`
	// Bid is true for buy orders (quote escrowed), false for asks (token escrowed)
	Bid bool `gorm:"column:bid;not null"`
	// TokenID references the base token
	TokenID uint64 `gorm:"column:token_id;not null;index"`
	// QuoteContractID references the fungible quote contract
	QuoteContractID uint64 `gorm:"column:quote_contract_id;not null"`
	// QuoteAmount is the order price in quote units
	QuoteAmount string `gorm:"column:quote_amount;not null;type:numeric(78,0)"`
	// TxHash is the opening transaction
	TxHash string `gorm:"column:tx_hash;not null;type:text"`
	// ClosedTxHash is the closing transaction; nil while the order is open
	ClosedTxHash *string `gorm:"column:closed_tx_hash;type:text"`
	// Fulfilled is nil while open, true when fulfilled, false when cancelled
	Fulfilled *bool `gorm:"column:fulfilled"`
	// CreatedAt is the timestamp when this row was persisted
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`

	// Associations
	User          Account       `gorm:"foreignKey:UserID"`
	Token         Token         `gorm:"foreignKey:TokenID"`
	QuoteContract TokenContract `gorm:"foreignKey:QuoteContractID"`
}

// TableName specifies the table name for the LimitOrder model
func (LimitOrder) TableName() string {
	return "limit_orders"
}

package schema

import (
	"gorm.io/datatypes"

	"github.com/starkmirror/starkmirror/internal/domain"
)

// TokenFlow represents the token_flows table - every non-fungible ownership
// change with its provenance.
type TokenFlow struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// TxHash references the transaction that produced this flow. Composite
	// operations may record several flows against one transaction
	TxHash string `gorm:"column:tx_hash;not null;index;type:text"`
	// Type classifies the flow (DEPOSIT, WITHDRAWAL, TRANSFER, MINT)
	Type domain.FlowType `gorm:"column:type;not null;type:text;index"`
	// TokenID references the moved token
	TokenID uint64 `gorm:"column:token_id;not null;index"`
	// FromAccountID is the previous owner; nil for deposits and mints
	FromAccountID *uint64 `gorm:"column:from_account_id"`
	// ToAccountID is the new owner; nil for withdrawals
	ToAccountID *uint64 `gorm:"column:to_account_id"`
	// Address is the settlement-layer destination for withdrawals
	Address *string `gorm:"column:address;type:text"`
	// Mint marks a withdrawal that mints the token back on the settlement
	// layer rather than releasing an escrowed one
	Mint *bool `gorm:"column:mint"`
	// Nonce is the withdrawal replay-protection counter
	Nonce *string `gorm:"column:nonce;type:numeric(78,0)"`
	// EthEventID references the settlement-layer confirmation event once matched
	EthEventID *uint64 `gorm:"column:eth_event_id"`
	// Extra carries provenance for flows derived from composite operations
	// ({stereotype_id, originating function, owner})
	Extra datatypes.JSON `gorm:"column:extra;type:jsonb"`

	// Associations
	Transaction Transaction `gorm:"foreignKey:TxHash;references:Hash;constraint:OnDelete:CASCADE"`
	Token       Token       `gorm:"foreignKey:TokenID"`
	FromAccount *Account    `gorm:"foreignKey:FromAccountID"`
	ToAccount   *Account    `gorm:"foreignKey:ToAccountID"`
	EthEvent    *EthEvent   `gorm:"foreignKey:EthEventID"`
}

// TableName specifies the table name for the TokenFlow model
func (TokenFlow) TableName() string {
	return "token_flows"
}

package schema

import (
	"time"

	"gorm.io/datatypes"
)

// Transaction represents the transactions table - one row per contract
// invocation recorded in an ingested block.
// Invariant: Hash equals the hash at TransactionIndex of the owning block's
// document.
type Transaction struct {
	// Hash is the layer-2 transaction hash; primary key
	Hash string `gorm:"column:hash;primaryKey;type:text"`
	// BlockID is the owning block's sequence number
	BlockID uint64 `gorm:"column:block_id;not null;index"`
	// TransactionIndex is the position inside the owning block
	TransactionIndex int `gorm:"column:transaction_index;not null"`
	// Type is the gateway transaction type (INVOKE_FUNCTION, DEPLOY, ...)
	Type string `gorm:"column:type;not null;type:text"`
	// ContractID references the StarkContract the call targeted
	ContractID uint64 `gorm:"column:contract_id;not null;index"`
	// EntryPointSelector is the invoked selector; nil for DEPLOY transactions
	EntryPointSelector *string `gorm:"column:entry_point_selector;type:text;index"`
	// EntryPointType is the gateway entry point type; nil for DEPLOY
	EntryPointType *string `gorm:"column:entry_point_type;type:text"`
	// Calldata is the call's argument list (constructor calldata for DEPLOY)
	Calldata datatypes.JSON `gorm:"column:calldata;not null;type:jsonb"`
	// CreatedAt is the timestamp when this row was persisted
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`

	// Associations
	Block    Block         `gorm:"foreignKey:BlockID;constraint:OnDelete:CASCADE"`
	Contract StarkContract `gorm:"foreignKey:ContractID"`
}

// TableName specifies the table name for the Transaction model
func (Transaction) TableName() string {
	return "transactions"
}

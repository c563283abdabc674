package schema

import (
	"time"

	"gorm.io/datatypes"
)

// Block represents the blocks table - one row per ingested layer-2 block.
// Rows are immutable once persisted except during reorg repair, when the
// document and hash may be overwritten before the row is deleted.
type Block struct {
	// ID is the block's sequence number on the execution layer; primary key
	ID uint64 `gorm:"column:id;primaryKey"`
	// Hash is the block hash reported by the gateway
	Hash string `gorm:"column:hash;not null;uniqueIndex;type:text"`
	// Timestamp is the block timestamp on the execution layer
	Timestamp time.Time `gorm:"column:timestamp;not null;type:timestamptz"`
	// Document is the raw gateway block document; calldata and receipt-derived
	// event lists are views over this
	Document datatypes.JSON `gorm:"column:document;not null;type:jsonb"`
	// CreatedAt is the timestamp when this row was persisted
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`

	// Associations
	Transactions []Transaction `gorm:"foreignKey:BlockID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the Block model
func (Block) TableName() string {
	return "blocks"
}

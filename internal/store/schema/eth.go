package schema

import (
	"time"

	"gorm.io/datatypes"
)

// EthBlock represents the eth_blocks table - an immutable settlement-layer
// block fact, persisted lazily when its first log entry is seen.
type EthBlock struct {
	// ID is the settlement-layer block number; primary key
	ID uint64 `gorm:"column:id;primaryKey"`
	// Hash is the settlement-layer block hash
	Hash string `gorm:"column:hash;not null;uniqueIndex;type:text"`
	// Timestamp is the block timestamp
	Timestamp time.Time `gorm:"column:timestamp;not null;type:timestamptz"`
}

// TableName specifies the table name for the EthBlock model
func (EthBlock) TableName() string {
	return "eth_blocks"
}

// EthEvent represents the eth_events table - an immutable settlement-layer
// log entry the reconciler joins against.
type EthEvent struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// TxHash is the settlement-layer transaction hash
	TxHash string `gorm:"column:tx_hash;not null;uniqueIndex:idx_eth_events_tx_log,priority:1;type:text"`
	// LogIndex is the entry's position in the block's log
	LogIndex uint `gorm:"column:log_index;not null;uniqueIndex:idx_eth_events_tx_log,priority:2;uniqueIndex:idx_eth_events_block_log,priority:2"`
	// BlockNumber is the enclosing settlement-layer block
	BlockNumber uint64 `gorm:"column:block_number;not null;uniqueIndex:idx_eth_events_block_log,priority:1"`
	// TransactionIndex is the transaction's position in the block
	TransactionIndex uint `gorm:"column:transaction_index;not null"`
	// Body is the full log entry as received
	Body datatypes.JSON `gorm:"column:body;not null;type:jsonb"`

	// Associations
	Block EthBlock `gorm:"foreignKey:BlockNumber"`
}

// TableName specifies the table name for the EthEvent model
func (EthEvent) TableName() string {
	return "eth_events"
}

package schema

// StarkContract represents the stark_contracts table - every layer-2 contract
// address seen in an ingested transaction, tracked or not.
// BlockCounter is the interpreter's per-contract replay cursor: the next block
// number whose transactions against this contract have not been replayed.
type StarkContract struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// Address is the contract's layer-2 address as reported by the gateway
	Address string `gorm:"column:address;not null;uniqueIndex;type:text"`
	// BlockCounter is the interpreter cursor; nil until first advancement,
	// in which case the contract's DEPLOY block seeds it
	BlockCounter *uint64 `gorm:"column:block_counter"`

	// Associations
	Transactions []Transaction `gorm:"foreignKey:ContractID"`
}

// TableName specifies the table name for the StarkContract model
func (StarkContract) TableName() string {
	return "stark_contracts"
}

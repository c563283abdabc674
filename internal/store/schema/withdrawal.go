package schema

// Withdrawal represents the withdrawals table - the fungible counterpart of a
// WITHDRAWAL TokenFlow, awaiting its settlement-layer confirmation event.
type Withdrawal struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// TxHash references the withdrawing transaction
	TxHash string `gorm:"column:tx_hash;not null;uniqueIndex;type:text"`
	// BalanceID references the debited balance row
	BalanceID uint64 `gorm:"column:balance_id;not null;index"`
	// Amount is the withdrawn quantity
	Amount string `gorm:"column:amount;not null;type:numeric(78,0)"`
	// Address is the settlement-layer destination
	Address string `gorm:"column:address;not null;type:text"`
	// Nonce is the withdrawal replay-protection counter
	Nonce string `gorm:"column:nonce;not null;type:numeric(78,0)"`
	// EthEventID references the settlement-layer confirmation event once matched
	EthEventID *uint64 `gorm:"column:eth_event_id"`

	// Associations
	Transaction Transaction `gorm:"foreignKey:TxHash;references:Hash;constraint:OnDelete:CASCADE"`
	Balance     Balance     `gorm:"foreignKey:BalanceID"`
	EthEvent    *EthEvent   `gorm:"foreignKey:EthEventID"`
}

// TableName specifies the table name for the Withdrawal model
func (Withdrawal) TableName() string {
	return "withdrawals"
}

package schema

// Deposit represents the deposits table - the fungible counterpart of a
// DEPOSIT TokenFlow, linked 1:1 to its transaction and balance.
type Deposit struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// TxHash references the depositing transaction
	TxHash string `gorm:"column:tx_hash;not null;uniqueIndex;type:text"`
	// BalanceID references the credited balance row
	BalanceID uint64 `gorm:"column:balance_id;not null;index"`
	// Amount is the deposited quantity
	Amount string `gorm:"column:amount;not null;type:numeric(78,0)"`

	// Associations
	Transaction Transaction `gorm:"foreignKey:TxHash;references:Hash;constraint:OnDelete:CASCADE"`
	Balance     Balance     `gorm:"foreignKey:BalanceID"`
}

// TableName specifies the table name for the Deposit model
func (Deposit) TableName() string {
	return "deposits"
}

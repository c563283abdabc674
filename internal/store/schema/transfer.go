package schema

import (
	"time"

	"github.com/starkmirror/starkmirror/internal/domain"
)

// Transfer represents the transfers table - an off-chain-originated fungible
// transfer awaiting on-chain inclusion. REJECTED is terminal and triggers a
// compensating balance reversal; the status transition is the guard against
// reversing twice.
type Transfer struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// Hash is the transfer's layer-2 transaction hash
	Hash string `gorm:"column:hash;not null;uniqueIndex;type:text"`
	// FromAccountID and ToAccountID reference the debited and credited accounts
	FromAccountID uint64 `gorm:"column:from_account_id;not null;index"`
	ToAccountID   uint64 `gorm:"column:to_account_id;not null;index"`
	// Amount is the transferred quantity
	Amount string `gorm:"column:amount;not null;type:numeric(78,0)"`
	// ContractID references the fungible contract
	ContractID uint64 `gorm:"column:contract_id;not null"`
	// Nonce is the sender's replay-protection counter
	Nonce string `gorm:"column:nonce;not null;type:numeric(78,0)"`
	// SignatureR and SignatureS hold the stark signature for resubmission;
	// nil for transfers that originated purely on-chain
	SignatureR *string `gorm:"column:signature_r;type:numeric(78,0)"`
	SignatureS *string `gorm:"column:signature_s;type:numeric(78,0)"`
	// Status is the transfer's gateway lifecycle status
	Status domain.TxStatus `gorm:"column:status;not null;type:text;index"`
	// CreatedAt is the timestamp when this row was persisted
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`

	// Associations
	FromAccount Account       `gorm:"foreignKey:FromAccountID"`
	ToAccount   Account       `gorm:"foreignKey:ToAccountID"`
	Contract    TokenContract `gorm:"foreignKey:ContractID"`
}

// TableName specifies the table name for the Transfer model
func (Transfer) TableName() string {
	return "transfers"
}

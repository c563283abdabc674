package schema

import (
	"time"

	"gorm.io/datatypes"
)

// Token represents the tokens table - one row per non-fungible token known to
// the projection. A nil OwnerID means the token is escrowed, burned or
// withdrawn to the settlement layer.
type Token struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// ContractID references the owning TokenContract
	ContractID uint64 `gorm:"column:contract_id;not null;uniqueIndex:idx_tokens_contract_token,priority:1"`
	// TokenID is the token number within the contract
	TokenID string `gorm:"column:token_id;not null;uniqueIndex:idx_tokens_contract_token,priority:2;type:numeric(78,0)"`
	// OwnerID references the current owner account; nil when not held on layer 2
	OwnerID *uint64 `gorm:"column:owner_id;index"`
	// Nonce is the token's replay-protection counter
	Nonce uint64 `gorm:"column:nonce;not null;default:0"`
	// LatestTxHash is the hash of the last transaction that touched this token
	LatestTxHash *string `gorm:"column:latest_tx_hash;type:text"`
	// AskOrderID references the open ask order escrowing this token, if any
	AskOrderID *uint64 `gorm:"column:ask_order_id"`
	// TokenURI is the resolved metadata location
	TokenURI *string `gorm:"column:token_uri;type:text"`
	// Name, Description and Image are lifted from the asset metadata
	Name        *string `gorm:"column:name;type:text"`
	Description *string `gorm:"column:description;type:text"`
	Image       *string `gorm:"column:image;type:text"`
	// AssetMetadata is the raw metadata document as last fetched
	AssetMetadata datatypes.JSON `gorm:"column:asset_metadata;type:jsonb"`
	// CreatedAt is the timestamp when this row was persisted
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`

	// Associations
	Contract TokenContract `gorm:"foreignKey:ContractID"`
	Owner    *Account      `gorm:"foreignKey:OwnerID"`
}

// TableName specifies the table name for the Token model
func (Token) TableName() string {
	return "tokens"
}

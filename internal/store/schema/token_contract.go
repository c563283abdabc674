package schema

// TokenContract represents the token_contracts table - an asset contract
// registered with the ledger, fungible or not.
type TokenContract struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// Address is the settlement-layer contract address, checksummed; the zero
	// address denotes the native asset
	Address string `gorm:"column:address;not null;uniqueIndex;type:text"`
	// Fungible distinguishes balance-tracked assets from per-token assets
	Fungible bool `gorm:"column:fungible;not null"`
	// Name, Symbol and Decimals mirror the on-chain token identity when known
	Name     *string `gorm:"column:name;type:text"`
	Symbol   *string `gorm:"column:symbol;type:text"`
	Decimals *int    `gorm:"column:decimals"`
	// BaseURI is the metadata URI prefix for non-fungible contracts
	BaseURI *string `gorm:"column:base_uri;type:text"`
	// Image and Description are display fields for the contract itself
	Image       *string `gorm:"column:image;type:text"`
	Description *string `gorm:"column:description;type:text"`

	// Associations
	Blueprint *Blueprint `gorm:"foreignKey:TokenContractID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the TokenContract model
func (TokenContract) TableName() string {
	return "token_contracts"
}

// Blueprint represents the blueprints table - a pending, minter-bound
// registration record linking a non-fungible contract to its designated
// minter account before the contract is confirmed on-chain.
type Blueprint struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// TokenContractID references the registered contract
	TokenContractID uint64 `gorm:"column:token_contract_id;not null;uniqueIndex"`
	// MinterID references the account authorized to mint
	MinterID uint64 `gorm:"column:minter_id;not null"`

	// Associations
	Minter Account `gorm:"foreignKey:MinterID"`
}

// TableName specifies the table name for the Blueprint model
func (Blueprint) TableName() string {
	return "blueprints"
}

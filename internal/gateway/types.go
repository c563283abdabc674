package gateway

import "github.com/starkmirror/starkmirror/internal/domain"

// BlockDocument is a block as served by the feeder gateway. The raw document
// is persisted as-is; these fields are the subset the services read.
type BlockDocument struct {
	BlockNumber         uint64               `json:"block_number"`
	BlockHash           string               `json:"block_hash"`
	ParentBlockHash     string               `json:"parent_block_hash"`
	Status              domain.TxStatus      `json:"status"`
	Timestamp           int64                `json:"timestamp"`
	Transactions        []TransactionEntry   `json:"transactions"`
	TransactionReceipts []TransactionReceipt `json:"transaction_receipts"`
}

// TransactionEntry is one transaction inside a block document
type TransactionEntry struct {
	TransactionHash     string   `json:"transaction_hash"`
	Type                string   `json:"type"`
	ContractAddress     string   `json:"contract_address"`
	EntryPointSelector  *string  `json:"entry_point_selector,omitempty"`
	EntryPointType      *string  `json:"entry_point_type,omitempty"`
	Calldata            []string `json:"calldata,omitempty"`
	ConstructorCalldata []string `json:"constructor_calldata,omitempty"`
}

// Args returns the transaction's argument list: calldata for invocations,
// constructor calldata for deployments
func (t TransactionEntry) Args() []string {
	if t.Type == domain.TxTypeDeploy {
		return t.ConstructorCalldata
	}
	return t.Calldata
}

// TransactionReceipt is one receipt inside a block document. Receipts line up
// with the block's transactions by TransactionIndex.
type TransactionReceipt struct {
	TransactionHash  string          `json:"transaction_hash"`
	TransactionIndex int             `json:"transaction_index"`
	L2ToL1Messages   []L2ToL1Message `json:"l2_to_l1_messages"`
	Events           []Event         `json:"events"`
}

// L2ToL1Message is an outbound message recorded in a receipt
type L2ToL1Message struct {
	FromAddress string   `json:"from_address"`
	ToAddress   string   `json:"to_address"`
	Payload     []string `json:"payload"`
}

// Event is an emitted contract event recorded in a receipt
type Event struct {
	FromAddress string   `json:"from_address"`
	Keys        []string `json:"keys"`
	Data        []string `json:"data"`
}

// StatusResponse is the get_transaction_status response
type StatusResponse struct {
	TxStatus domain.TxStatus `json:"tx_status"`
}

// InvokeFunction is the add_transaction request body for a function call
type InvokeFunction struct {
	Type               string   `json:"type"`
	ContractAddress    string   `json:"contract_address"`
	EntryPointSelector string   `json:"entry_point_selector"`
	Calldata           []string `json:"calldata"`
	Signature          []string `json:"signature"`
}

// AddTransactionResponse is the add_transaction response
type AddTransactionResponse struct {
	Code            string `json:"code"`
	TransactionHash string `json:"transaction_hash"`
}

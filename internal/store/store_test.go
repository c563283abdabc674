package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/starkmirror/starkmirror/internal/domain"
	"github.com/starkmirror/starkmirror/internal/store/schema"
)

// =============================================================================
// Test Data Builders
// =============================================================================

func buildTestBlock(number uint64, status domain.TxStatus) *schema.Block {
	doc := fmt.Sprintf(`{"block_number": %d, "block_hash": "0xblock%d", "status": %q}`, number, number, status)
	return &schema.Block{
		ID:        number,
		Hash:      fmt.Sprintf("0xblock%d", number),
		Timestamp: time.Unix(int64(1600000000+number), 0).UTC(), //nolint:gosec,G115
		Document:  datatypes.JSON(doc),
	}
}

func buildTestTransaction(hash string, blockNumber uint64, index int, contractID uint64, selector *string) *schema.Transaction {
	return &schema.Transaction{
		Hash:               hash,
		BlockID:            blockNumber,
		TransactionIndex:   index,
		Type:               "INVOKE_FUNCTION",
		ContractID:         contractID,
		EntryPointSelector: selector,
		Calldata:           datatypes.JSON(`["1", "2"]`),
	}
}

func buildTestAccount(starkKey string) *schema.Account {
	return &schema.Account{StarkKey: starkKey}
}

func strptr(s string) *string { return &s }

// =============================================================================
// Test: Blocks
// =============================================================================

func testBlocks(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("create and get block with transactions", func(t *testing.T) {
		contract, err := store.GetOrCreateStarkContract(ctx, "0xabc1")
		require.NoError(t, err)

		block := buildTestBlock(100, domain.StatusAcceptedOnL2)
		txs := []*schema.Transaction{
			buildTestTransaction("0xtx100a", 100, 0, contract.ID, nil),
			buildTestTransaction("0xtx100b", 100, 1, contract.ID, strptr("0xsel")),
		}
		require.NoError(t, store.CreateBlock(ctx, block, txs))

		got, err := store.GetBlock(ctx, 100)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "0xblock100", got.Hash)

		missing, err := store.GetBlock(ctx, 999)
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("block numbers in range is half open", func(t *testing.T) {
		for _, n := range []uint64{200, 201, 203} {
			require.NoError(t, store.CreateBlock(ctx, buildTestBlock(n, domain.StatusAcceptedOnL2), nil))
		}

		numbers, err := store.BlockNumbersInRange(ctx, 200, 203)
		require.NoError(t, err)
		assert.Equal(t, []uint64{200, 201}, numbers)
	})

	t.Run("non-final blocks excludes settled statuses", func(t *testing.T) {
		require.NoError(t, store.CreateBlock(ctx, buildTestBlock(300, domain.StatusAcceptedOnL1), nil))
		require.NoError(t, store.CreateBlock(ctx, buildTestBlock(301, domain.StatusAcceptedOnL2), nil))
		require.NoError(t, store.CreateBlock(ctx, buildTestBlock(302, domain.StatusAcceptedOnChain), nil))
		require.NoError(t, store.CreateBlock(ctx, buildTestBlock(303, domain.StatusPending), nil))

		blocks, err := store.NonFinalBlocks(ctx, 300, 10)
		require.NoError(t, err)
		require.Len(t, blocks, 2)
		assert.Equal(t, uint64(301), blocks[0].ID)
		assert.Equal(t, uint64(303), blocks[1].ID)
	})

	t.Run("save block document", func(t *testing.T) {
		require.NoError(t, store.CreateBlock(ctx, buildTestBlock(400, domain.StatusPending), nil))

		updated := datatypes.JSON(`{"block_number": 400, "status": "ACCEPTED_ON_L1"}`)
		require.NoError(t, store.SaveBlockDocument(ctx, 400, updated))

		got, err := store.GetBlock(ctx, 400)
		require.NoError(t, err)
		require.NotNil(t, got)

		blocks, err := store.NonFinalBlocks(ctx, 400, 10)
		require.NoError(t, err)
		assert.Empty(t, blocks)
	})

	t.Run("delete block removes its transactions", func(t *testing.T) {
		contract, err := store.GetOrCreateStarkContract(ctx, "0xabc2")
		require.NoError(t, err)

		block := buildTestBlock(500, domain.StatusAcceptedOnL2)
		txs := []*schema.Transaction{buildTestTransaction("0xtx500", 500, 0, contract.ID, nil)}
		require.NoError(t, store.CreateBlock(ctx, block, txs))

		require.NoError(t, store.DeleteBlock(ctx, 500))

		got, err := store.GetBlock(ctx, 500)
		require.NoError(t, err)
		assert.Nil(t, got)

		remaining, err := store.TransactionsForBlock(ctx, 500, []string{"0xabc2"})
		require.NoError(t, err)
		assert.Empty(t, remaining)
	})
}

// =============================================================================
// Test: Stark contracts and replay cursors
// =============================================================================

func testStarkContracts(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("get or create is idempotent", func(t *testing.T) {
		first, err := store.GetOrCreateStarkContract(ctx, "0xdead")
		require.NoError(t, err)
		second, err := store.GetOrCreateStarkContract(ctx, "0xdead")
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
	})

	t.Run("deploy block numbers picks earliest deploy", func(t *testing.T) {
		contract, err := store.GetOrCreateStarkContract(ctx, "0xdeploy")
		require.NoError(t, err)

		deploy := buildTestTransaction("0xdep1", 700, 0, contract.ID, nil)
		deploy.Type = domain.TxTypeDeploy
		require.NoError(t, store.CreateBlock(ctx, buildTestBlock(700, domain.StatusAcceptedOnL2), []*schema.Transaction{deploy}))

		invoke := buildTestTransaction("0xinv1", 701, 0, contract.ID, strptr("0xsel"))
		require.NoError(t, store.CreateBlock(ctx, buildTestBlock(701, domain.StatusAcceptedOnL2), []*schema.Transaction{invoke}))

		numbers, err := store.DeployBlockNumbers(ctx, []string{"0xdeploy", "0xnodeplo"})
		require.NoError(t, err)
		assert.Equal(t, uint64(700), numbers["0xdeploy"])
		_, found := numbers["0xnodeplo"]
		assert.False(t, found)
	})

	t.Run("advance block counters", func(t *testing.T) {
		_, err := store.GetOrCreateStarkContract(ctx, "0xcursor")
		require.NoError(t, err)

		require.NoError(t, store.AdvanceBlockCounters(ctx, []string{"0xcursor"}, 42))

		contracts, err := store.GetStarkContracts(ctx, []string{"0xcursor"})
		require.NoError(t, err)
		require.Len(t, contracts, 1)
		require.NotNil(t, contracts[0].BlockCounter)
		assert.Equal(t, uint64(42), *contracts[0].BlockCounter)
	})

	t.Run("transactions for block in index order", func(t *testing.T) {
		contract, err := store.GetOrCreateStarkContract(ctx, "0xorder")
		require.NoError(t, err)
		other, err := store.GetOrCreateStarkContract(ctx, "0xother")
		require.NoError(t, err)

		txs := []*schema.Transaction{
			buildTestTransaction("0xo2", 800, 2, contract.ID, nil),
			buildTestTransaction("0xo0", 800, 0, contract.ID, nil),
			buildTestTransaction("0xskip", 800, 1, other.ID, nil),
		}
		require.NoError(t, store.CreateBlock(ctx, buildTestBlock(800, domain.StatusAcceptedOnL2), txs))

		got, err := store.TransactionsForBlock(ctx, 800, []string{"0xorder"})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "0xo0", got[0].Hash)
		assert.Equal(t, "0xo2", got[1].Hash)
	})

	t.Run("next transaction respects selector and lower bound", func(t *testing.T) {
		contract, err := store.GetOrCreateStarkContract(ctx, "0xnext")
		require.NoError(t, err)

		early := buildTestTransaction("0xn1", 900, 0, contract.ID, strptr("0xwanted"))
		late := buildTestTransaction("0xn2", 901, 0, contract.ID, strptr("0xwanted"))
		noise := buildTestTransaction("0xn3", 901, 1, contract.ID, strptr("0xignored"))
		require.NoError(t, store.CreateBlock(ctx, buildTestBlock(900, domain.StatusAcceptedOnL2), []*schema.Transaction{early}))
		require.NoError(t, store.CreateBlock(ctx, buildTestBlock(901, domain.StatusAcceptedOnL2), []*schema.Transaction{late, noise}))

		tx, err := store.NextTransaction(ctx, "0xnext", "0xwanted", 901)
		require.NoError(t, err)
		require.NotNil(t, tx)
		assert.Equal(t, "0xn2", tx.Hash)

		none, err := store.NextTransaction(ctx, "0xnext", "0xwanted", 902)
		require.NoError(t, err)
		assert.Nil(t, none)
	})
}

// =============================================================================
// Test: Accounts, tokens and balances
// =============================================================================

func testAccountsAndBalances(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("account lookup by stark key and address", func(t *testing.T) {
		account := buildTestAccount("111222333")
		require.NoError(t, store.CreateAccount(ctx, account))

		got, err := store.GetAccountByStarkKey(ctx, "111222333")
		require.NoError(t, err)
		require.NotNil(t, got)

		got.Address = strptr("0x1111111111111111111111111111111111111111")
		require.NoError(t, store.SaveAccount(ctx, got))

		byAddr, err := store.GetAccountByAddress(ctx, "0x1111111111111111111111111111111111111111")
		require.NoError(t, err)
		require.NotNil(t, byAddr)
		assert.Equal(t, got.ID, byAddr.ID)
	})

	t.Run("token contract and blueprint", func(t *testing.T) {
		minter := buildTestAccount("444555666")
		require.NoError(t, store.CreateAccount(ctx, minter))

		contract := &schema.TokenContract{Address: "0x2222222222222222222222222222222222222222", Fungible: false}
		require.NoError(t, store.CreateTokenContract(ctx, contract))

		require.NoError(t, store.CreateBlueprint(ctx, &schema.Blueprint{
			TokenContractID: contract.ID,
			MinterID:        minter.ID,
		}))

		blueprint, err := store.GetBlueprint(ctx, contract.ID)
		require.NoError(t, err)
		require.NotNil(t, blueprint)
		assert.Equal(t, "444555666", blueprint.Minter.StarkKey)
	})

	t.Run("token ownership roundtrip", func(t *testing.T) {
		owner := buildTestAccount("777888999")
		require.NoError(t, store.CreateAccount(ctx, owner))

		contract := &schema.TokenContract{Address: "0x3333333333333333333333333333333333333333", Fungible: false}
		require.NoError(t, store.CreateTokenContract(ctx, contract))

		token := &schema.Token{ContractID: contract.ID, TokenID: "5", OwnerID: &owner.ID}
		require.NoError(t, store.CreateToken(ctx, token))

		got, err := store.GetToken(ctx, contract.ID, "5")
		require.NoError(t, err)
		require.NotNil(t, got)
		require.NotNil(t, got.OwnerID)
		assert.Equal(t, owner.ID, *got.OwnerID)

		got.OwnerID = nil
		require.NoError(t, store.SaveToken(ctx, got))

		reread, err := store.GetToken(ctx, contract.ID, "5")
		require.NoError(t, err)
		assert.Nil(t, reread.OwnerID)
	})

	t.Run("balance per account and contract", func(t *testing.T) {
		account := buildTestAccount("101010")
		require.NoError(t, store.CreateAccount(ctx, account))

		contract := &schema.TokenContract{Address: "0x4444444444444444444444444444444444444444", Fungible: true}
		require.NoError(t, store.CreateTokenContract(ctx, contract))

		require.NoError(t, store.CreateBalance(ctx, &schema.Balance{
			AccountID:  account.ID,
			ContractID: contract.ID,
			Amount:     "5050",
		}))

		balance, err := store.GetBalance(ctx, account.ID, contract.ID)
		require.NoError(t, err)
		require.NotNil(t, balance)
		assert.Equal(t, "5050", balance.Amount)

		balance.Amount = "0"
		require.NoError(t, store.SaveBalance(ctx, balance))

		balances, err := store.ListBalances(ctx, account.ID)
		require.NoError(t, err)
		require.Len(t, balances, 1)
		assert.Equal(t, "0", balances[0].Amount)
	})
}

// =============================================================================
// Test: Orders, flows, withdrawals, transfers
// =============================================================================

func testOrdersAndFlows(t *testing.T, store Store) {
	ctx := context.Background()

	user := buildTestAccount("202020")
	require.NoError(t, store.CreateAccount(ctx, user))

	nft := &schema.TokenContract{Address: "0x5555555555555555555555555555555555555555", Fungible: false}
	require.NoError(t, store.CreateTokenContract(ctx, nft))
	quote := &schema.TokenContract{Address: domain.ZeroAddress, Fungible: true}
	require.NoError(t, store.CreateTokenContract(ctx, quote))

	token := &schema.Token{ContractID: nft.ID, TokenID: "9", OwnerID: &user.ID}
	require.NoError(t, store.CreateToken(ctx, token))

	t.Run("open orders exclude closed ones", func(t *testing.T) {
		open := &schema.LimitOrder{
			OrderID:         "11",
			UserID:          user.ID,
			Bid:             false,
			TokenID:         token.ID,
			QuoteContractID: quote.ID,
			QuoteAmount:     "1000",
			TxHash:          "0xask11",
		}
		require.NoError(t, store.CreateLimitOrder(ctx, open))

		closed := &schema.LimitOrder{
			OrderID:         "12",
			UserID:          user.ID,
			Bid:             true,
			TokenID:         token.ID,
			QuoteContractID: quote.ID,
			QuoteAmount:     "900",
			TxHash:          "0xbid12",
			ClosedTxHash:    strptr("0xclose12"),
		}
		require.NoError(t, store.CreateLimitOrder(ctx, closed))

		orders, err := store.ListOpenLimitOrders(ctx, 10, 0)
		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.Equal(t, "11", orders[0].OrderID)

		got, err := store.GetLimitOrderByOrderID(ctx, "12")
		require.NoError(t, err)
		require.NotNil(t, got)
		require.NotNil(t, got.ClosedTxHash)
	})

	t.Run("pending withdrawal join by amount address nonce", func(t *testing.T) {
		balance := &schema.Balance{AccountID: user.ID, ContractID: quote.ID, Amount: "0"}
		require.NoError(t, store.CreateBalance(ctx, balance))

		withdrawal := &schema.Withdrawal{
			TxHash:    "0xwd1",
			BalanceID: balance.ID,
			Amount:    "250",
			Address:   "0x6666666666666666666666666666666666666666",
			Nonce:     "7",
		}
		require.NoError(t, store.CreateWithdrawal(ctx, withdrawal))

		found, err := store.PendingWithdrawal(ctx, "250", "0x6666666666666666666666666666666666666666", "7")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "0xwd1", found.TxHash)

		eventID := uint64(1)
		found.EthEventID = &eventID
		require.NoError(t, store.SaveWithdrawal(ctx, found))

		again, err := store.PendingWithdrawal(ctx, "250", "0x6666666666666666666666666666666666666666", "7")
		require.NoError(t, err)
		assert.Nil(t, again)
	})

	t.Run("pending withdrawal flow join by address mint nonce", func(t *testing.T) {
		mint := true
		flow := &schema.TokenFlow{
			TxHash:  "0xwf1",
			Type:    domain.FlowWithdrawal,
			TokenID: token.ID,
			Address: strptr("0x7777777777777777777777777777777777777777"),
			Mint:    &mint,
			Nonce:   strptr("3"),
		}
		require.NoError(t, store.CreateTokenFlow(ctx, flow))

		found, err := store.PendingWithdrawalFlow(ctx, "0x7777777777777777777777777777777777777777", true, "3")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "0xwf1", found.TxHash)

		miss, err := store.PendingWithdrawalFlow(ctx, "0x7777777777777777777777777777777777777777", false, "3")
		require.NoError(t, err)
		assert.Nil(t, miss)

		flows, err := store.ListTokenFlows(ctx, token.ID, 10, 0)
		require.NoError(t, err)
		assert.NotEmpty(t, flows)
	})

	t.Run("unsettled transfers filter on status", func(t *testing.T) {
		peer := buildTestAccount("303030")
		require.NoError(t, store.CreateAccount(ctx, peer))

		pending := &schema.Transfer{
			Hash:          "0xtr1",
			FromAccountID: user.ID,
			ToAccountID:   peer.ID,
			Amount:        "10",
			ContractID:    quote.ID,
			Nonce:         "1",
			Status:        domain.StatusNotReceived,
		}
		require.NoError(t, store.CreateTransfer(ctx, pending))

		settled := &schema.Transfer{
			Hash:          "0xtr2",
			FromAccountID: user.ID,
			ToAccountID:   peer.ID,
			Amount:        "20",
			ContractID:    quote.ID,
			Nonce:         "2",
			Status:        domain.StatusAcceptedOnL2,
		}
		require.NoError(t, store.CreateTransfer(ctx, settled))

		transfers, err := store.UnsettledTransfers(ctx, 10)
		require.NoError(t, err)
		require.Len(t, transfers, 1)
		assert.Equal(t, "0xtr1", transfers[0].Hash)

		got, err := store.GetTransferByHash(ctx, "0xtr2")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, domain.StatusAcceptedOnL2, got.Status)
	})
}

// =============================================================================
// Test: Settlement-layer blocks and events
// =============================================================================

func testEthBlocksAndEvents(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("latest eth block", func(t *testing.T) {
		none, err := store.GetLatestEthBlock(ctx)
		require.NoError(t, err)
		assert.Nil(t, none)

		now := time.Now().UTC()
		require.NoError(t, store.CreateEthBlock(ctx, &schema.EthBlock{ID: 10, Hash: "0xe10", Timestamp: now}))
		require.NoError(t, store.CreateEthBlock(ctx, &schema.EthBlock{ID: 12, Hash: "0xe12", Timestamp: now}))

		latest, err := store.GetLatestEthBlock(ctx)
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.Equal(t, uint64(12), latest.ID)

		byHash, err := store.GetEthBlockByHash(ctx, "0xe10")
		require.NoError(t, err)
		require.NotNil(t, byHash)
		assert.Equal(t, uint64(10), byHash.ID)
	})

	t.Run("eth block create tolerates replays", func(t *testing.T) {
		now := time.Now().UTC()
		require.NoError(t, store.CreateEthBlock(ctx, &schema.EthBlock{ID: 20, Hash: "0xe20", Timestamp: now}))
		require.NoError(t, store.CreateEthBlock(ctx, &schema.EthBlock{ID: 20, Hash: "0xe20", Timestamp: now}))
	})

	t.Run("eth event unique per tx hash and log index", func(t *testing.T) {
		require.NoError(t, store.CreateEthBlock(ctx, &schema.EthBlock{ID: 30, Hash: "0xe30", Timestamp: time.Now().UTC()}))

		event := &schema.EthEvent{
			TxHash:           "0xconsumed",
			LogIndex:         0,
			BlockNumber:      30,
			TransactionIndex: 5,
			Body:             datatypes.JSON(`{"payload": ["0"]}`),
		}
		require.NoError(t, store.CreateEthEvent(ctx, event))

		got, err := store.GetEthEvent(ctx, "0xconsumed", 0)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, uint64(30), got.BlockNumber)

		miss, err := store.GetEthEvent(ctx, "0xconsumed", 1)
		require.NoError(t, err)
		assert.Nil(t, miss)
	})
}

// =============================================================================
// Test: Transactions
// =============================================================================

func testWithinTransaction(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("rollback on error", func(t *testing.T) {
		err := store.WithinTransaction(ctx, func(tx Store) error {
			if err := tx.CreateAccount(ctx, buildTestAccount("909090")); err != nil {
				return err
			}
			return fmt.Errorf("forced failure")
		})
		require.Error(t, err)

		got, err := store.GetAccountByStarkKey(ctx, "909090")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("commit on success", func(t *testing.T) {
		err := store.WithinTransaction(ctx, func(tx Store) error {
			return tx.CreateAccount(ctx, buildTestAccount("919191"))
		})
		require.NoError(t, err)

		got, err := store.GetAccountByStarkKey(ctx, "919191")
		require.NoError(t, err)
		require.NotNil(t, got)
	})
}

// RunStoreTests runs the full store suite against an implementation
func RunStoreTests(t *testing.T, initDB func(t *testing.T) Store, cleanupDB func(t *testing.T)) {
	tests := []struct {
		name string
		fn   func(*testing.T, Store)
	}{
		{"Blocks", testBlocks},
		{"StarkContracts", testStarkContracts},
		{"AccountsAndBalances", testAccountsAndBalances},
		{"OrdersAndFlows", testOrdersAndFlows},
		{"EthBlocksAndEvents", testEthBlocksAndEvents},
		{"WithinTransaction", testWithinTransaction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := initDB(t)
			defer cleanupDB(t)
			tt.fn(t, store)
		})
	}
}

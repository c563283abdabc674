package monitor

import (
	"context"
	"math/big"
	"os"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starkmirror/starkmirror/internal/adapter"
	"github.com/starkmirror/starkmirror/internal/domain"
	"github.com/starkmirror/starkmirror/internal/logger"
	"github.com/starkmirror/starkmirror/internal/mocks"
	"github.com/starkmirror/starkmirror/internal/store/schema"
	"github.com/starkmirror/starkmirror/internal/store/storetest"
)

func TestMain(m *testing.M) {
	logger.Initialize(logger.Config{Debug: false})
	os.Exit(m.Run())
}

const (
	testCoreAddress = "0x1111111111111111111111111111111111111111"
	testFromAddress = "0x100"
	testToAddress   = "0xeeee"
)

// encodePayload builds the ABI encoding of a single uint256[] argument
func encodePayload(words ...int64) []byte {
	bigWords := make([]*big.Int, len(words))
	for i, w := range words {
		bigWords[i] = big.NewInt(w)
	}
	return encodeBigPayload(bigWords...)
}

func encodeBigPayload(words ...*big.Int) []byte {
	buf := make([]byte, 0, 32*(len(words)+2))
	buf = append(buf, common.BigToHash(big.NewInt(32)).Bytes()...)
	buf = append(buf, common.BigToHash(big.NewInt(int64(len(words)))).Bytes()...)
	for _, w := range words {
		buf = append(buf, common.BigToHash(w).Bytes()...)
	}
	return buf
}

func consumedLog(txHash string, blockNumber uint64, index uint, data []byte) types.Log {
	return types.Log{
		Address:     common.HexToAddress(testCoreAddress),
		TxHash:      common.HexToHash(txHash),
		BlockHash:   common.HexToHash("0xb1"),
		BlockNumber: blockNumber,
		TxIndex:     0,
		Index:       index,
		Data:        data,
	}
}

func newTestMonitor(t *testing.T, eth adapter.EthClient, s *storetest.MemStore) *Monitor {
	t.Helper()
	m, err := NewMonitor(eth, s, adapter.NewClock(), time.Second,
		testCoreAddress, testFromAddress, testToAddress)
	require.NoError(t, err)
	return m
}

func TestPollJoinsFungibleWithdrawal(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := storetest.NewMemStore()
	contractAddress := common.BigToAddress(big.NewInt(0xabc)).Hex()
	destination := common.BigToAddress(big.NewInt(0xdead)).Hex()
	require.NoError(t, s.CreateTokenContract(ctx, &schema.TokenContract{
		Address: contractAddress, Fungible: true,
	}))
	require.NoError(t, s.CreateWithdrawal(ctx, &schema.Withdrawal{
		TxHash: "0xw1", BalanceID: 1, Amount: "5050", Address: destination, Nonce: "7",
	}))

	entry := consumedLog("0xe1", 12, 3, encodePayload(0, 0xdead, 5050, 0xabc, 0, 7))
	eth := mocks.NewMockEthClient(ctrl)
	eth.EXPECT().FilterLogs(gomock.Any(), gomock.Any()).Return([]types.Log{entry}, nil)
	eth.EXPECT().HeaderByHash(gomock.Any(), entry.BlockHash).
		Return(&types.Header{Number: big.NewInt(12), Time: 1700000000}, nil)

	m := newTestMonitor(t, eth, s)
	require.NoError(t, m.Poll(ctx))

	pending, err := s.PendingWithdrawal(ctx, "5050", destination, "7")
	require.NoError(t, err)
	assert.Nil(t, pending, "confirmed withdrawal should no longer be pending")

	event, err := s.GetEthEvent(ctx, entry.TxHash.Hex(), 3)
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, uint64(12), event.BlockNumber)

	block, err := s.GetLatestEthBlock(ctx)
	require.NoError(t, err)
	require.NotNil(t, block)
	assert.Equal(t, uint64(12), block.ID)
}

func TestPollJoinsMintBackTokenFlow(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := storetest.NewMemStore()
	contractAddress := common.BigToAddress(big.NewInt(0xabc)).Hex()
	destination := common.BigToAddress(big.NewInt(0xdead)).Hex()
	require.NoError(t, s.CreateTokenContract(ctx, &schema.TokenContract{
		Address: contractAddress, Fungible: false,
	}))
	mint := true
	nonce := "9"
	require.NoError(t, s.CreateTokenFlow(ctx, &schema.TokenFlow{
		TxHash: "0xw2", Type: domain.FlowWithdrawal, TokenID: 1,
		Address: &destination, Mint: &mint, Nonce: &nonce,
	}))

	entry := consumedLog("0xe2", 15, 0, encodePayload(0, 0xdead, 1, 0xabc, 1, 9))
	eth := mocks.NewMockEthClient(ctrl)
	eth.EXPECT().FilterLogs(gomock.Any(), gomock.Any()).Return([]types.Log{entry}, nil)
	eth.EXPECT().HeaderByHash(gomock.Any(), entry.BlockHash).
		Return(&types.Header{Number: big.NewInt(15), Time: 1700000000}, nil)

	m := newTestMonitor(t, eth, s)
	require.NoError(t, m.Poll(ctx))

	pending, err := s.PendingWithdrawalFlow(ctx, destination, true, "9")
	require.NoError(t, err)
	assert.Nil(t, pending, "confirmed flow should no longer be pending")
}

func TestPollIsIdempotent(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := storetest.NewMemStore()
	contractAddress := common.BigToAddress(big.NewInt(0xabc)).Hex()
	destination := common.BigToAddress(big.NewInt(0xdead)).Hex()
	require.NoError(t, s.CreateTokenContract(ctx, &schema.TokenContract{
		Address: contractAddress, Fungible: true,
	}))
	require.NoError(t, s.CreateWithdrawal(ctx, &schema.Withdrawal{
		TxHash: "0xw1", BalanceID: 1, Amount: "100", Address: destination, Nonce: "1",
	}))

	entry := consumedLog("0xe1", 12, 0, encodePayload(0, 0xdead, 100, 0xabc, 0, 1))
	eth := mocks.NewMockEthClient(ctrl)
	// re-filtering from the last block re-delivers the same entry
	eth.EXPECT().FilterLogs(gomock.Any(), gomock.Any()).Return([]types.Log{entry}, nil).Times(2)
	eth.EXPECT().HeaderByHash(gomock.Any(), entry.BlockHash).
		Return(&types.Header{Number: big.NewInt(12), Time: 1700000000}, nil)

	m := newTestMonitor(t, eth, s)
	require.NoError(t, m.Poll(ctx))
	require.NoError(t, m.Poll(ctx))
}

func TestPollRecordsOtherMessageKindsWithoutJoining(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := storetest.NewMemStore()
	entry := consumedLog("0xe3", 20, 1, encodePayload(1, 0xdead, 100, 0xabc, 0, 1))
	eth := mocks.NewMockEthClient(ctrl)
	eth.EXPECT().FilterLogs(gomock.Any(), gomock.Any()).Return([]types.Log{entry}, nil)
	eth.EXPECT().HeaderByHash(gomock.Any(), entry.BlockHash).
		Return(&types.Header{Number: big.NewInt(20), Time: 1700000000}, nil)

	m := newTestMonitor(t, eth, s)
	require.NoError(t, m.Poll(ctx))

	event, err := s.GetEthEvent(ctx, entry.TxHash.Hex(), 1)
	require.NoError(t, err)
	assert.NotNil(t, event)
}

func TestPollKindCheckCoversFullWord(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := storetest.NewMemStore()
	// A kind word whose low 64 bits are zero must not pass for a withdrawal
	kind := new(big.Int).Lsh(big.NewInt(1), 64)
	data := encodeBigPayload(kind, big.NewInt(0xdead), big.NewInt(100),
		big.NewInt(0xabc), big.NewInt(0), big.NewInt(1))
	entry := consumedLog("0xe5", 22, 0, data)
	eth := mocks.NewMockEthClient(ctrl)
	eth.EXPECT().FilterLogs(gomock.Any(), gomock.Any()).Return([]types.Log{entry}, nil)
	eth.EXPECT().HeaderByHash(gomock.Any(), entry.BlockHash).
		Return(&types.Header{Number: big.NewInt(22), Time: 1700000000}, nil)

	m := newTestMonitor(t, eth, s)
	require.NoError(t, m.Poll(ctx))

	event, err := s.GetEthEvent(ctx, entry.TxHash.Hex(), 0)
	require.NoError(t, err)
	assert.NotNil(t, event)
}

func TestPollRejectsUnregisteredContract(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := storetest.NewMemStore()
	entry := consumedLog("0xe4", 21, 0, encodePayload(0, 0xdead, 100, 0xabc, 0, 1))
	eth := mocks.NewMockEthClient(ctrl)
	eth.EXPECT().FilterLogs(gomock.Any(), gomock.Any()).Return([]types.Log{entry}, nil)
	eth.EXPECT().HeaderByHash(gomock.Any(), entry.BlockHash).
		Return(&types.Header{Number: big.NewInt(21), Time: 1700000000}, nil)

	m := newTestMonitor(t, eth, s)
	assert.ErrorIs(t, m.Poll(ctx), domain.ErrProjectionIntegrity)
}

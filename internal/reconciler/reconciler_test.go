package reconciler

import (
	"context"
	"math/big"
	"os"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starkmirror/starkmirror/internal/domain"
	"github.com/starkmirror/starkmirror/internal/gateway"
	"github.com/starkmirror/starkmirror/internal/logger"
	"github.com/starkmirror/starkmirror/internal/mocks"
	"github.com/starkmirror/starkmirror/internal/store/schema"
	"github.com/starkmirror/starkmirror/internal/store/storetest"
)

func TestMain(m *testing.M) {
	logger.Initialize(logger.Config{Debug: false})
	os.Exit(m.Run())
}

func newTestContract(t *testing.T, s *storetest.MemStore) *schema.TokenContract {
	t.Helper()
	contract := &schema.TokenContract{Address: domain.ZeroAddress, Fungible: true}
	require.NoError(t, s.CreateTokenContract(context.Background(), contract))
	return contract
}

func seedBalance(t *testing.T, s *storetest.MemStore, service *TransferService, starkKey int64, contract *schema.TokenContract, amount int64) *schema.Account {
	t.Helper()
	ctx := context.Background()
	account, err := service.LiftAccount(ctx, big.NewInt(starkKey))
	require.NoError(t, err)
	balance, err := service.LiftBalance(ctx, account, contract)
	require.NoError(t, err)
	require.NoError(t, service.Credit(ctx, balance, big.NewInt(amount)))
	return account
}

func balanceOf(t *testing.T, s *storetest.MemStore, account *schema.Account, contract *schema.TokenContract) string {
	t.Helper()
	balance, err := s.GetBalance(context.Background(), account.ID, contract.ID)
	require.NoError(t, err)
	require.NotNil(t, balance)
	return balance.Amount
}

func TestTransferMovesBalancesOnce(t *testing.T) {
	ctx := context.Background()
	s := storetest.NewMemStore()
	service := NewTransferService(s)
	contract := newTestContract(t, s)
	from := seedBalance(t, s, service, 0xaa, contract, 1000)

	signature := &Signature{R: big.NewInt(11), S: big.NewInt(22)}
	err := service.Transfer(ctx, "0xt1", big.NewInt(0xaa), big.NewInt(0xbb),
		big.NewInt(300), contract, big.NewInt(1), signature, domain.StatusNotReceived)
	require.NoError(t, err)

	to, err := s.GetAccountByStarkKey(ctx, domain.FeltString(big.NewInt(0xbb)))
	require.NoError(t, err)
	require.NotNil(t, to)
	assert.Equal(t, "700", balanceOf(t, s, from, contract))
	assert.Equal(t, "300", balanceOf(t, s, to, contract))

	// a replayed create is a no-op
	err = service.Transfer(ctx, "0xt1", big.NewInt(0xaa), big.NewInt(0xbb),
		big.NewInt(300), contract, big.NewInt(1), signature, domain.StatusNotReceived)
	require.NoError(t, err)
	assert.Equal(t, "700", balanceOf(t, s, from, contract))
	assert.Equal(t, "300", balanceOf(t, s, to, contract))

	transfer, err := s.GetTransferByHash(ctx, "0xt1")
	require.NoError(t, err)
	require.NotNil(t, transfer)
	require.NotNil(t, transfer.SignatureR)
	assert.Equal(t, "11", *transfer.SignatureR)
}

func TestTransferInsufficientBalanceFails(t *testing.T) {
	ctx := context.Background()
	s := storetest.NewMemStore()
	service := NewTransferService(s)
	contract := newTestContract(t, s)
	seedBalance(t, s, service, 0xaa, contract, 100)

	err := service.Transfer(ctx, "0xt1", big.NewInt(0xaa), big.NewInt(0xbb),
		big.NewInt(300), contract, big.NewInt(1), nil, domain.StatusNotReceived)
	assert.ErrorIs(t, err, domain.ErrProjectionIntegrity)
}

func TestRejectReversesExactlyOnce(t *testing.T) {
	ctx := context.Background()
	s := storetest.NewMemStore()
	service := NewTransferService(s)
	contract := newTestContract(t, s)
	from := seedBalance(t, s, service, 0xaa, contract, 1000)

	err := service.Transfer(ctx, "0xt1", big.NewInt(0xaa), big.NewInt(0xbb),
		big.NewInt(300), contract, big.NewInt(1), nil, domain.StatusNotReceived)
	require.NoError(t, err)

	transfer, err := s.GetTransferByHash(ctx, "0xt1")
	require.NoError(t, err)
	require.NoError(t, service.Reject(ctx, transfer))

	to, err := s.GetAccountByStarkKey(ctx, domain.FeltString(big.NewInt(0xbb)))
	require.NoError(t, err)
	assert.Equal(t, "1000", balanceOf(t, s, from, contract))
	assert.Equal(t, "0", balanceOf(t, s, to, contract))

	// the status transition guards the reversal
	transfer, err = s.GetTransferByHash(ctx, "0xt1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, transfer.Status)
	require.NoError(t, service.Reject(ctx, transfer))
	assert.Equal(t, "1000", balanceOf(t, s, from, contract))
	assert.Equal(t, "0", balanceOf(t, s, to, contract))
}

func TestFlushDrivesTransfersToFinality(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := storetest.NewMemStore()
	service := NewTransferService(s)
	contract := newTestContract(t, s)
	seedBalance(t, s, service, 0xaa, contract, 1000)

	signature := &Signature{R: big.NewInt(11), S: big.NewInt(22)}
	require.NoError(t, service.Transfer(ctx, "0xlost", big.NewInt(0xaa), big.NewInt(0xbb),
		big.NewInt(100), contract, big.NewInt(1), signature, domain.StatusNotReceived))
	require.NoError(t, service.Transfer(ctx, "0xbad", big.NewInt(0xaa), big.NewInt(0xbb),
		big.NewInt(200), contract, big.NewInt(2), signature, domain.StatusNotReceived))
	require.NoError(t, service.Transfer(ctx, "0xok", big.NewInt(0xaa), big.NewInt(0xbb),
		big.NewInt(300), contract, big.NewInt(3), signature, domain.StatusReceived))

	gw := mocks.NewMockFeederGateway(ctrl)
	gw.EXPECT().GetTransactionStatus(gomock.Any(), "0xlost").
		Return(gateway.StatusResponse{TxStatus: domain.StatusNotReceived}, nil)
	gw.EXPECT().GetTransactionStatus(gomock.Any(), "0xbad").
		Return(gateway.StatusResponse{TxStatus: domain.StatusRejected}, nil)
	gw.EXPECT().GetTransactionStatus(gomock.Any(), "0xok").
		Return(gateway.StatusResponse{TxStatus: domain.StatusPending}, nil)
	gw.EXPECT().AddTransaction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, invoke gateway.InvokeFunction) (gateway.AddTransactionResponse, error) {
			assert.Equal(t, "INVOKE_FUNCTION", invoke.Type)
			assert.Equal(t, []string{"0xb", "0x16"}, invoke.Signature)
			return gateway.AddTransactionResponse{Code: "TRANSACTION_RECEIVED", TransactionHash: "0xlost"}, nil
		})

	flusher := NewFlusher(gw, "0x200")
	require.NoError(t, flusher.Flush(ctx, s))

	rejected, err := s.GetTransferByHash(ctx, "0xbad")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, rejected.Status)

	advanced, err := s.GetTransferByHash(ctx, "0xok")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, advanced.Status)

	// resubmission does not change the stored status
	lost, err := s.GetTransferByHash(ctx, "0xlost")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNotReceived, lost.Status)

	// rejection reversed the 200: 1000 - 100 - 200 - 300 + 200
	from, err := s.GetAccountByStarkKey(ctx, domain.FeltString(big.NewInt(0xaa)))
	require.NoError(t, err)
	assert.Equal(t, "600", balanceOf(t, s, from, contract))
}

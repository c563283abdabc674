package crawler

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starkmirror/starkmirror/internal/adapter"
	"github.com/starkmirror/starkmirror/internal/domain"
	"github.com/starkmirror/starkmirror/internal/gateway"
	"github.com/starkmirror/starkmirror/internal/logger"
	"github.com/starkmirror/starkmirror/internal/mocks"
	"github.com/starkmirror/starkmirror/internal/store/storetest"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

func makeDoc(t *testing.T, number uint64, hash string, status domain.TxStatus) (*gateway.BlockDocument, []byte) {
	doc := &gateway.BlockDocument{
		BlockNumber: number,
		BlockHash:   hash,
		Status:      status,
		Timestamp:   1610000000 + int64(number), //nolint:gosec,G115
		Transactions: []gateway.TransactionEntry{
			{
				TransactionHash: fmt.Sprintf("0xtx%d", number),
				Type:            "INVOKE_FUNCTION",
				ContractAddress: "0xcontract",
				Calldata:        []string{"1"},
			},
		},
		TransactionReceipts: []gateway.TransactionReceipt{
			{TransactionHash: fmt.Sprintf("0xtx%d", number), TransactionIndex: 0},
		},
	}
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	return doc, raw
}

func TestWaitResolvedByIngest(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gw := mocks.NewMockFeederGateway(ctrl)
	doc, raw := makeDoc(t, 5, "0xb5", domain.StatusAcceptedOnL2)
	gw.EXPECT().GetBlockByNumber(gomock.Any(), uint64(5)).Return(doc, raw, nil).Times(1)

	c := NewCrawler(gw, storetest.NewMemStore(), adapter.NewClock(), time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Two waiters registered before ingestion, both resolved by one ingest
	done := make(chan error, 2)
	for range [2]struct{}{} {
		go func() {
			done <- c.Wait(ctx, 5)
		}()
	}
	// Give both goroutines time to register
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, c.ingest(ctx, 5))
	for range [2]struct{}{} {
		require.NoError(t, <-done)
	}

	// A late waiter returns without suspending
	require.NoError(t, c.Wait(ctx, 5))
}

func TestIngestSkipsPersistedBlocks(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gw := mocks.NewMockFeederGateway(ctrl)
	st := storetest.NewMemStore()

	doc, raw := makeDoc(t, 9, "0xb9", domain.StatusAcceptedOnL2)
	gw.EXPECT().GetBlockByNumber(gomock.Any(), uint64(9)).Return(doc, raw, nil).Times(1)

	c := NewCrawler(gw, st, adapter.NewClock(), time.Second)
	ctx := context.Background()

	require.NoError(t, c.ingest(ctx, 9))
	// Second ingest hits the existence cache; the gateway expectation above
	// allows exactly one call
	require.NoError(t, c.ingest(ctx, 9))

	block, err := st.GetBlock(ctx, 9)
	require.NoError(t, err)
	require.NotNil(t, block)
	assert.Equal(t, "0xb9", block.Hash)
}

func TestIngestRejectsMismatchedReceipts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gw := mocks.NewMockFeederGateway(ctrl)
	doc, raw := makeDoc(t, 3, "0xb3", domain.StatusAcceptedOnL2)
	doc.TransactionReceipts[0].TransactionHash = "0xother"
	gw.EXPECT().GetBlockByNumber(gomock.Any(), uint64(3)).Return(doc, raw, nil)

	c := NewCrawler(gw, storetest.NewMemStore(), adapter.NewClock(), time.Second)
	err := c.ingest(context.Background(), 3)
	require.ErrorIs(t, err, domain.ErrProjectionIntegrity)
}

func TestRunBackfillsToGenesis(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gw := mocks.NewMockFeederGateway(ctrl)
	head, headRaw := makeDoc(t, 2, "0xb2", domain.StatusAcceptedOnL2)
	gw.EXPECT().GetBlockByHash(gomock.Any(), "0xb2").Return(head, headRaw, nil)
	for n := uint64(0); n <= 2; n++ {
		doc, raw := makeDoc(t, n, fmt.Sprintf("0xb%d", n), domain.StatusAcceptedOnL2)
		gw.EXPECT().GetBlockByNumber(gomock.Any(), n).Return(doc, raw, nil)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock := mocks.NewMockClock(ctrl)
	clock.EXPECT().Now().Return(time.Now()).AnyTimes()
	clock.EXPECT().Unix(gomock.Any(), gomock.Any()).DoAndReturn(time.Unix).AnyTimes()
	// The backfill is done once the crawler starts sleeping
	clock.EXPECT().Sleep(gomock.Any()).Do(func(time.Duration) { cancel() }).AnyTimes()

	st := storetest.NewMemStore()
	c := NewCrawler(gw, st, clock, time.Second)

	err := c.Run(ctx, "0xb2")
	require.ErrorIs(t, err, context.Canceled)

	numbers, err := st.BlockNumbersInRange(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 1, 2}, numbers)
}

func TestPurgeDryNeverMutates(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gw := mocks.NewMockFeederGateway(ctrl)
	st := storetest.NewMemStore()
	ctx := context.Background()

	seed := NewCrawler(gw, st, adapter.NewClock(), time.Second)
	doc, raw := makeDoc(t, 1, "0xb1", domain.StatusAcceptedOnL2)
	gw.EXPECT().GetBlockByNumber(gomock.Any(), uint64(1)).Return(doc, raw, nil)
	require.NoError(t, seed.ingest(ctx, 1))

	// Upstream now disagrees about the hash
	reorged, reorgedRaw := makeDoc(t, 1, "0xb1-prime", domain.StatusAcceptedOnL2)
	gw.EXPECT().GetBlockByNumber(gomock.Any(), uint64(1)).Return(reorged, reorgedRaw, nil).Times(2)

	c := NewCrawler(gw, st, adapter.NewClock(), time.Second)
	require.NoError(t, c.Purge(ctx, true))

	block, err := st.GetBlock(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, block)
	assert.Equal(t, "0xb1", block.Hash)

	// The wet run deletes the block and its transactions
	require.NoError(t, c.Purge(ctx, false))
	block, err = st.GetBlock(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, block)
}

func TestPurgeResumesPastFailedBlock(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gw := mocks.NewMockFeederGateway(ctrl)
	st := storetest.NewMemStore()
	ctx := context.Background()

	seed := NewCrawler(gw, st, adapter.NewClock(), time.Second)
	for n := uint64(1); n <= 2; n++ {
		doc, raw := makeDoc(t, n, fmt.Sprintf("0xb%d", n), domain.StatusAcceptedOnL2)
		gw.EXPECT().GetBlockByNumber(gomock.Any(), n).Return(doc, raw, nil)
		require.NoError(t, seed.ingest(ctx, n))
	}

	doc2, raw2 := makeDoc(t, 2, "0xb2", domain.StatusAcceptedOnL2)

	// The first pass fails on block 1; the second pass starts just past it
	gomock.InOrder(
		gw.EXPECT().GetBlockByNumber(gomock.Any(), uint64(1)).Return(nil, nil, fmt.Errorf("gateway down")),
		gw.EXPECT().GetBlockByNumber(gomock.Any(), uint64(2)).Return(doc2, raw2, nil),
		gw.EXPECT().GetBlockByNumber(gomock.Any(), uint64(2)).Return(doc2, raw2, nil),
	)

	c := NewCrawler(gw, st, adapter.NewClock(), time.Second)
	require.NoError(t, c.Purge(ctx, false))

	// Both blocks survive; the unreachable one is left for the next run
	numbers, err := st.BlockNumbersInRange(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, numbers)
}

func TestPurgeTerminatesWhenBlockKeepsFailing(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gw := mocks.NewMockFeederGateway(ctrl)
	st := storetest.NewMemStore()
	ctx := context.Background()

	seed := NewCrawler(gw, st, adapter.NewClock(), time.Second)
	for n := uint64(5); n <= 7; n++ {
		doc, raw := makeDoc(t, n, fmt.Sprintf("0xb%d", n), domain.StatusAcceptedOnL2)
		gw.EXPECT().GetBlockByNumber(gomock.Any(), n).Return(doc, raw, nil)
		require.NoError(t, seed.ingest(ctx, n))
	}

	// Block 5 never comes back; the walk must still run out of blocks
	gw.EXPECT().GetBlockByNumber(gomock.Any(), uint64(5)).
		Return(nil, nil, fmt.Errorf("gateway down")).AnyTimes()
	for n := uint64(6); n <= 7; n++ {
		doc, raw := makeDoc(t, n, fmt.Sprintf("0xb%d", n), domain.StatusAcceptedOnL2)
		gw.EXPECT().GetBlockByNumber(gomock.Any(), n).Return(doc, raw, nil).AnyTimes()
	}

	c := NewCrawler(gw, st, adapter.NewClock(), time.Second)
	purgeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	require.NoError(t, c.Purge(purgeCtx, false))

	numbers, err := st.BlockNumbersInRange(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint64{5, 6, 7}, numbers)
}

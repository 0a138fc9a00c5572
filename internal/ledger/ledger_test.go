package ledger

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zimsave/zimsave_plus/internal/logging"
	"github.com/zimsave/zimsave_plus/internal/store"
)

var errWrite = errors.New("disk full")

// flakyStore hides the Batcher of the wrapped store and fails writes to the
// listed keys.
type flakyStore struct {
	store.Store
	fail map[string]bool
}

func (f *flakyStore) Set(ctx context.Context, key, value string) error {
	if f.fail[key] {
		return errWrite
	}
	return f.Store.Set(ctx, key, value)
}

type failingBatcher struct {
	*store.Memory
}

func (failingBatcher) SetMany(context.Context, map[string]string) error {
	return errWrite
}

func newTestLedger(t *testing.T, st store.Store) *Ledger {
	t.Helper()
	env := testEnv()
	l := New(st, logging.Discard(), WithClock(env.Now), WithIDs(env.NewID))
	require.NoError(t, l.Load(context.Background()))
	return l
}

func rawValues(t *testing.T, st store.Store) map[string]string {
	t.Helper()
	out := map[string]string{}
	for _, key := range []string{KeyWallet, KeyGroups, KeyGoals} {
		v, ok, err := st.Get(context.Background(), key)
		require.NoError(t, err)
		require.True(t, ok, key)
		out[key] = v
	}
	return out
}

func TestLedgerDispatchBeforeLoad(t *testing.T) {
	l := New(store.NewMemory(), logging.Discard())
	assert.False(t, l.Loaded())
	_, err := l.AddFunds(context.Background(), d("5"))
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestLedgerEmptyStoreDefaults(t *testing.T) {
	l := newTestLedger(t, store.NewMemory())
	assert.True(t, l.Loaded())
	assert.True(t, l.Balance().IsZero())
	assert.Empty(t, l.Wallet().Transactions)
	assert.Empty(t, l.Groups())
	assert.Empty(t, l.Goals())
}

func TestLedgerScenario(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, store.NewMemory())
	SeedBalance(l, d("20.50"))

	_, err := l.AddFunds(ctx, d("10"))
	require.NoError(t, err)
	assert.True(t, l.Balance().Equal(d("30.50")))

	g, err := l.CreateGroup(ctx, CreateGroup{Name: "Family", ContributionAmount: d("10")})
	require.NoError(t, err)
	_, err = l.TrackContribution(ctx, g.ID, d("50"))
	require.NoError(t, err)

	g, tx, err := l.RequestLoan(ctx, g.ID, d("15"))
	require.NoError(t, err)
	assert.True(t, g.CurrentPool.Equal(d("35")))
	assert.True(t, g.ActiveLoanAmount.Equal(d("15")))
	assert.True(t, tx.Amount.Equal(d("15")))
	assert.True(t, l.Balance().Equal(d("45.50")))

	stored, err := l.Group(g.ID)
	require.NoError(t, err)
	assert.True(t, stored.CurrentPool.Equal(d("35")))

	_, err = l.Group("missing")
	assert.ErrorIs(t, err, ErrGroupNotFound)
	_, err = l.Goal("missing")
	assert.ErrorIs(t, err, ErrGoalNotFound)
}

func TestLedgerRejectionLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	l := newTestLedger(t, mem)
	_, err := l.AddFunds(ctx, d("10"))
	require.NoError(t, err)
	before := rawValues(t, mem)

	_, err = l.Purchase(ctx, d("11"), "airtime")
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	_, err = l.TransferFunds(ctx, d("1"), "", PurposePeerTransfer)
	assert.ErrorIs(t, err, ErrMissingRecipient)

	assert.Equal(t, before, rawValues(t, mem))
	assert.True(t, l.Balance().Equal(d("10")))
}

func TestLedgerReloadIsByteIdentical(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	l := newTestLedger(t, mem)

	_, err := l.AddFunds(ctx, d("120.75"))
	require.NoError(t, err)
	target := d("500")
	g, err := l.CreateGroup(ctx, CreateGroup{
		Name:                  "Burial Society",
		Description:           "Monthly pool",
		UpcomingNeeds:         "Funeral cover",
		ContributionAmount:    d("12.50"),
		ContributionFrequency: FrequencyMonthly,
		TargetPool:            &target,
	})
	require.NoError(t, err)
	_, err = l.TransferFunds(ctx, d("20"), g.ID, PurposeMukando)
	require.NoError(t, err)
	goal, err := l.CreateSavingsGoal(ctx, CreateSavingsGoal{Name: "Laptop", Emoji: "💻", TargetAmount: d("300")})
	require.NoError(t, err)
	_, _, err = l.FundGoal(ctx, goal.ID, d("50.10"))
	require.NoError(t, err)

	first := rawValues(t, mem)

	reloaded := newTestLedger(t, mem)
	enc, err := encodeState(reloaded.Snapshot())
	require.NoError(t, err)
	assert.Equal(t, first, enc.pairs())

	assert.True(t, reloaded.Balance().Equal(d("50.65")))
	assert.True(t, reloaded.Verify().OK)
	require.Len(t, reloaded.Groups(), 1)
	assert.True(t, reloaded.Groups()[0].CurrentPool.Equal(d("20")))
}

func TestLedgerMalformedValuesFallBack(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	require.NoError(t, mem.Set(ctx, KeyWallet, "{not json"))
	require.NoError(t, mem.Set(ctx, KeyGroups, `[{"id":"g1","name":"Family","contributionAmount":5,"contributionFrequency":"weekly","members":3,"currentPool":40,"activeLoanAmount":0}]`))
	require.NoError(t, mem.Set(ctx, KeyGoals, `{"oops":true}`))

	l := newTestLedger(t, mem)
	assert.True(t, l.Balance().IsZero())
	assert.Empty(t, l.Wallet().Transactions)
	assert.Empty(t, l.Goals())
	require.Len(t, l.Groups(), 1)
	assert.Equal(t, 3, l.Groups()[0].Members)
	assert.True(t, l.Groups()[0].CurrentPool.Equal(d("40")))
}

func TestLedgerNullCollectionsNormalised(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	require.NoError(t, mem.Set(ctx, KeyWallet, `{"balance":3,"transactions":null}`))
	require.NoError(t, mem.Set(ctx, KeyGroups, `null`))

	l := newTestLedger(t, mem)
	s := l.Snapshot()
	assert.NotNil(t, s.Wallet.Transactions)
	assert.NotNil(t, s.Groups)
	assert.True(t, s.Wallet.Balance.Equal(d("3")))
}

func TestLedgerJournalWriteFailureKeepsState(t *testing.T) {
	mem := store.NewMemory()
	st := &flakyStore{Store: mem, fail: map[string]bool{KeyJournal: true}}
	l := newTestLedger(t, st)

	_, err := l.AddFunds(context.Background(), d("10"))
	assert.ErrorIs(t, err, errWrite)
	assert.True(t, l.Balance().IsZero())
	assert.Empty(t, mem.Keys())
}

func TestLedgerRecoversFromJournal(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	st := &flakyStore{Store: mem, fail: map[string]bool{KeyGoals: true}}
	l := newTestLedger(t, st)

	_, err := l.AddFunds(ctx, d("40"))
	require.NoError(t, err)
	_, err = l.CreateSavingsGoal(ctx, CreateSavingsGoal{Name: "Fees", TargetAmount: d("90")})
	require.NoError(t, err, "journal commit is enough")

	_, ok, err := mem.Get(ctx, KeyJournal)
	require.NoError(t, err)
	require.True(t, ok, "journal stays until every key is written")
	_, ok, _ = mem.Get(ctx, KeyGoals)
	assert.False(t, ok)

	recovered := newTestLedger(t, mem)
	require.Len(t, recovered.Goals(), 1)
	assert.Equal(t, "Fees", recovered.Goals()[0].Name)
	assert.True(t, recovered.Balance().Equal(d("40")))

	_, ok, _ = mem.Get(ctx, KeyJournal)
	assert.False(t, ok)
	_, ok, _ = mem.Get(ctx, KeyGoals)
	assert.True(t, ok)
}

func TestLedgerDiscardsTornJournal(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	require.NoError(t, mem.Set(ctx, KeyWallet, `{"balance":7,"transactions":[]}`))
	require.NoError(t, mem.Set(ctx, KeyJournal, `{"wallet":{"balance":1000,"transactions":[]},"groups":[],"goals":[],"checksum":"00"}`))

	l := newTestLedger(t, mem)
	assert.True(t, l.Balance().Equal(d("7")))
	_, ok, _ := mem.Get(ctx, KeyJournal)
	assert.False(t, ok)
}

func TestLedgerBatchFailureKeepsState(t *testing.T) {
	l := newTestLedger(t, failingBatcher{store.NewMemory()})
	_, err := l.AddFunds(context.Background(), d("10"))
	assert.ErrorIs(t, err, errWrite)
	assert.True(t, l.Balance().IsZero())
}

func TestLedgerConcurrentDeposits(t *testing.T) {
	ctx := context.Background()
	l := New(store.NewMemory(), logging.Discard())
	require.NoError(t, l.Load(ctx))

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.AddFunds(ctx, decimal.NewFromInt(1))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	w := l.Wallet()
	assert.True(t, w.Balance.Equal(decimal.NewFromInt(workers)))
	require.Len(t, w.Transactions, workers)

	ids := make([]string, 0, workers)
	seen := map[string]bool{}
	for i := len(w.Transactions) - 1; i >= 0; i-- {
		id := w.Transactions[i].ID
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
		ids = append(ids, id)
	}
	assert.True(t, sort.StringsAreSorted(ids), "ids follow creation order")
}

package broker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/walletbroker/internal/focus"
	"github.com/roach88/walletbroker/internal/request"
	"github.com/roach88/walletbroker/internal/store"
	"github.com/roach88/walletbroker/internal/testutil"
)

type fixture struct {
	b       *Broker
	focus   *testutil.FocusRecorder
	wallet  *testutil.FakeWallet
	journal *store.Store
}

// newFixture starts a broker over recording fakes and an in-memory journal.
func newFixture(t *testing.T, focused bool, opts ...Option) *fixture {
	t.Helper()

	rec := testutil.NewFocusRecorder(focused)
	wallet := testutil.NewFakeWallet()
	disp := focus.NewDispatcher(rec,
		focus.WithLogger(testutil.DiscardLogger()),
		focus.WithTimeout(time.Second),
	)

	journal, err := store.Open(":memory:")
	require.NoError(t, err)

	opts = append([]Option{
		WithLogger(testutil.DiscardLogger()),
		WithJournal(journal),
		WithTokens(testutil.NewSequentialTokens("ep")),
		WithRunID("run-test"),
	}, opts...)
	b := New(wallet, disp, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	go b.Run(ctx)

	t.Cleanup(func() {
		cancel()
		<-b.Done()
		disp.Close()
		journal.Close()
	})

	return &fixture{b: b, focus: rec, wallet: wallet, journal: journal}
}

func (f *fixture) settle(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.b.Settle(ctx))
}

func (f *fixture) view(t *testing.T, cat request.Category) CategoryView {
	t.Helper()
	v, err := f.b.View(context.Background(), cat)
	require.NoError(t, err)
	return v
}

func (f *fixture) kinds(t *testing.T, cat request.Category) []string {
	t.Helper()
	entries, err := f.journal.ReadEntries(context.Background(), store.Filter{Category: string(cat)})
	require.NoError(t, err)
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = string(e.Kind)
		if e.RequestID != "" {
			out[i] += " " + e.RequestID
		}
	}
	return out
}

func basket(id string) request.BasketAccessRequest {
	return request.BasketAccessRequest{ID: id, Basket: "todo tokens", Originator: "todo.example"}
}

func protocol(id, protocolID string) request.ProtocolAccessRequest {
	return request.ProtocolAccessRequest{
		ID:                    id,
		ProtocolSecurityLevel: 1,
		ProtocolID:            protocolID,
		Type:                  request.ProtocolTypeProtocol,
	}
}

func spending(id string, amount int64) request.SpendingRequest {
	return request.SpendingRequest{
		ID:                id,
		Originator:        "shop.example",
		TransactionAmount: amount,
		LineItems:         []request.LineItem{{Type: "output", Description: "payment", SatoshisAdded: amount}},
	}
}

func ids(reqs []request.Request) []string {
	out := make([]string, len(reqs))
	for i, r := range reqs {
		out[i] = r.RequestID()
	}
	return out
}

func storeFilter(requestID string) store.Filter {
	return store.Filter{RequestID: requestID}
}

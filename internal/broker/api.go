package broker

import (
	"context"
	"fmt"

	"github.com/roach88/walletbroker/internal/request"
	"github.com/roach88/walletbroker/internal/sdk"
)

// Enqueue appends req to its category's queue and returns once it is
// enqueued; it never waits for a decision.
//
// A request failing request.Validate is logged and dropped without touching
// queue or focus state, and Enqueue returns nil. The only errors are
// ErrStopped and ctx errors; after a ctx error the request may still be
// enqueued.
func (b *Broker) Enqueue(ctx context.Context, req request.Request) error {
	_, err := b.call(ctx, event{kind: evEnqueue, req: req})
	return err
}

// OnBasketAccessRequested implements sdk.Listener.
func (b *Broker) OnBasketAccessRequested(ctx context.Context, req request.BasketAccessRequest) error {
	return b.Enqueue(ctx, req)
}

// OnCertificateAccessRequested implements sdk.Listener.
func (b *Broker) OnCertificateAccessRequested(ctx context.Context, req request.CertificateAccessRequest) error {
	return b.Enqueue(ctx, req)
}

// OnProtocolPermissionRequested implements sdk.Listener.
func (b *Broker) OnProtocolPermissionRequested(ctx context.Context, req request.ProtocolAccessRequest) error {
	return b.Enqueue(ctx, req)
}

// OnSpendingAuthorizationRequested implements sdk.Listener.
func (b *Broker) OnSpendingAuthorizationRequested(ctx context.Context, req request.SpendingRequest) error {
	return b.Enqueue(ctx, req)
}

// GrantHead grants the head request of cat through the wallet, then
// advances the queue.
//
// Returns ErrQueueEmpty if nothing is pending and ErrDecisionInFlight if
// another decision holds the head. If the wallet call fails the queue still
// advances and a *DecisionError is returned. If ctx is done before the
// wallet is called the head stays pending and ctx.Err() is returned.
func (b *Broker) GrantHead(ctx context.Context, cat request.Category, g Grant) error {
	if g.Amount < 0 {
		return fmt.Errorf("%w: amount %d must not be negative", ErrInvalidGrant, g.Amount)
	}
	return b.decide(ctx, cat, OpGrant, func(ctx context.Context, id string) error {
		params := sdk.GrantParams{RequestID: id, Ephemeral: g.Ephemeral}
		if cat == request.CategorySpending {
			params.Amount = g.Amount
		}
		return b.wallet.GrantPermission(ctx, params)
	})
}

// DenyHead denies the head request of cat through the wallet, then advances
// the queue. Errors are as for GrantHead.
func (b *Broker) DenyHead(ctx context.Context, cat request.Category) error {
	return b.decide(ctx, cat, OpDeny, func(ctx context.Context, id string) error {
		return b.wallet.DenyPermission(ctx, id)
	})
}

// decide claims the head, runs the wallet call off the loop, then settles.
func (b *Broker) decide(ctx context.Context, cat request.Category, op string, call func(context.Context, string) error) error {
	// The claim is awaited without ctx: a claim the loop applied after the
	// caller gave up would hold the head forever.
	r, err := b.call(context.WithoutCancel(ctx), event{kind: evClaim, category: cat})
	if err != nil {
		return err
	}
	id := r.head.RequestID()

	if err := ctx.Err(); err != nil {
		b.post(event{kind: evRelease, category: cat, requestID: id})
		return err
	}

	callErr := call(ctx, id)

	// Settle even if ctx is done: the claim must be released and the
	// queue advanced. Posting does not block.
	settle := event{kind: evSettle, category: cat, requestID: id, op: op, decideErr: callErr}
	if _, err := b.call(context.WithoutCancel(ctx), settle); err != nil {
		return err
	}

	if callErr != nil {
		return &DecisionError{Category: cat, RequestID: id, Op: op, Err: callErr}
	}
	return nil
}

// Advance pops the head of cat without a wallet call, for surfaces that
// decide through the SDK directly. Advancing an empty queue is a no-op.
// Returns ErrDecisionInFlight while a GrantHead/DenyHead holds the head.
func (b *Broker) Advance(ctx context.Context, cat request.Category) error {
	_, err := b.call(ctx, event{kind: evAdvance, category: cat})
	return err
}

func (b *Broker) GrantBasket(ctx context.Context, g Grant) error {
	return b.GrantHead(ctx, request.CategoryBasket, g)
}

func (b *Broker) DenyBasket(ctx context.Context) error {
	return b.DenyHead(ctx, request.CategoryBasket)
}

func (b *Broker) AdvanceBasketQueue(ctx context.Context) error {
	return b.Advance(ctx, request.CategoryBasket)
}

func (b *Broker) GrantCertificate(ctx context.Context, g Grant) error {
	return b.GrantHead(ctx, request.CategoryCertificate, g)
}

func (b *Broker) DenyCertificate(ctx context.Context) error {
	return b.DenyHead(ctx, request.CategoryCertificate)
}

func (b *Broker) AdvanceCertificateQueue(ctx context.Context) error {
	return b.Advance(ctx, request.CategoryCertificate)
}

func (b *Broker) GrantProtocol(ctx context.Context, g Grant) error {
	return b.GrantHead(ctx, request.CategoryProtocol, g)
}

func (b *Broker) DenyProtocol(ctx context.Context) error {
	return b.DenyHead(ctx, request.CategoryProtocol)
}

func (b *Broker) AdvanceProtocolQueue(ctx context.Context) error {
	return b.Advance(ctx, request.CategoryProtocol)
}

func (b *Broker) GrantSpending(ctx context.Context, g Grant) error {
	return b.GrantHead(ctx, request.CategorySpending, g)
}

func (b *Broker) DenySpending(ctx context.Context) error {
	return b.DenyHead(ctx, request.CategorySpending)
}

func (b *Broker) AdvanceSpendingQueue(ctx context.Context) error {
	return b.Advance(ctx, request.CategorySpending)
}

// View returns a consistent snapshot of cat.
func (b *Broker) View(ctx context.Context, cat request.Category) (CategoryView, error) {
	if !cat.Valid() {
		return CategoryView{}, fmt.Errorf("view: unknown category %q", cat)
	}
	r, err := b.call(ctx, event{kind: evView, category: cat})
	if err != nil {
		return CategoryView{}, err
	}
	return r.view, nil
}

// Stats returns counters for every category.
func (b *Broker) Stats(ctx context.Context) (Stats, error) {
	r, err := b.call(ctx, event{kind: evStats})
	if err != nil {
		return Stats{}, err
	}
	return r.stats, nil
}

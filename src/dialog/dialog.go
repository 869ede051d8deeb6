package dialog

import (
	"context"
	"sync"

	"scltemplates/src/scl"
)

// CreateRequest asks for a new Tag element under Parent.
type CreateRequest struct {
	Parent scl.Handle
	Tag    string
}

// EditRequest asks for changes to Element.
type EditRequest struct {
	Element scl.Handle
}

// Dialog resolves create and edit requests into edit actions. A nil action
// list with a nil error means the user cancelled.
type Dialog interface {
	Create(ctx context.Context, doc *scl.Document, req CreateRequest) ([]scl.Action, error)
	Edit(ctx context.Context, doc *scl.Document, req EditRequest) ([]scl.Action, error)
}

// Pending is a request waiting for an answer from whoever drains the Broker.
type Pending struct {
	Doc    *scl.Document
	Create *CreateRequest
	Edit   *EditRequest

	once  sync.Once
	reply chan []scl.Action
}

// Resolve answers the request with actions. Only the first answer counts.
func (p *Pending) Resolve(actions []scl.Action) {
	p.once.Do(func() {
		p.reply <- actions
	})
}

// Cancel answers the request with nothing.
func (p *Pending) Cancel() {
	p.Resolve(nil)
}

// Broker turns dialog calls into requests on a channel and suspends the
// caller until the request is resolved, cancelled, or ctx ends.
type Broker struct {
	requests chan *Pending
}

// NewBroker builds a broker with an unbuffered request channel.
func NewBroker() *Broker {
	return &Broker{requests: make(chan *Pending)}
}

// Requests delivers pending requests.
func (b *Broker) Requests() <-chan *Pending {
	return b.requests
}

// Create implements Dialog.
func (b *Broker) Create(ctx context.Context, doc *scl.Document, req CreateRequest) ([]scl.Action, error) {
	return b.await(ctx, &Pending{Doc: doc, Create: &req})
}

// Edit implements Dialog.
func (b *Broker) Edit(ctx context.Context, doc *scl.Document, req EditRequest) ([]scl.Action, error) {
	return b.await(ctx, &Pending{Doc: doc, Edit: &req})
}

func (b *Broker) await(ctx context.Context, p *Pending) ([]scl.Action, error) {
	p.reply = make(chan []scl.Action, 1)
	select {
	case b.requests <- p:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case actions := <-p.reply:
		return actions, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Package trigger turns chart clicks into automation requests, holding the
// click back behind a credentials prompt when the user has none stored.
package trigger

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dgnsrekt/tv_volume_dashboard/internal/chart"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/filename"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/profile"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/types"
)

type State string

const (
	StateIdle                State = "idle"
	StateChecking            State = "checking"
	StateForwardingDirect    State = "forwarding_direct"
	StateAwaitingCredentials State = "awaiting_credentials"
)

// CredentialState is the last observed answer of the gateway. It is
// re-queried on every click and never used to skip a check.
type CredentialState string

const (
	CredentialUnknown CredentialState = "unknown"
	CredentialAbsent  CredentialState = "absent"
	CredentialPresent CredentialState = "present"
)

// Outcome statuses.
const (
	StatusAccessDenied        = "access_denied"
	StatusInvalidClick        = "invalid_click"
	StatusCredentialsRequired = "credentials_required"
	StatusForwarded           = "forwarded"
	StatusForwardFailed       = "forward_failed"
	StatusCredentialsSaved    = "credentials_saved"
	StatusCredentialsRejected = "credentials_rejected"
	StatusPromptClosed        = "prompt_closed"
)

// Session is the authenticated user a dashboard acts for.
type Session interface {
	Authenticated() bool
	Token() string
}

// Gateway reads and writes the user's stored automation credentials.
type Gateway interface {
	HasCredentials(ctx context.Context) bool
	SaveCredentials(ctx context.Context, creds profile.Credentials) error
}

// Forwarder delivers a payload to the automation endpoint.
type Forwarder interface {
	Forward(ctx context.Context, p Payload) error
}

// Observer receives every outcome the orchestrator produces.
type Observer interface {
	Observe(ctx context.Context, o Outcome)
}

// Click is one bar click together with the upload context it belongs to.
type Click struct {
	Dataset        chart.Dataset
	Index          int
	Meta           filename.Metadata
	StartTime      string
	EndTime        string
	TrendlineColor string
}

// Outcome describes what a call did. Payload never carries the token.
type Outcome struct {
	Status  string     `json:"status"`
	Chart   chart.Kind `json:"chart,omitempty"`
	Payload *Payload   `json:"payload,omitempty"`
	Dropped bool       `json:"dropped,omitempty"`
	Error   string     `json:"error,omitempty"`
}

// Snapshot is the externally visible orchestrator state.
type Snapshot struct {
	State       State           `json:"state"`
	Credentials CredentialState `json:"credentials"`
	PromptOpen  bool            `json:"prompt_open"`
	Pending     *Payload        `json:"pending,omitempty"`
}

type pendingAction struct {
	chart   chart.Kind
	payload Payload
}

// Orchestrator owns the click-to-trigger flow of one session.
// The mutex is never held across gateway or forwarder calls.
type Orchestrator struct {
	session   Session
	gateway   Gateway
	forwarder Forwarder
	observer  Observer

	mu         sync.Mutex
	checking   int
	forwarding int
	promptOpen bool
	creds      CredentialState
	pending    *pendingAction
}

func NewOrchestrator(sess Session, gateway Gateway, forwarder Forwarder, observer Observer) *Orchestrator {
	return &Orchestrator{
		session:   sess,
		gateway:   gateway,
		forwarder: forwarder,
		observer:  observer,
		creds:     CredentialUnknown,
	}
}

// OnChartClick maps the click and either forwards it or parks it until
// credentials are supplied.
func (o *Orchestrator) OnChartClick(ctx context.Context, c Click) (Outcome, error) {
	kind := c.Dataset.Kind
	if o.session == nil || !o.session.Authenticated() {
		err := types.NewError(types.CodeAccessDenied, "sign in to trigger automation", nil)
		o.report(ctx, Outcome{Status: StatusAccessDenied, Chart: kind, Error: err.Error()})
		return Outcome{Status: StatusAccessDenied, Chart: kind}, err
	}

	point, err := chart.MapClick(c.Dataset, c.Index, c.Meta)
	if err != nil {
		o.report(ctx, Outcome{Status: StatusInvalidClick, Chart: kind, Error: err.Error()})
		return Outcome{Status: StatusInvalidClick, Chart: kind}, err
	}
	payload, err := NewPayload(point, c, o.session.Token())
	if err != nil {
		o.report(ctx, Outcome{Status: StatusInvalidClick, Chart: kind, Error: err.Error()})
		return Outcome{Status: StatusInvalidClick, Chart: kind}, err
	}

	o.mu.Lock()
	o.checking++
	o.mu.Unlock()

	has := o.gateway.HasCredentials(ctx)

	o.mu.Lock()
	o.checking--
	if has {
		o.creds = CredentialPresent
	} else {
		o.creds = CredentialAbsent
	}
	if !has {
		if o.pending != nil {
			slog.Info("pending trigger replaced", "previous_symbol", o.pending.payload.Symbol, "previous_price", o.pending.payload.Price)
		}
		o.pending = &pendingAction{chart: kind, payload: payload}
		o.promptOpen = true
		o.mu.Unlock()
		out := Outcome{Status: StatusCredentialsRequired, Chart: kind, Payload: redactedPtr(payload)}
		o.report(ctx, out)
		return out, nil
	}
	o.mu.Unlock()

	return o.send(ctx, kind, payload)
}

// OnCredentialsSubmitted stores creds and, on success, forwards the pending
// click exactly once. On failure the prompt and pending click are kept.
func (o *Orchestrator) OnCredentialsSubmitted(ctx context.Context, creds profile.Credentials) (Outcome, error) {
	if o.session == nil || !o.session.Authenticated() {
		err := types.NewError(types.CodeAccessDenied, "sign in to save credentials", nil)
		o.report(ctx, Outcome{Status: StatusAccessDenied, Error: err.Error()})
		return Outcome{Status: StatusAccessDenied}, err
	}

	if err := o.gateway.SaveCredentials(ctx, creds); err != nil {
		if types.CodeOf(err) == "" {
			err = types.NewError(types.CodeCredentialsSaveFailed, "failed to save credentials", err)
		}
		o.report(ctx, Outcome{Status: StatusCredentialsRejected, Error: err.Error()})
		return Outcome{Status: StatusCredentialsRejected}, err
	}

	o.mu.Lock()
	o.promptOpen = false
	o.creds = CredentialPresent
	pending := o.pending
	o.pending = nil
	o.mu.Unlock()

	o.report(ctx, Outcome{Status: StatusCredentialsSaved})
	if pending == nil {
		return Outcome{Status: StatusCredentialsSaved}, nil
	}
	return o.send(ctx, pending.chart, pending.payload)
}

// OnPromptCancelled closes the prompt and drops the pending click unsent.
func (o *Orchestrator) OnPromptCancelled(ctx context.Context) Outcome {
	o.mu.Lock()
	dropped := o.pending != nil
	o.pending = nil
	o.promptOpen = false
	o.mu.Unlock()

	out := Outcome{Status: StatusPromptClosed, Dropped: dropped}
	o.report(ctx, out)
	return out
}

func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	snap := Snapshot{State: o.stateLocked(), Credentials: o.creds, PromptOpen: o.promptOpen}
	if o.pending != nil {
		snap.Pending = redactedPtr(o.pending.payload)
	}
	return snap
}

func (o *Orchestrator) stateLocked() State {
	switch {
	case o.forwarding > 0:
		return StateForwardingDirect
	case o.checking > 0:
		return StateChecking
	case o.promptOpen:
		return StateAwaitingCredentials
	default:
		return StateIdle
	}
}

func (o *Orchestrator) send(ctx context.Context, kind chart.Kind, p Payload) (Outcome, error) {
	o.mu.Lock()
	o.forwarding++
	o.mu.Unlock()

	err := o.forwarder.Forward(ctx, p)

	o.mu.Lock()
	o.forwarding--
	o.mu.Unlock()

	if err != nil {
		err = types.NewError(types.CodeForwardFailed, "failed to trigger automation", err)
		out := Outcome{Status: StatusForwardFailed, Chart: kind, Payload: redactedPtr(p), Error: err.Error()}
		o.report(ctx, out)
		return out, err
	}
	out := Outcome{Status: StatusForwarded, Chart: kind, Payload: redactedPtr(p)}
	o.report(ctx, out)
	return out, nil
}

func (o *Orchestrator) report(ctx context.Context, out Outcome) {
	if o.observer != nil {
		o.observer.Observe(ctx, out)
	}
}

func redactedPtr(p Payload) *Payload {
	r := p.Redacted()
	return &r
}

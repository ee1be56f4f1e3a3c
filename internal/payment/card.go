package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"tutorlink/internal/apperr"
	"tutorlink/internal/config"
	"tutorlink/internal/models"
)

// Card processor event types the reconciler acts on.
const (
	CardEventCheckoutCompleted      = "checkout.session.completed"
	CardEventPaymentIntentSucceeded = "payment_intent.succeeded"
)

// CardAPI is the subset of the card processor client the gateway uses.
type CardAPI interface {
	NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	NewAccount(params *stripe.AccountParams) (*stripe.Account, error)
	NewAccountLink(params *stripe.AccountLinkParams) (*stripe.AccountLink, error)
}

var (
	stripeOnce   sync.Once
	stripeShared *client.API
)

// sharedStripe returns the process-wide client, created on first use.
func sharedStripe(secretKey string) *client.API {
	stripeOnce.Do(func() {
		stripeShared = &client.API{}
		stripeShared.Init(secretKey, nil)
	})
	return stripeShared
}

type stripeAPI struct {
	c *client.API
}

func (s stripeAPI) NewCheckoutSession(p *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return s.c.CheckoutSessions.New(p)
}

func (s stripeAPI) NewAccount(p *stripe.AccountParams) (*stripe.Account, error) {
	return s.c.Accounts.New(p)
}

func (s stripeAPI) NewAccountLink(p *stripe.AccountLinkParams) (*stripe.AccountLink, error) {
	return s.c.AccountLinks.New(p)
}

// CardGateway implements the Gateway interface with hosted checkout and a
// destination split: the platform fee stays with the platform, the rest goes
// to the tutor's connected account.
type CardGateway struct {
	cfg config.CardConfig
	api CardAPI
}

// NewCardGateway builds the card gateway. A nil api uses the shared client.
func NewCardGateway(cfg config.CardConfig, api CardAPI) *CardGateway {
	if cfg.Currency == "" {
		cfg.Currency = "vnd"
	}
	return &CardGateway{cfg: cfg, api: api}
}

func (g *CardGateway) Name() string {
	return string(models.GatewayCard)
}

func (g *CardGateway) client() CardAPI {
	if g.api != nil {
		return g.api
	}
	return stripeAPI{c: sharedStripe(g.cfg.SecretKey)}
}

func (g *CardGateway) CreatePayment(ctx context.Context, co Checkout) (*PaymentResult, error) {
	if !g.cfg.Configured() {
		return nil, apperr.ErrNotConfigured
	}
	if res, err := precheck(co.Booking); res != nil || err != nil {
		return res, err
	}
	if co.Tutor == nil || co.Tutor.CardAccountID == "" {
		return nil, apperr.ErrTutorNotOnboarded
	}
	b := co.Booking

	metadata := map[string]string{
		"booking_id": strconv.FormatUint(uint64(b.ID), 10),
		"student_id": b.StudentID,
		"tutor_id":   b.TutorID,
	}
	base := strings.TrimRight(co.AppURL, "/")
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(fmt.Sprintf("%s/bookings/%d?paid=1", base, b.ID)),
		CancelURL:  stripe.String(fmt.Sprintf("%s/bookings/%d?canceled=1", base, b.ID)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(strings.ToLower(g.cfg.Currency)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(fmt.Sprintf("Thanh toán buổi học #%d", b.ID)),
					},
					UnitAmount: stripe.Int64(b.Price),
				},
				Quantity: stripe.Int64(1),
			},
		},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			ApplicationFeeAmount: stripe.Int64(b.PlatformFee),
			TransferData: &stripe.CheckoutSessionPaymentIntentDataTransferDataParams{
				Destination: stripe.String(co.Tutor.CardAccountID),
			},
			Metadata: metadata,
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	session, err := g.client().NewCheckoutSession(params)
	if err != nil {
		return nil, fmt.Errorf("%w: card checkout session: %v", apperr.ErrUpstream, err)
	}
	return &PaymentResult{
		OrderID:    session.ID,
		PaymentURL: session.URL,
	}, nil
}

// Onboarding is the result of Onboard.
type Onboarding struct {
	AccountID  string
	URL        string
	NewAccount bool
}

// Onboard creates an express connected account for the tutor when missing and
// returns an onboarding link. The caller persists a new AccountID.
func (g *CardGateway) Onboard(ctx context.Context, tutor *models.Profile, returnURL string) (*Onboarding, error) {
	if !g.cfg.Configured() {
		return nil, apperr.ErrNotConfigured
	}
	if tutor == nil || tutor.Role != models.RoleTutor {
		return nil, apperr.ErrNotTutor
	}

	out := &Onboarding{AccountID: tutor.CardAccountID}
	if out.AccountID == "" {
		ap := &stripe.AccountParams{Type: stripe.String(string(stripe.AccountTypeExpress))}
		ap.Context = ctx
		acct, err := g.client().NewAccount(ap)
		if err != nil {
			return nil, fmt.Errorf("%w: card create account: %v", apperr.ErrUpstream, err)
		}
		out.AccountID = acct.ID
		out.NewAccount = true
	}

	lp := &stripe.AccountLinkParams{
		Account:    stripe.String(out.AccountID),
		RefreshURL: stripe.String(returnURL),
		ReturnURL:  stripe.String(returnURL),
		Type:       stripe.String("account_onboarding"),
	}
	lp.Context = ctx
	link, err := g.client().NewAccountLink(lp)
	if err != nil {
		return out, fmt.Errorf("%w: card account link: %v", apperr.ErrUpstream, err)
	}
	out.URL = link.URL
	return out, nil
}

// CardEvent is a verified webhook event reduced to what reconciliation needs.
type CardEvent struct {
	ID        string
	Type      string
	BookingID uint
	ObjectID  string
	Amount    int64
	Currency  string
	Raw       json.RawMessage
}

type cardEventObject struct {
	ID            string            `json:"id"`
	Metadata      map[string]string `json:"metadata"`
	AmountTotal   int64             `json:"amount_total"`
	Amount        int64             `json:"amount"`
	Currency      string            `json:"currency"`
	PaymentStatus string            `json:"payment_status"`
}

// ConstructEvent verifies the signature header against the webhook secret and
// decodes the event.
func (g *CardGateway) ConstructEvent(payload []byte, sigHeader string) (*CardEvent, error) {
	if g.cfg.WebhookSecret == "" {
		return nil, apperr.ErrNotConfigured
	}
	if sigHeader == "" {
		return nil, apperr.ErrChecksumFailed
	}

	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, g.cfg.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrChecksumFailed, err)
	}

	out := &CardEvent{ID: event.ID, Type: string(event.Type)}
	if event.Data == nil {
		return out, nil
	}
	out.Raw = event.Data.Raw

	var obj cardEventObject
	if err := json.Unmarshal(event.Data.Raw, &obj); err != nil {
		return nil, fmt.Errorf("%w: card event object: %v", apperr.ErrInvalidInput, err)
	}
	out.ObjectID = obj.ID
	out.Amount = obj.AmountTotal
	if out.Amount == 0 {
		out.Amount = obj.Amount
	}
	out.Currency = strings.ToUpper(obj.Currency)
	if id, err := strconv.ParseUint(obj.Metadata["booking_id"], 10, 64); err == nil {
		out.BookingID = uint(id)
	}
	return out, nil
}

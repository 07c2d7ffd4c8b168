package tokensController

import (
	"context"
	"time"

	"bunkhouse/internal/controllers/validate"
	. "bunkhouse/internal/models"
	"bunkhouse/internal/repositories"
	"bunkhouse/internal/services"
	"bunkhouse/pkg/logger"
)

type TokensController struct {
	tokens *services.TokenService
	now    services.Clock
}

// GuestInput mirrors GuestDetails without requiring a name, since the name
// may come from the token prefill.
type GuestInput struct {
	GuestName   string `json:"guestName,omitempty"   validate:"omitempty,max=120"`
	PhoneNumber string `json:"phoneNumber,omitempty" validate:"omitempty,max=32"`
	Email       string `json:"email,omitempty"       validate:"omitempty,email"`
	Nationality string `json:"nationality,omitempty" validate:"omitempty,max=64"`
	Gender      string `json:"gender,omitempty"      validate:"omitempty,oneof=male female other"`
	IDNumber    string `json:"idNumber,omitempty"    validate:"omitempty,max=64"`
}

func (g GuestInput) Details() GuestDetails {
	return GuestDetails{
		GuestName:   g.GuestName,
		PhoneNumber: g.PhoneNumber,
		Email:       g.Email,
		Nationality: g.Nationality,
		Gender:      g.Gender,
		IDNumber:    g.IDNumber,
	}
}

type CreateTokenRequest struct {
	UnitNumber           string     `json:"unitNumber,omitempty"           validate:"omitempty,max=16"`
	AutoAssign           bool       `json:"autoAssign,omitempty"`
	ExpiresInHours       int        `json:"expiresInHours,omitempty"       validate:"omitempty,min=1,max=720"`
	Prefill              GuestInput `json:"prefill"`
	ExpectedCheckoutDate string     `json:"expectedCheckoutDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// GuestTokenView is what an unauthenticated guest sees before redeeming.
type GuestTokenView struct {
	UnitNumber           *string      `json:"unitNumber,omitempty"`
	Prefill              GuestDetails `json:"prefill"`
	ExpectedCheckoutDate *time.Time   `json:"expectedCheckoutDate,omitempty"`
	ExpiresAt            time.Time    `json:"expiresAt"`
}

type TokensControllerInterface interface {
	Create(ctx context.Context, actor string, request *CreateTokenRequest) (*GuestToken, error)
	ListActive(ctx context.Context, page repositories.Pagination) (repositories.Page[GuestToken], error)
	Cancel(ctx context.Context, token string) error
	Sweep(ctx context.Context) (int64, error)
	Lookup(ctx context.Context, token string) (*GuestTokenView, error)
	Redeem(ctx context.Context, token string, request *GuestInput) (*Stay, error)
}

func New(tokens *services.TokenService, clock services.Clock) TokensControllerInterface {
	if clock == nil {
		clock = services.SystemClock
	}
	return &TokensController{
		tokens: tokens,
		now:    clock,
	}
}

func (c *TokensController) Create(
	ctx context.Context,
	actor string,
	request *CreateTokenRequest,
) (*GuestToken, error) {
	if err := validate.Struct(request); err != nil {
		return nil, err
	}

	expected, err := validate.Date(request.ExpectedCheckoutDate)
	if err != nil {
		return nil, err
	}

	return c.tokens.Create(ctx, services.CreateTokenRequest{
		UnitNumber:           request.UnitNumber,
		AutoAssign:           request.AutoAssign,
		ExpiresInHours:       request.ExpiresInHours,
		Prefill:              request.Prefill.Details(),
		ExpectedCheckoutDate: expected,
		Actor:                actor,
	})
}

func (c *TokensController) ListActive(
	ctx context.Context,
	page repositories.Pagination,
) (repositories.Page[GuestToken], error) {
	return c.tokens.ListActive(ctx, page)
}

func (c *TokensController) Cancel(ctx context.Context, token string) error {
	return c.tokens.Cancel(ctx, token)
}

func (c *TokensController) Sweep(ctx context.Context) (int64, error) {
	return c.tokens.SweepExpired(ctx)
}

// Lookup reports used and expired tokens as errors so the guest page can
// explain why the link no longer works.
func (c *TokensController) Lookup(ctx context.Context, token string) (*GuestTokenView, error) {
	t, err := c.tokens.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	if t.IsUsed {
		return nil, services.ErrTokenAlreadyUsed
	}
	if t.IsExpired(c.now()) {
		return nil, services.ErrTokenExpired
	}

	return &GuestTokenView{
		UnitNumber:           t.UnitNumber,
		Prefill:              t.Prefill.Data(),
		ExpectedCheckoutDate: t.ExpectedCheckoutDate,
		ExpiresAt:            t.ExpiresAt,
	}, nil
}

func (c *TokensController) Redeem(ctx context.Context, token string, request *GuestInput) (*Stay, error) {
	log := logger.NewWithContext(ctx, "tokensController").Function("Redeem")

	if err := validate.Struct(request); err != nil {
		return nil, err
	}

	stay, err := c.tokens.Redeem(ctx, token, request.Details())
	if err != nil {
		log.Warn("redemption rejected", "error", err)
		return nil, err
	}
	return stay, nil
}

package usecase

import (
	"context"
	"net/http"

	"sparkshop/internal/domain/model"
)

// 画面上の確認だけ（決済はしない）。確定したらカートを空にする。
type CheckoutUsecase struct {
	cart *CartUsecase
}

// DI
func NewCheckoutUsecase(cart *CartUsecase) *CheckoutUsecase {
	return &CheckoutUsecase{cart: cart}
}

type CheckoutOutput struct {
	Lines   []model.CartLine  `json:"lines"`
	Summary model.CartSummary `json:"summary"`
}

func (u *CheckoutUsecase) Summary(ctx context.Context) (CheckoutOutput, error) {
	lines, err := u.cart.Lines(ctx)
	if err != nil {
		return CheckoutOutput{}, err
	}
	return CheckoutOutput{Lines: lines, Summary: model.Summarize(lines)}, nil
}

// 空のカートは確定できない
func (u *CheckoutUsecase) Complete(ctx context.Context) (CheckoutOutput, error) {
	out, err := u.Summary(ctx)
	if err != nil {
		return CheckoutOutput{}, err
	}
	if len(out.Lines) == 0 {
		return CheckoutOutput{}, NewHTTPError(http.StatusBadRequest, "cart is empty")
	}

	if err := u.cart.Clear(ctx); err != nil {
		return CheckoutOutput{}, err
	}
	u.cart.log.Info(ctx, "checkout completed", "lines", out.Summary.Count, "total", out.Summary.Total.String())
	return out, nil
}

package promo

import (
	"strings"
	"time"

	"github.com/telemed/telemed/internal/platform/apperr"
)

var (
	ErrPromoNotFound = apperr.NotFound("promo code not found")
	ErrPromoExists   = apperr.New(apperr.KindAlreadyExists, "promo code already exists")
)

// PromoCode grants a percentage discount on the booking fee.
type PromoCode struct {
	Code       string    `json:"code" validate:"required,max=50,alphanum"`
	Percentage int       `json:"percentage" validate:"min=0,max=100"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
}

// NormalizeCode trims and upper-cases a code as entered by a user.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

package payment

import (
	"fmt"
	"net/url"
	"strconv"

	"tutorlink/internal/apperr"
	"tutorlink/internal/config"
	"tutorlink/internal/models"
)

const vietQRImageBase = "https://img.vietqr.io/image/"

// TransferInstructions tell a student where to send a manual bank transfer.
type TransferInstructions struct {
	Bank        string `json:"bank"`
	Account     string `json:"account"`
	AccountName string `json:"accountName"`
	Amount      int64  `json:"amount"`
	Reference   string `json:"reference"`
	QRURL       string `json:"qrUrl"`
}

// TransferReference is the note a student puts on the transfer for booking id.
func TransferReference(bookingID uint) string {
	return fmt.Sprintf("TL_BK_%d", bookingID)
}

// NewTransferInstructions builds the VietQR image link for a booking.
func NewTransferInstructions(cfg config.TransferConfig, b *models.Booking) (*TransferInstructions, error) {
	if !cfg.Configured() {
		return nil, apperr.ErrNotConfigured
	}
	if b == nil || b.ID == 0 {
		return nil, apperr.ErrInvalidBooking
	}
	amount := b.Price
	if amount < 0 {
		amount = 0
	}

	ref := TransferReference(b.ID)
	q := url.Values{}
	q.Set("amount", strconv.FormatInt(amount, 10))
	q.Set("addInfo", ref)
	q.Set("accountName", cfg.AccountName)

	return &TransferInstructions{
		Bank:        cfg.Bank,
		Account:     cfg.Account,
		AccountName: cfg.AccountName,
		Amount:      amount,
		Reference:   ref,
		QRURL:       vietQRImageBase + url.PathEscape(cfg.Bank) + "-" + url.PathEscape(cfg.Account) + "-compact2.png?" + q.Encode(),
	}, nil
}

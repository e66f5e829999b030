package referral

import (
	"context"
	"fmt"
	"log/slog"

	accountDatamodel "github.com/veedsify/mightyshare-api/internal/core/datamodel/account"
	transactionDatamodel "github.com/veedsify/mightyshare-api/internal/core/datamodel/transaction"
	userDatamodel "github.com/veedsify/mightyshare-api/internal/core/datamodel/user"
	"github.com/veedsify/mightyshare-api/internal/core/events"
	"github.com/veedsify/mightyshare-api/internal/wallet"
)

type UserReaderAPI interface {
	GetByID(userID int64) (*userDatamodel.User, error)
}

// WalletAPI is the slice of the wallet store the bonus credit needs. The
// unique transaction reference is what makes the credit once-only.
type WalletAPI interface {
	FirstAccountOf(userID int64) (*accountDatamodel.Account, error)
	CreditReferralEarnings(accountID, amount int64) error
	CreateTransaction(t *transactionDatamodel.Transaction) error
}

// EventHandler pays the referral bonus when a referred user's registration
// fee lands. The bonus is credited at most once per referred user.
type EventHandler struct {
	users   UserReaderAPI
	wallets WalletAPI
	bonus   int64
	logger  *slog.Logger
}

func NewEventHandler(users UserReaderAPI, wallets WalletAPI, bonus int64, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		users:   users,
		wallets: wallets,
		bonus:   bonus,
		logger:  logger,
	}
}

func (h *EventHandler) HandleRegistrationPaid(ctx context.Context, event events.Event) error {
	paidEvent, ok := event.(*events.RegistrationPaidEvent)
	if !ok {
		h.logger.Error("invalid event type for registration paid handler", "event_type", event.EventType())
		return fmt.Errorf("expected RegistrationPaidEvent, got %T", event)
	}

	if h.bonus <= 0 {
		return nil
	}

	referred, err := h.users.GetByID(paidEvent.UserID)
	if err != nil {
		h.logger.Error("failed to load referred user",
			"error", err, "user_id", paidEvent.UserID, "event_id", paidEvent.EventID())
		return err
	}
	if referred == nil || referred.ReferredBy == nil {
		return nil
	}

	referrerAccount, err := h.wallets.FirstAccountOf(*referred.ReferredBy)
	if err != nil {
		h.logger.Error("failed to load referrer account",
			"error", err, "referrer_id", *referred.ReferredBy)
		return err
	}
	if referrerAccount == nil {
		h.logger.Warn("referrer has no wallet account, skipping bonus",
			"referrer_id", *referred.ReferredBy, "referred_id", referred.ID)
		return nil
	}

	// The reference carries the referred user's id, so a replayed event
	// hits the unique constraint instead of crediting twice.
	ledgerTx := &transactionDatamodel.Transaction{
		AccountID:     referrerAccount.ID,
		Amount:        h.bonus,
		Reference:     fmt.Sprintf("REF-%d", referred.ID),
		Status:        string(wallet.TxStatusSuccessful),
		TxType:        string(wallet.TxTypeCredit),
		PaymentMethod: "referral_bonus",
		Description:   fmt.Sprintf("referral bonus for user %d", referred.ID),
	}
	if err := h.wallets.CreateTransaction(ledgerTx); err != nil {
		if err == wallet.ErrDuplicateReference {
			h.logger.Info("referral bonus already credited",
				"referrer_id", *referred.ReferredBy, "referred_id", referred.ID)
			return nil
		}
		h.logger.Error("failed to record referral bonus",
			"error", err, "referrer_id", *referred.ReferredBy)
		return err
	}

	if err := h.wallets.CreditReferralEarnings(referrerAccount.ID, h.bonus); err != nil {
		h.logger.Error("failed to credit referral earnings",
			"error", err, "referrer_id", *referred.ReferredBy, "account_id", referrerAccount.ID)
		return err
	}

	h.logger.Info("referral bonus credited",
		"referrer_id", *referred.ReferredBy,
		"referred_id", referred.ID,
		"bonus", h.bonus,
		"event_id", paidEvent.EventID())

	return nil
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypeRegistrationPaid, h.HandleRegistrationPaid)

	h.logger.Info("referral event handlers registered",
		"handlers", []string{events.EventTypeRegistrationPaid})
}

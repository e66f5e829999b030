package payment

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/veedsify/mightyshare-api/internal"
	paymentDatamodel "github.com/veedsify/mightyshare-api/internal/core/datamodel/payment"
	gatewayDatamodel "github.com/veedsify/mightyshare-api/internal/core/datamodel/paymentgateway"
	transactionDatamodel "github.com/veedsify/mightyshare-api/internal/core/datamodel/transaction"
	userDatamodel "github.com/veedsify/mightyshare-api/internal/core/datamodel/user"
	"github.com/veedsify/mightyshare-api/internal/core/events"
	"github.com/veedsify/mightyshare-api/internal/paymentgateway"
	"github.com/veedsify/mightyshare-api/internal/wallet"
)

// RepositoryAPI covers the payment ledger reads and the out-of-transaction
// writes. The settlement writes go through SettlementStore instead.
type RepositoryAPI interface {
	Create(p *paymentDatamodel.Payment) error
	GetByOrderID(orderID string) (*paymentDatamodel.Payment, error)
	GetByOrderIDAndUser(orderID string, userID int64) (*paymentDatamodel.Payment, error)
	LatestPendingByPhone(phone string) (*paymentDatamodel.Payment, error)
	ListStalePending(olderThan time.Time, limit int) ([]*paymentDatamodel.Payment, error)
	MarkFailed(paymentID int64, metadata json.RawMessage) error
}

// SettlementStore is the transaction-scoped slice of the store used while
// settling one payment. Every method runs on the same database transaction.
type SettlementStore interface {
	MarkSuccessful(paymentID int64, metadata json.RawMessage, verifiedAt time.Time) error
	RecordTransaction(t *transactionDatamodel.Transaction) error
	CreditBalance(accountID, amount int64) error
	CreditContribution(accountID, amount int64) error
	MarkRegistrationPaid(userID int64) error
}

// Transactor runs fn inside a single database transaction. The settlement
// sequence either lands whole or not at all.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(store SettlementStore) error) error
}

// GatewayAPI is the provider surface reconciliation needs.
type GatewayAPI interface {
	IsConfigured() bool
	Currency() string
	CreateVirtualAccount(ctx context.Context, orderID string, amount int64, description string, customer gatewayDatamodel.Customer) (*gatewayDatamodel.VirtualAccount, error)
	GetTransaction(ctx context.Context, transactionID string) (*gatewayDatamodel.GatewayTransaction, error)
}

// WalletAPI resolves the account to credit. A nil account means the user
// has no wallet yet; settlement proceeds without crediting.
type WalletAPI interface {
	FirstAccountOf(userID int64) (*wallet.Account, error)
}

type UserReaderAPI interface {
	GetByID(userID int64) (*userDatamodel.User, error)
	GetByPhone(phone string) (*userDatamodel.User, error)
}

// FeeAPI yields the registration fee owed by a user who has not paid it.
type FeeAPI interface {
	RegistrationFee(userID int64) int64
}

type Service struct {
	repo       RepositoryAPI
	transactor Transactor
	gateway    GatewayAPI
	wallets    WalletAPI
	users      UserReaderAPI
	fees       FeeAPI
	eventBus   *events.EventBus
	logger     *slog.Logger
}

func NewService(
	repo RepositoryAPI,
	transactor Transactor,
	gateway GatewayAPI,
	wallets WalletAPI,
	users UserReaderAPI,
	fees FeeAPI,
	eventBus *events.EventBus,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:       repo,
		transactor: transactor,
		gateway:    gateway,
		wallets:    wallets,
		users:      users,
		fees:       fees,
		eventBus:   eventBus,
		logger:     logger,
	}
}

const maxOrderIDAttempts = 5

func generateOrderID() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "ORD" + strings.ToUpper(raw[:16])
}

// OpenPayment records a PENDING payment and mints a virtual account for it
// at the provider. The order id is generated here and becomes the
// idempotency key for everything that follows.
func (s *Service) OpenPayment(ctx context.Context, userID int64, dto *InitiatePaymentDTO) (*InitiatePaymentResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if !s.gateway.IsConfigured() {
		return nil, apperrors.NewBusinessError("payment gateway is not configured", apperrors.ErrCodeGatewayNotConfigured)
	}

	record := &paymentDatamodel.Payment{
		UserID:        userID,
		Amount:        dto.Amount,
		Currency:      s.gateway.Currency(),
		Description:   dto.Description,
		CustomerEmail: dto.Email,
		CustomerPhone: dto.Phone,
		FirstName:     dto.FirstName,
		LastName:      dto.LastName,
		Status:        string(StatusPending),
	}

	var created bool
	for attempt := 0; attempt < maxOrderIDAttempts; attempt++ {
		record.OrderID = generateOrderID()
		err := s.repo.Create(record)
		if err == nil {
			created = true
			break
		}
		if err == ErrDuplicateOrderID {
			s.logger.Warn("order id collision, regenerating", "order_id", record.OrderID)
			continue
		}
		s.logger.Error("failed to create payment record", "error", err, "user_id", userID)
		return nil, apperrors.NewInternalError("failed to create payment", err)
	}
	if !created {
		return nil, apperrors.NewInternalError("could not allocate a unique order id", nil)
	}

	customer := gatewayDatamodel.Customer{
		Email:     dto.Email,
		Phone:     dto.Phone,
		FirstName: dto.FirstName,
		LastName:  dto.LastName,
	}

	va, err := s.gateway.CreateVirtualAccount(ctx, record.OrderID, dto.Amount, dto.Description, customer)
	if err != nil {
		s.logger.Error("virtual account creation failed",
			"error", err, "order_id", record.OrderID, "user_id", userID)
		if markErr := s.repo.MarkFailed(record.ID, nil); markErr != nil {
			s.logger.Error("failed to mark payment failed after gateway error",
				"error", markErr, "payment_id", record.ID)
		}
		return nil, s.gatewayError(err)
	}

	s.logger.Info("payment opened",
		"order_id", record.OrderID,
		"user_id", userID,
		"amount", dto.Amount,
		"virtual_account", va.AccountNumber)

	return &InitiatePaymentResponse{
		OrderID:        record.OrderID,
		Amount:         dto.Amount,
		Currency:       record.Currency,
		Status:         StatusPending,
		VirtualAccount: va,
	}, nil
}

// VerifyAndSettle checks the payment with the provider and, when the funds
// are in, credits the user's wallet exactly once. The registration fee is
// taken out of the first successful payment of a user who has not paid it.
func (s *Service) VerifyAndSettle(ctx context.Context, orderID string, userID int64) (*SettlementResult, error) {
	return s.verifyAndSettle(ctx, orderID, userID, true)
}

// VerifyAndSettleTopup is the same flow without the registration fee stop:
// topups credit the full verified amount.
func (s *Service) VerifyAndSettleTopup(ctx context.Context, orderID string, userID int64) (*SettlementResult, error) {
	return s.verifyAndSettle(ctx, orderID, userID, false)
}

func (s *Service) verifyAndSettle(ctx context.Context, orderID string, userID int64, deductFee bool) (*SettlementResult, error) {
	record, err := s.repo.GetByOrderIDAndUser(orderID, userID)
	if err != nil {
		s.logger.Error("payment lookup failed", "error", err, "order_id", orderID, "user_id", userID)
		return nil, apperrors.NewInternalError("failed to load payment", err)
	}
	if record == nil {
		return nil, apperrors.ErrPaymentNotFound
	}

	// Terminal payments replay their stored summary. No gateway call, no
	// wallet mutation.
	if PaymentStatus(record.Status).IsTerminal() {
		return resultFromRow(record), nil
	}

	tx, err := s.gateway.GetTransaction(ctx, orderID)
	if err != nil {
		s.logger.Error("gateway verification failed", "error", err, "order_id", orderID)
		return nil, s.gatewayError(err)
	}

	switch tx.Status {
	case gatewayDatamodel.TxStatusCompleted:
		// fall through to settlement
	case gatewayDatamodel.TxStatusFailed:
		meta := settlementMetadata{
			ProviderTransactionID: tx.TransactionID,
			ProviderReference:     tx.Reference,
			ProviderStatus:        string(tx.Status),
			VerifiedAmount:        tx.Amount,
		}
		if markErr := s.repo.MarkFailed(record.ID, meta.marshal()); markErr != nil {
			s.logger.Error("failed to mark payment failed", "error", markErr, "payment_id", record.ID)
		}
		return nil, apperrors.NewBusinessError("payment was not successful at the provider", apperrors.ErrCodeGatewayError)
	default:
		return nil, apperrors.NewBusinessError("payment has not completed yet", apperrors.ErrCodeGatewayError)
	}

	if tx.Amount < record.Amount {
		s.logger.Warn("verified amount below expected",
			"order_id", orderID, "expected", record.Amount, "verified", tx.Amount)
		return nil, apperrors.ErrInsufficientAmount
	}

	return s.settle(ctx, record, tx.Amount, tx.TransactionID, tx.Reference, deductFee)
}

// settle runs the credit sequence inside one database transaction. The
// conditional status transition executes first: losing the race aborts the
// transaction before any money moves.
func (s *Service) settle(ctx context.Context, record *paymentDatamodel.Payment, verifiedAmount int64, providerTxID, providerRef string, deductFee bool) (*SettlementResult, error) {
	account, err := s.wallets.FirstAccountOf(record.UserID)
	if err != nil {
		s.logger.Error("account lookup failed", "error", err, "user_id", record.UserID)
		return nil, apperrors.NewInternalError("failed to load wallet account", err)
	}

	var fee, credit int64
	credit = verifiedAmount
	registrationJustPaid := false

	if deductFee {
		usr, err := s.users.GetByID(record.UserID)
		if err != nil {
			s.logger.Error("user lookup failed", "error", err, "user_id", record.UserID)
			return nil, apperrors.NewInternalError("failed to load user", err)
		}
		if usr == nil {
			return nil, apperrors.ErrUserNotFound
		}
		if !usr.RegistrationPaid {
			fee = s.fees.RegistrationFee(record.UserID)
			if verifiedAmount >= fee {
				credit = verifiedAmount - fee
				registrationJustPaid = true
			} else {
				// The whole payment is consumed by the fee shortfall; the
				// payment still settles but nothing is credited and the
				// registration stays unpaid.
				credit = 0
				fee = verifiedAmount
			}
		}
	}

	now := time.Now().UTC()
	meta := settlementMetadata{
		ProviderTransactionID: providerTxID,
		ProviderReference:     providerRef,
		ProviderStatus:        string(gatewayDatamodel.TxStatusCompleted),
		VerifiedAmount:        verifiedAmount,
		CreditedAmount:        credit,
		FeeDeducted:           verifiedAmount - credit,
	}
	if account == nil {
		// Nothing to credit into; the payment still settles so the money
		// is accounted for.
		s.logger.Warn("no wallet account for user, settling without credit",
			"user_id", record.UserID, "order_id", record.OrderID)
		meta.CreditedAmount = 0
	}

	err = s.transactor.WithinTransaction(ctx, func(store SettlementStore) error {
		if err := store.MarkSuccessful(record.ID, meta.marshal(), now); err != nil {
			return err
		}

		if account != nil && credit > 0 {
			ledgerTx := &transactionDatamodel.Transaction{
				AccountID:         account.ID,
				Amount:            credit,
				Reference:         record.OrderID,
				Status:            string(wallet.TxStatusSuccessful),
				TxType:            string(wallet.TxTypeCredit),
				PaymentMethod:     "virtual_account",
				ProviderReference: providerRef,
				Description:       record.Description,
			}
			if err := store.RecordTransaction(ledgerTx); err != nil {
				return err
			}
			if deductFee {
				if err := store.CreditContribution(account.ID, credit); err != nil {
					return err
				}
			} else {
				if err := store.CreditBalance(account.ID, credit); err != nil {
					return err
				}
			}
		}

		if registrationJustPaid {
			return store.MarkRegistrationPaid(record.UserID)
		}
		return nil
	})
	if err != nil {
		if err == ErrAlreadySettled || err == wallet.ErrDuplicateReference {
			// Lost the race: the other settler credited. Replay the stored
			// summary so the caller still gets a terminal answer.
			s.logger.Info("settlement raced, replaying stored summary",
				"order_id", record.OrderID)
			settled, loadErr := s.repo.GetByOrderIDAndUser(record.OrderID, record.UserID)
			if loadErr != nil || settled == nil {
				return nil, apperrors.NewInternalError("failed to reload settled payment", loadErr)
			}
			return resultFromRow(settled), nil
		}
		s.logger.Error("settlement transaction failed", "error", err, "order_id", record.OrderID)
		return nil, apperrors.NewInternalError("failed to settle payment", err)
	}

	s.logger.Info("payment settled",
		"order_id", record.OrderID,
		"user_id", record.UserID,
		"verified_amount", verifiedAmount,
		"credited_amount", meta.CreditedAmount,
		"fee_deducted", meta.FeeDeducted)

	s.eventBus.Publish(ctx, events.NewPaymentSettledEvent(
		record.ID, record.UserID, record.OrderID,
		verifiedAmount, meta.CreditedAmount, meta.FeeDeducted))
	if registrationJustPaid {
		s.eventBus.Publish(ctx, events.NewRegistrationPaidEvent(record.UserID, fee))
	}

	return &SettlementResult{
		OrderID:        record.OrderID,
		Status:         StatusSuccessful,
		Amount:         record.Amount,
		VerifiedAmount: verifiedAmount,
		CreditedAmount: meta.CreditedAmount,
		FeeDeducted:    meta.FeeDeducted,
		VerifiedAt:     &now,
	}, nil
}

// SettleFromCallback handles the provider webhook. The customer phone
// number resolves the user; the latest pending payment for that phone is
// settled with the amount the provider reports.
func (s *Service) SettleFromCallback(ctx context.Context, dto *CallbackDTO) (*CallbackResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if gatewayDatamodel.NormalizeStatus(dto.Status) != gatewayDatamodel.TxStatusCompleted {
		s.logger.Info("ignoring non-successful callback",
			"status", dto.Status, "reference", dto.Reference)
		return nil, apperrors.NewBusinessError("transaction is not successful", apperrors.ErrCodeGatewayError)
	}

	usr, err := s.users.GetByPhone(dto.Customer.Phone)
	if err != nil {
		s.logger.Error("callback user lookup failed", "error", err, "phone", dto.Customer.Phone)
		return nil, apperrors.NewInternalError("failed to load user", err)
	}
	if usr == nil {
		return nil, apperrors.ErrUserNotFound
	}

	record, err := s.resolveCallbackPayment(dto, usr.ID)
	if err != nil {
		return nil, err
	}

	if !PaymentStatus(record.Status).IsTerminal() {
		if _, err := s.settle(ctx, record, dto.Amount, dto.TransactionID, dto.Reference, true); err != nil {
			return nil, err
		}
	}

	return s.callbackResponse(usr.ID)
}

func (s *Service) resolveCallbackPayment(dto *CallbackDTO, userID int64) (*paymentDatamodel.Payment, error) {
	if dto.OrderID != "" {
		record, err := s.repo.GetByOrderID(dto.OrderID)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to load payment", err)
		}
		if record == nil || record.UserID != userID {
			return nil, apperrors.ErrPaymentNotFound
		}
		return record, nil
	}

	record, err := s.repo.LatestPendingByPhone(dto.Customer.Phone)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load payment", err)
	}
	if record == nil {
		return nil, apperrors.ErrPaymentNotFound
	}
	return record, nil
}

func (s *Service) callbackResponse(userID int64) (*CallbackResponse, error) {
	usr, err := s.users.GetByID(userID)
	if err != nil || usr == nil {
		return nil, apperrors.NewInternalError("failed to reload user", err)
	}

	resp := &CallbackResponse{
		Success: true,
		User: CallbackUser{
			ID:               usr.ID,
			Email:            usr.Email,
			Phone:            usr.Phone,
			FirstName:        usr.FirstName,
			LastName:         usr.LastName,
			RegistrationPaid: usr.RegistrationPaid,
		},
	}

	account, err := s.wallets.FirstAccountOf(userID)
	if err != nil {
		s.logger.Error("callback account lookup failed", "error", err, "user_id", userID)
		return resp, nil
	}
	if account != nil {
		resp.User.Accounts = []CallbackAccount{{
			AccountNumber:      account.AccountNumber,
			Balance:            account.Balance,
			TotalContributions: account.TotalContributions,
			Rewards:            account.Rewards,
			ReferralEarnings:   account.ReferralEarnings,
		}}
	}
	return resp, nil
}

// GetPayment returns a payment scoped to its owner.
func (s *Service) GetPayment(orderID string, userID int64) (*Payment, error) {
	record, err := s.repo.GetByOrderIDAndUser(orderID, userID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load payment", err)
	}
	if record == nil {
		return nil, apperrors.ErrPaymentNotFound
	}
	return FromDataModel(record), nil
}

// ReconcilePending sweeps payments that have been PENDING longer than maxAge
// and retries verification for each. Payments the provider still reports as
// pending are left alone; settled and failed ones converge to their terminal
// status. Returns how many payments settled successfully this pass.
func (s *Service) ReconcilePending(ctx context.Context, maxAge time.Duration, limit int) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	stale, err := s.repo.ListStalePending(cutoff, limit)
	if err != nil {
		return 0, apperrors.NewInternalError("failed to list pending payments", err)
	}

	settled := 0
	for _, record := range stale {
		if ctx.Err() != nil {
			return settled, ctx.Err()
		}

		result, err := s.verifyAndSettle(ctx, record.OrderID, record.UserID, true)
		if err != nil {
			s.logger.Debug("reconcile: payment not yet settleable",
				"order_id", record.OrderID, "error", err)
			continue
		}
		if result.Status.IsTerminal() {
			settled++
			s.logger.Info("reconcile: payment reached terminal status",
				"order_id", record.OrderID, "status", result.Status)
		}
	}

	return settled, nil
}

func (s *Service) gatewayError(err error) error {
	if err == paymentgateway.ErrNotConfigured {
		return apperrors.NewBusinessError("payment gateway is not configured", apperrors.ErrCodeGatewayNotConfigured)
	}
	if gwErr, ok := err.(*gatewayDatamodel.GatewayError); ok {
		return apperrors.NewGatewayError(gwErr.Reason, gwErr)
	}
	return apperrors.NewGatewayError("payment verification failed", err)
}

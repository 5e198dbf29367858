package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"storefront/internal/models"
	"storefront/internal/repositories"
)

const EventWalletFunded = "wallet.funded"

// WalletSummary is the wallet balance together with its ledger.
type WalletSummary struct {
	Balance      decimal.Decimal      `json:"balance"`
	BaseCurrency string               `json:"base_currency"`
	Currency     string               `json:"currency"`
	Display      string               `json:"display"`
	Transactions []models.Transaction `json:"transactions"`
}

// WalletService manages wallet balances.
type WalletService struct {
	deps   Deps
	bridge PaymentBridge
}

// NewWalletService creates a new WalletService.
func NewWalletService(deps Deps, bridge PaymentBridge) *WalletService {
	return &WalletService{deps: deps, bridge: bridge}
}

// Summary returns the actor's balance, formatted in the preferred currency.
func (s *WalletService) Summary(ctx context.Context, actor models.Actor) (*WalletSummary, error) {
	repos := s.deps.Store.Repositories()
	profile, err := repos.Profiles.GetByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, notFound(err, ErrProfileNotFound, actor.UserID)
	}
	txns, err := repos.Transactions.ListByUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	code := s.deps.preferredCurrency(ctx, repos, actor.UserID)
	return &WalletSummary{
		Balance:      profile.WalletBalance,
		BaseCurrency: s.deps.Formatter.Base(),
		Currency:     code,
		Display:      s.deps.Formatter.FormatFromBase(profile.WalletBalance, code),
		Transactions: txns,
	}, nil
}

// Fund credits the wallet with a successful payment session. Each payment
// reference funds a wallet at most once.
func (s *WalletService) Fund(ctx context.Context, actor models.Actor, reference string) (*models.Transaction, error) {
	session, err := settledSession(ctx, s.bridge, actor, reference, PurposeWalletFunding)
	if err != nil {
		return nil, err
	}
	amount, err := s.deps.Formatter.ConvertToBase(session.Amount, session.Currency)
	if err != nil {
		return nil, err
	}
	amount = amount.Round(2)

	var (
		txn  *models.Transaction
		note *models.Notification
	)
	err = s.deps.Store.Transaction(ctx, func(repos repositories.Repositories) error {
		used, err := repos.Transactions.ExistsByReference(ctx, reference, models.TransactionCredit)
		if err != nil {
			return err
		}
		if used {
			return fmt.Errorf("%w: %s", ErrPaymentAlreadyUsed, reference)
		}
		if err := repos.Profiles.AdjustWalletBalance(ctx, actor.UserID, amount); err != nil {
			return err
		}
		txn = &models.Transaction{
			UserID:      actor.UserID,
			Type:        models.TransactionCredit,
			Amount:      amount,
			Description: "Wallet funding",
			Reference:   reference,
		}
		if err := repos.Transactions.Create(ctx, txn); err != nil {
			if repositories.IsUniqueViolation(err) {
				return fmt.Errorf("%w: %s", ErrPaymentAlreadyUsed, reference)
			}
			return err
		}
		note, err = notify(ctx, repos, actor.UserID, models.NotificationWallet, "Wallet Funded",
			fmt.Sprintf("Your wallet has been credited with %s.", s.deps.Formatter.Format(session.Amount, session.Currency)))
		return err
	})
	if err != nil {
		return nil, err
	}

	s.deps.Logger.Info().Str("user_id", actor.UserID).Str("reference", reference).
		Str("amount", amount.String()).Msg("wallet funded")
	s.deps.publish(EventWalletFunded, txn)
	s.deps.publishNotification(note)
	return txn, nil
}

package download

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/shop-backend/internal/ledger"
)

// TokenTTL is the fixed expiry policy for download credentials.
const TokenTTL = 7 * 24 * time.Hour

var (
	ErrTokenNotFound = errors.New("download: token not found")
	ErrTokenUsed     = errors.New("download: token already used")
	ErrTokenExpired  = errors.New("download: token expired")
)

// Token is a one-time, time-limited credential for a digital file, persisted
// in the Download_Links tab. Tokens are never deleted; redemption flips Used.
type Token struct {
	Token         string
	Email         string
	ProductID     int
	InvoiceNumber string
	Created       time.Time
	Expiry        time.Time
	Used          bool

	// RowID locates the backing ledger row for the redemption flip.
	RowID int
}

type Service interface {
	Issue(ctx context.Context, email string, productID int, invoiceNumber string) (*Token, error)
	Validate(ctx context.Context, token string) (*Token, error)
	Redeem(ctx context.Context, tok *Token, ipAddress string) error
}

type service struct {
	store ledger.Store
	now   func() time.Time
}

func NewService(store ledger.Store) Service {
	return &service{store: store, now: time.Now}
}

// NewServiceWithClock is used by tests to control expiry.
func NewServiceWithClock(store ledger.Store, now func() time.Time) Service {
	return &service{store: store, now: now}
}

// Issue persists a fresh unused token bound to one digital product line. A
// bundle order gets one call per digital line.
func (s *service) Issue(ctx context.Context, email string, productID int, invoiceNumber string) (*Token, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("download: failed to generate token: %w", err)
	}

	created := s.now().UTC()
	tok := &Token{
		Token:         id.String(),
		Email:         email,
		ProductID:     productID,
		InvoiceNumber: invoiceNumber,
		Created:       created,
		Expiry:        created.Add(TokenTTL),
	}

	fields := map[string]string{
		ledger.FieldToken:         tok.Token,
		ledger.FieldCustomerEmail: tok.Email,
		ledger.FieldProductID:     strconv.Itoa(tok.ProductID),
		ledger.FieldInvoiceNumber: tok.InvoiceNumber,
		ledger.FieldTokenCreated:  tok.Created.Format(time.RFC3339),
		ledger.FieldTokenExpiry:   tok.Expiry.Format(time.RFC3339),
		ledger.FieldTokenUsed:     "false",
		ledger.FieldIPAddress:     "",
		ledger.FieldDownloadDate:  "",
	}
	if err := s.store.Append(ctx, ledger.TabDownloadLinks, fields); err != nil {
		return nil, fmt.Errorf("download: failed to persist token: %w", err)
	}

	log.Info().Str("invoice_number", invoiceNumber).Int("product_id", productID).
		Msg("download: token issued")
	return tok, nil
}

// Validate looks the token up and checks its terminal states. Expiry wins
// over the used flag so a stale token always reads as expired.
func (s *service) Validate(ctx context.Context, token string) (*Token, error) {
	row, err := s.store.Find(ctx, ledger.TabDownloadLinks, ledger.FieldToken, token)
	if err != nil {
		if errors.Is(err, ledger.ErrRowNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("download: failed to look up token: %w", err)
	}

	tok, err := tokenFromRow(row)
	if err != nil {
		return nil, err
	}
	if s.now().UTC().After(tok.Expiry) {
		return nil, ErrTokenExpired
	}
	if tok.Used {
		return nil, ErrTokenUsed
	}
	return tok, nil
}

// Redeem flips the used flag false -> true with a conditional update; losing
// that race reads as already used. Audit fields are written best-effort
// after the flip.
func (s *service) Redeem(ctx context.Context, tok *Token, ipAddress string) error {
	ok, err := s.store.UpdateIf(ctx, ledger.TabDownloadLinks, tok.RowID, ledger.FieldTokenUsed, "false", "true")
	if err != nil {
		return fmt.Errorf("download: failed to redeem token: %w", err)
	}
	if !ok {
		return ErrTokenUsed
	}
	tok.Used = true

	if err := s.store.Update(ctx, ledger.TabDownloadLinks, tok.RowID, ledger.FieldIPAddress, ipAddress); err != nil {
		log.Warn().Err(err).Str("token", tok.Token).Msg("download: failed to record redemption ip")
	}
	downloadDate := s.now().UTC().Format(time.RFC3339)
	if err := s.store.Update(ctx, ledger.TabDownloadLinks, tok.RowID, ledger.FieldDownloadDate, downloadDate); err != nil {
		log.Warn().Err(err).Str("token", tok.Token).Msg("download: failed to record redemption date")
	}

	log.Info().Str("invoice_number", tok.InvoiceNumber).Int("product_id", tok.ProductID).
		Msg("download: token redeemed")
	return nil
}

func tokenFromRow(row *ledger.Row) (*Token, error) {
	productID, err := strconv.Atoi(row.Get(ledger.FieldProductID))
	if err != nil {
		return nil, fmt.Errorf("download: bad product id in token row %d: %w", row.ID, err)
	}
	created, err := time.Parse(time.RFC3339, row.Get(ledger.FieldTokenCreated))
	if err != nil {
		return nil, fmt.Errorf("download: bad created timestamp in token row %d: %w", row.ID, err)
	}
	expiry, err := time.Parse(time.RFC3339, row.Get(ledger.FieldTokenExpiry))
	if err != nil {
		return nil, fmt.Errorf("download: bad expiry timestamp in token row %d: %w", row.ID, err)
	}

	return &Token{
		Token:         row.Get(ledger.FieldToken),
		Email:         row.Get(ledger.FieldCustomerEmail),
		ProductID:     productID,
		InvoiceNumber: row.Get(ledger.FieldInvoiceNumber),
		Created:       created,
		Expiry:        expiry,
		Used:          row.Get(ledger.FieldTokenUsed) == "true",
		RowID:         row.ID,
	}, nil
}

package billing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rental-service/internal/apperr"
	"rental-service/internal/model"
)

func TestNormalizeCurrency(t *testing.T) {
	assert.Equal(t, "USD", NormalizeCurrency(" usd "))
	assert.Equal(t, "EUR", NormalizeCurrency("eur"))
	assert.Equal(t, "EGP", NormalizeCurrency("EGP"))
}

func TestValidateCurrency(t *testing.T) {
	assert.NoError(t, ValidateCurrency("USD"))
	assert.NoError(t, ValidateCurrency("egp"))
	assert.ErrorIs(t, ValidateCurrency("XX"), apperr.ErrUnsupportedCurrency)
	assert.ErrorIs(t, ValidateCurrency(""), apperr.ErrUnsupportedCurrency)
	// No silent fallback for plausible-looking but unknown codes.
	assert.ErrorIs(t, ValidateCurrency("BTC"), apperr.ErrUnsupportedCurrency)
}

func TestSupportedCurrenciesCoversDomain(t *testing.T) {
	codes := SupportedCurrencies()
	assert.Len(t, codes, len(supportedCurrencies))
	for _, code := range codes {
		assert.NoError(t, ValidateCurrency(code))
	}
}

func TestUpdateCurrency(t *testing.T) {
	f := newFixture(t)
	svc := NewCompanyService(f.db, nopAudit{})
	ctx := context.Background()

	company, err := svc.UpdateCurrency(ctx, f.scope, "egp")
	require.NoError(t, err)
	assert.Equal(t, "EGP", company.Currency)

	reloaded, err := svc.Get(ctx, f.scope)
	require.NoError(t, err)
	assert.Equal(t, "EGP", reloaded.Currency)
}

func TestUpdateCurrencyRejectsUnknownCode(t *testing.T) {
	f := newFixture(t)
	svc := NewCompanyService(f.db, nopAudit{})

	_, err := svc.UpdateCurrency(context.Background(), f.scope, "DOGE")
	assert.ErrorIs(t, err, apperr.ErrUnsupportedCurrency)

	// The stored currency stays untouched.
	reloaded, err := svc.Get(context.Background(), f.scope)
	require.NoError(t, err)
	assert.Equal(t, "USD", reloaded.Currency)
}

func TestUpdateCurrencyBlockedWhenInactive(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Model(&model.Company{}).
		Where("id = ?", f.company.ID).
		Update("is_active", false).Error)
	svc := NewCompanyService(f.db, nopAudit{})

	_, err := svc.UpdateCurrency(context.Background(), f.scope, "EUR")
	assert.ErrorIs(t, err, apperr.ErrCompanyInactive)
}

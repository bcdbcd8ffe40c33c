package tenancy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rental-service/internal/apperr"
	"rental-service/pkg/jwtutil"
)

func TestFromClaims(t *testing.T) {
	companyID := uint(7)
	scope, err := FromClaims(&jwtutil.UserClaims{UserID: 42, CompanyID: &companyID})
	require.NoError(t, err)
	assert.Equal(t, uint(7), scope.CompanyID)
	assert.Equal(t, uint(42), scope.ActorID)
}

func TestFromClaimsWithoutCompany(t *testing.T) {
	_, err := FromClaims(&jwtutil.UserClaims{UserID: 42})
	assert.ErrorIs(t, err, apperr.ErrCrossTenantAccess)
}

func TestCheckOwned(t *testing.T) {
	scope := Context{CompanyID: 7}

	assert.NoError(t, CheckOwned(scope, 7, "invoice", 1))

	err := CheckOwned(scope, 9, "invoice", 1)
	assert.ErrorIs(t, err, apperr.ErrCrossTenantAccess)
	assert.Contains(t, err.Error(), "invoice 1")
}

// Package tenancy is the company-scoping boundary. Every core operation
// takes an explicit Context and every query goes through Scoped, which
// adds the company predicate on top of gorm's default soft-delete filter.
package tenancy

import (
	"fmt"

	"gorm.io/gorm"

	"rental-service/internal/apperr"
	"rental-service/pkg/jwtutil"
)

// Context carries the tenancy scope of a single request. It is threaded
// as an explicit parameter, never stored in a global.
type Context struct {
	CompanyID uint
	ActorID   uint
}

// FromClaims derives a tenancy context from validated JWT claims
func FromClaims(claims *jwtutil.UserClaims) (Context, error) {
	if claims.CompanyID == nil {
		return Context{}, fmt.Errorf("%w: token carries no company scope", apperr.ErrCrossTenantAccess)
	}
	return Context{CompanyID: *claims.CompanyID, ActorID: claims.UserID}, nil
}

// Scoped returns a query filtered to the context's company. Soft-deleted
// rows are already excluded by gorm's DeletedAt handling.
func Scoped(db *gorm.DB, scope Context) *gorm.DB {
	return db.Where("company_id = ?", scope.CompanyID)
}

// ScopedUnscoped returns a query filtered to the company but including
// soft-deleted rows, for callers that explicitly request them.
func ScopedUnscoped(db *gorm.DB, scope Context) *gorm.DB {
	return db.Unscoped().Where("company_id = ?", scope.CompanyID)
}

// CheckOwned verifies a loaded entity belongs to the context's company.
// Re-applied at every entity boundary, not just the outermost lookup:
// a client-supplied opaque ID is never trusted to be in scope.
func CheckOwned(scope Context, entityCompanyID uint, entity string, entityID uint) error {
	if entityCompanyID != scope.CompanyID {
		return fmt.Errorf("%w: %s %d", apperr.ErrCrossTenantAccess, entity, entityID)
	}
	return nil
}

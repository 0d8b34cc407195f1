package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwalitptl/solar-lifecycle-api/internal/model"
)

func (r *customerRepository) GetContact(ctx context.Context, orgID, customerID uuid.UUID) (*model.CustomerContact, error) {
	query := `SELECT id, organization_id, email, display_name FROM customers WHERE organization_id = $1 AND id = $2`

	var contact model.CustomerContact
	if err := r.db.GetContext(ctx, &contact, query, orgID, customerID); err != nil {
		return nil, notFoundOr(err, "customer", "get customer contact")
	}
	return &contact, nil
}

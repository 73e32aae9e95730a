package cart

import (
	"net/http"

	"github.com/google/uuid"

	cartdto "github.com/angelmondragon/marketplace-engine/api/controllers/cart/dto"
	"github.com/angelmondragon/marketplace-engine/api/validators"
	pkgerrors "github.com/angelmondragon/marketplace-engine/pkg/errors"
)

type lineKey struct {
	productID uuid.UUID
	variantID uuid.UUID
}

func parseItemRequest(payload cartdto.ItemRequest) (lineKey, error) {
	productID, err := uuid.Parse(payload.ProductID)
	if err != nil {
		return lineKey{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product_id")
	}
	variantID, err := validators.OptionalUUID("variant_id", payload.VariantID)
	if err != nil {
		return lineKey{}, err
	}
	key := lineKey{productID: productID}
	if variantID != nil {
		key.variantID = *variantID
	}
	return key, nil
}

// parseLineQuery reads the line identity from the query string of a DELETE.
func parseLineQuery(r *http.Request) (lineKey, error) {
	productID, err := validators.ParseQueryUUID(r, "product_id")
	if err != nil {
		return lineKey{}, err
	}
	variant := r.URL.Query().Get("variant_id")
	variantID, err := validators.OptionalUUID("variant_id", &variant)
	if err != nil {
		return lineKey{}, err
	}
	key := lineKey{productID: productID}
	if variantID != nil {
		key.variantID = *variantID
	}
	return key, nil
}

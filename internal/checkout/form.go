package checkout

import "github.com/gearup/storefront/internal/models"

type Form struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	Country    string `json:"country"`
	PostalCode string `json:"postalCode"`
	Notes      string `json:"shippingNotes"`
}

// Validate names every empty required field. Notes are optional.
func (f Form) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"firstName", f.FirstName},
		{"lastName", f.LastName},
		{"email", f.Email},
		{"phone", f.Phone},
		{"address", f.Address},
		{"city", f.City},
		{"country", f.Country},
		{"postalCode", f.PostalCode},
	}

	var missing []string
	for _, field := range required {
		if blank(field.value) {
			missing = append(missing, field.name)
		}
	}
	if len(missing) > 0 {
		return models.NewValidationError("required fields missing", missing...)
	}
	return nil
}

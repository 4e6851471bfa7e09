package validator

import "histotrek/internal/domain"

type placeForm struct {
	Name        string `json:"name" validate:"notblank"`
	Country     string `json:"country" validate:"notblank"`
	Era         string `json:"era" validate:"notblank"`
	Description string `json:"description" validate:"notblank"`
	ImageURL    string `json:"imageUrl" validate:"notblank,http_url"`
}

type PlaceValidator struct{}

func NewPlaceValidator() *PlaceValidator {
	return &PlaceValidator{}
}

func (v *PlaceValidator) Validate(place *domain.Place) (Errors, error) {
	return check(placeForm{
		Name:        place.Name,
		Country:     place.Country,
		Era:         place.Era,
		Description: place.Description,
		ImageURL:    place.ImageURL,
	})
}

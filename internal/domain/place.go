package domain

import "context"

type Place struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Country     string `json:"country"`
	Era         string `json:"era"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

// PlaceFilter narrows a catalog search. Empty fields match everything.
type PlaceFilter struct {
	Query   string `json:"query,omitempty"`
	Country string `json:"country,omitempty"`
	Era     string `json:"era,omitempty"`
}

func (f PlaceFilter) IsEmpty() bool {
	return f.Query == "" && f.Country == "" && f.Era == ""
}

type PlaceRepository interface {
	FindByID(ctx context.Context, id int64) (*Place, error)
	FindAll(ctx context.Context) ([]*Place, error)
	Search(ctx context.Context, filter PlaceFilter) ([]*Place, error)
	Create(ctx context.Context, place *Place) error
	Update(ctx context.Context, place *Place) error
	Delete(ctx context.Context, id int64) error
}

type PlaceService interface {
	List(ctx context.Context) ([]*Place, error)
	Search(ctx context.Context, filter PlaceFilter) ([]*Place, error)
	Get(ctx context.Context, id int64) (*Place, error)
	Create(ctx context.Context, place *Place) (map[string]string, error)
	Update(ctx context.Context, place *Place) (map[string]string, error)
	Delete(ctx context.Context, id int64) error
}

package transport

// SearchVehiclesRequest binds the query-string filters for listing search.
// Geo filtering activates only when lat, lng and radius are all present.
type SearchVehiclesRequest struct {
	Query     string   `form:"q" validate:"omitempty,max=200"`
	Type      string   `form:"type" validate:"omitempty,max=50"`
	MinPrice  *float64 `form:"minPrice" validate:"omitempty,gte=0"`
	MaxPrice  *float64 `form:"maxPrice" validate:"omitempty,gte=0"`
	StartDate string   `form:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string   `form:"endDate" validate:"omitempty,datetime=2006-01-02"`
	Latitude  *float64 `form:"lat" validate:"omitempty,latitude"`
	Longitude *float64 `form:"lng" validate:"omitempty,longitude"`
	RadiusKm  *float64 `form:"radius" validate:"omitempty,gt=0,lte=1000"`
	Page      int      `form:"page" validate:"omitempty,gte=1"`
	Limit     int      `form:"limit" validate:"omitempty,gte=1,lte=100"`
}

type ImagePayload struct {
	Data        string `json:"data" validate:"required"`
	ContentType string `json:"contentType" validate:"omitempty,max=100"`
}

type LocationPayload struct {
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
}

type CreateVehicleRequest struct {
	Title        string           `json:"title" validate:"required,min=1,max=200"`
	Type         string           `json:"type" validate:"required,max=50"`
	Price        float64          `json:"price" validate:"required,gt=0"`
	Description  string           `json:"description" validate:"omitempty,max=5000"`
	Location     *LocationPayload `json:"location,omitempty"`
	Features     []string         `json:"features" validate:"omitempty,max=50,dive,min=1,max=100"`
	Images       []ImagePayload   `json:"images" validate:"omitempty,max=5,dive"`
	PrimaryIndex int              `json:"primaryIndex" validate:"omitempty,gte=0"`
}

type UpdateVehicleRequest struct {
	Title        *string          `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Type         *string          `json:"type,omitempty" validate:"omitempty,max=50"`
	Price        *float64         `json:"price,omitempty" validate:"omitempty,gt=0"`
	Description  *string          `json:"description,omitempty" validate:"omitempty,max=5000"`
	Location     *LocationPayload `json:"location,omitempty"`
	Features     []string         `json:"features,omitempty" validate:"omitempty,max=50,dive,min=1,max=100"`
	Images       []ImagePayload   `json:"images,omitempty" validate:"omitempty,max=5,dive"`
	PrimaryIndex int              `json:"primaryIndex" validate:"omitempty,gte=0"`
}

// ReplaceImagesRequest swaps out a listing's entire image set.
type ReplaceImagesRequest struct {
	Images       []ImagePayload `json:"images" validate:"required,min=1,max=5,dive"`
	PrimaryIndex int            `json:"primaryIndex" validate:"omitempty,gte=0"`
}

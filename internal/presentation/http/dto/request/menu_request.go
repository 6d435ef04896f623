package request

// MenuRequest creates a menu item or, with only some fields set, updates one.
type MenuRequest struct {
	Name     *string `json:"name" binding:"omitempty,max=255"`
	Price    *int64  `json:"price"`
	Stock    *int64  `json:"stock"`
	ImageURL *string `json:"image_url" binding:"omitempty,max=2048"`
}

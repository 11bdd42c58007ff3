package request

// ByIDRequest is a common struct for endpoints that take an ID path parameter.
type ByIDRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// ByTokenRequest binds a capability token path parameter.
type ByTokenRequest struct {
	Token string `uri:"token" binding:"required,uuid"`
}

// ListParams holds common pagination parameters for list endpoints.
type ListParams struct {
	Page     int `form:"page,default=1" binding:"omitempty,min=1"`
	PageSize int `form:"page_size,default=20" binding:"omitempty,min=1,max=100"`
}

package dto

// CreateReservedKeyRequest 登记保留短键的请求参数
type CreateReservedKeyRequest struct {
	ShortKey string `json:"shortKey" binding:"required,alphanum,max=10" msg:"shortKey must be 1-10 alphanumeric characters"`
}

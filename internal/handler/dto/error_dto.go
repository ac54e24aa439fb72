package dto

type APIErrorResponse struct {
	IsValid bool   `json:"isValid"`
	Code    string `json:"code"`
	Message string `json:"error"`
}

type MethodNotAllowedResponse struct {
	Message string `json:"error"`
}

package dto

type APIErrorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// TenantErrorResponse is the tenant-resolution failure payload.
// Subdomain is set whenever the request actually claimed one, so
// callers can see which slug failed to resolve.
type TenantErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Code      string `json:"code"`
	Subdomain string `json:"subdomain,omitempty"`
}

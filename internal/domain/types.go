package domain

// RequestContext carries the authenticated caller attached by the auth middleware.
type RequestContext struct {
	UserID int64  `json:"userId"`
	Role   string `json:"role"`
	Phone  string `json:"phone,omitempty"`
}

const (
	RoleRider  = "rider"
	RoleDriver = "driver"
	RoleAdmin  = "admin"
)

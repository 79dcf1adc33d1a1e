package entity

import "time"

// SecurityPolicy lists which check-in steps a site requires. It is never mutated by the workflow.
type SecurityPolicy struct {
	RequirePhoto          bool `json:"requirePhoto"`
	EnableOtpVerification bool `json:"enableOtpVerification"`
	RequireNDA            bool `json:"requireNDA"`
	HostApproval          bool `json:"hostApproval"`
	GuardApproval         bool `json:"guardApproval"`
}

// DefaultSecurityPolicy is applied when a site has no stored settings or they cannot be read
func DefaultSecurityPolicy() SecurityPolicy {
	return SecurityPolicy{
		RequirePhoto:  true,
		GuardApproval: true,
	}
}

// SiteSettings is the stored policy of one site
type SiteSettings struct {
	SiteID    string         `json:"siteId"`
	Policy    SecurityPolicy `json:"policy"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

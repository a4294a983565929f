package domain

const (
	AuthorizationHeader = "Authorization"
	BearerPrefix        = "Bearer "
)

const (
	RoleOwner  = "OWNER"
	RoleTenant = "TENANT"
	RoleAdmin  = "ADMIN"
)

// ClaimPolicy selects how token claims are mapped to a Principal.
type ClaimPolicy int

const (
	// PolicyStrict reads sub|wallet, id and a single role claim.
	PolicyStrict ClaimPolicy = iota
	// PolicyLenient reads sub|walletAddress, userId and a roles claim that
	// may be a comma-separated string or an array.
	PolicyLenient
)

func ParseClaimPolicy(s string) (ClaimPolicy, bool) {
	switch s {
	case "", "strict":
		return PolicyStrict, true
	case "lenient":
		return PolicyLenient, true
	default:
		return PolicyStrict, false
	}
}

func (p ClaimPolicy) String() string {
	switch p {
	case PolicyStrict:
		return "strict"
	case PolicyLenient:
		return "lenient"
	default:
		return "Error"
	}
}

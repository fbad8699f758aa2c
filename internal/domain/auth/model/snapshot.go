package model

// Snapshot is a read-only view of the session state. Authenticated implies
// User != nil and a server-validated (or refreshed) credential within this
// process lifetime.
type Snapshot struct {
	User          *User
	Authenticated bool
	Loading       bool
}

func (s Snapshot) hasRole(r Role) bool {
	return s.User != nil && s.User.Role == r
}

func (s Snapshot) IsEntrepreneur() bool { return s.hasRole(RoleEntrepreneur) }
func (s Snapshot) IsStudent() bool      { return s.hasRole(RoleStudent) }
func (s Snapshot) IsInvestor() bool     { return s.hasRole(RoleInvestor) }

// Capability predicates; the sole basis for authorization gating.
func (s Snapshot) CanCreateStartups() bool { return s.IsEntrepreneur() }
func (s Snapshot) CanApplyToJobs() bool    { return s.IsStudent() }
func (s Snapshot) CanInvest() bool         { return s.IsInvestor() }

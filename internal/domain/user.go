package domain

// Role represents a user's role in the maker-checker workflow.
// The set is closed: adding a role means extending the capability table
// below, not scattering new string comparisons.
type Role string

const (
	RoleMaker   Role = "MAKER"
	RoleChecker Role = "CHECKER"
	RoleAdmin   Role = "ADMIN"
)

// Action identifies an operation subject to role-based authorization.
type Action string

const (
	ActionSubmitHolding Action = "SUBMIT_HOLDING"
	ActionReviewHolding Action = "REVIEW_HOLDING"
	ActionEditHolding   Action = "EDIT_HOLDING"
	ActionRemoveHolding Action = "REMOVE_HOLDING"
	ActionRecordPrice   Action = "RECORD_PRICE"
)

// capabilities maps each action to the roles allowed to perform it.
// Edit additionally requires ownership for makers; that check lives in
// the approval service because it depends on the record, not the role.
var capabilities = map[Action][]Role{
	ActionSubmitHolding: {RoleMaker, RoleChecker, RoleAdmin},
	ActionReviewHolding: {RoleChecker, RoleAdmin},
	ActionEditHolding:   {RoleMaker, RoleAdmin},
	ActionRemoveHolding: {RoleAdmin},
	ActionRecordPrice:   {RoleMaker, RoleChecker, RoleAdmin},
}

// Can reports whether the role is allowed to perform the action.
func (r Role) Can(action Action) bool {
	for _, allowed := range capabilities[action] {
		if r == allowed {
			return true
		}
	}
	return false
}

// ParseRole returns the Role for a stored role string, or false when the
// string names no known role.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleMaker, RoleChecker, RoleAdmin:
		return Role(s), true
	}
	return "", false
}

// User represents an account in the user directory.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	Role         Role
}

// Actor is the authenticated identity attached to each request.
type Actor struct {
	ID   string
	Role Role
}

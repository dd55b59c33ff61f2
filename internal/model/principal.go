package model

import "github.com/google/uuid"

type Principal struct {
	UserID uuid.UUID
	OrgID  uuid.UUID
	Role   string
}

func (p Principal) IsAdmin() bool {
	return p.Role == "ADMIN"
}

func (p Principal) IsOperator() bool {
	return p.Role == "OPERATOR"
}

func (p Principal) IsViewer() bool {
	return p.Role == "VIEWER"
}

// CanMutate reports whether the principal may change domain state.
func (p Principal) CanMutate() bool {
	return p.IsAdmin() || p.IsOperator()
}

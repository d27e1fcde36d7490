package auth

import "messease/internal/domain/users"

// Session identifies the authenticated console operator for one request.
type Session struct {
	AdminID   string
	Email     string
	Name      string
	Role      string
	SessionID string
}

// Creator is the denormalized author record stored on menus and polls.
func (s Session) Creator() users.Creator {
	name := s.Name
	if name == "" {
		name = s.Email
	}
	return users.Creator{Name: name, Role: s.Role, ID: s.AdminID}
}

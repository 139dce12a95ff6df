package models

// UserProfile is the minimal identity persisted next to the session token.
type UserProfile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned by a successful login.
// Older backends send the role as "perfil".
type LoginResponse struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role,omitempty"`
	Perfil string `json:"perfil,omitempty"`
	Token  string `json:"token"`
}

// Profile extracts the user profile carried by the response.
func (r LoginResponse) Profile() UserProfile {
	role := r.Role
	if role == "" {
		role = r.Perfil
	}
	return UserProfile{
		Name:  r.Name,
		Email: r.Email,
		Role:  role,
	}
}

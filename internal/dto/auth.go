package dto

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type UserSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type LoginResponse struct {
	Success bool        `json:"success"`
	User    UserSummary `json:"user"`
}

type CurrentUserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

package dto

type CreateEmployeeRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	IsAdmin  bool   `json:"is_admin"`
}

// UpdateEmployeeRequest leaves the stored hash untouched when Password is empty.
type UpdateEmployeeRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	IsAdmin  bool   `json:"is_admin"`
}

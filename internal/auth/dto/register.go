package dto

type RegisterInput struct {
	Login    string `json:"login" validate:"required,login"`
	Password string `json:"password" validate:"required,min=6,max=20"`
	Email    string `json:"email" validate:"required,email"`
}

type ConfirmCodeInput struct {
	Code string `json:"code" validate:"required"`
}

type EmailInput struct {
	Email string `json:"email" validate:"required,email"`
}

type NewPasswordInput struct {
	RecoveryCode string `json:"recoveryCode" validate:"required"`
	NewPassword  string `json:"newPassword" validate:"required,min=6,max=20"`
}

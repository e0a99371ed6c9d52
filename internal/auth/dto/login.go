package dto

type LoginInput struct {
	LoginOrEmail string `json:"loginOrEmail" validate:"required,login_or_email"`
	Password     string `json:"password" validate:"required,min=6,max=20"`
	IPAddress    string `json:"-"`
	UserAgent    string `json:"-"`
}

type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"-"`
	DeviceID     string `json:"-"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int    `json:"expiresIn"`
}

package dto

type RefreshInput struct {
	RefreshToken string
	IPAddress    string
	UserAgent    string
}

package dto

import "time"

type UserOutput struct {
	ID        string    `json:"id"`
	Login     string    `json:"login"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type MeOutput struct {
	Email  string `json:"email"`
	Login  string `json:"login"`
	UserID string `json:"userId"`
}

type DeviceSessionOutput struct {
	IP             string    `json:"ip"`
	Title          string    `json:"title"`
	LastActiveDate time.Time `json:"lastActiveDate"`
	DeviceID       string    `json:"deviceId"`
}

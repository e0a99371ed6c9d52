package domain

import "time"

type Attempt struct {
	IPAddress string
	Route     string
	CreatedAt time.Time
}

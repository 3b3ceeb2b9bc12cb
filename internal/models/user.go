package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID             uuid.UUID `json:"id"`
	DisplayName    string    `json:"displayName"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`
	Quartier       string    `json:"quartier"`
	IsPremium      bool      `json:"isPremium"`
	IsAdmin        bool      `json:"isAdmin"`
	IsActive       bool      `json:"isActive"`
	IsBlocked      bool      `json:"isBlocked"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Quartiers is the fixed catalog of districts a user, post or alert
// can belong to.
var Quartiers = []string{
	"1200 logements",
	"Kamsonghin",
	"Ouaga 2000",
	"Zogona",
	"Cissin",
	"Dassasgho",
	"Gounghin",
	"Koulouba",
	"Patte d'Oie",
	"Secteur 15",
	"Dag Noen",
	"Kalgondin",
}

func IsValidQuartier(name string) bool {
	for _, q := range Quartiers {
		if q == name {
			return true
		}
	}
	return false
}

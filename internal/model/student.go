package model

type Student struct {
	NetID       string `json:"NetId"`
	Name        string `json:"Name"`
	Email       string `json:"Email"`
	PhoneNumber string `json:"PhoneNumber"`
}

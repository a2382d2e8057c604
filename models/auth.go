package models

import (
	"github.com/thedevsaddam/govalidator"
)

type LoginOpts struct {
	Password string `json:"password" schema:"password"`
}

var LoginRules = govalidator.MapData{
	"password": []string{"required"},
}

// InfoAdmin is the decoded admin token payload.
type InfoAdmin struct {
	Subject  string
	IsAdmin  bool
	IssuedAt int64
}

type LoginResponse struct {
	Token string `json:"token"`
}

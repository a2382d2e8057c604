package models

import (
	"time"

	"bitbucket.org/parqueoasis/tambola/tambola"
	"github.com/thedevsaddam/govalidator"
)

type Player struct {
	ID        int            `json:"id" db:"id"`
	Name      string         `json:"name" db:"name"`
	DeviceID  string         `json:"device_id" db:"device_id"`
	Code      string         `json:"code" db:"code"`
	Email     string         `json:"email,omitempty" db:"email"`
	Ticket    tambola.Ticket `json:"ticket" db:"ticket_data"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
}

type RegisterPlayerOpts struct {
	Name  string `json:"name" schema:"name"`
	Email string `json:"email" schema:"email"`
}

var RegisterPlayerRules = govalidator.MapData{
	"name":  []string{"required", "not_blank", "max:50"},
	"email": []string{"email"},
}

var RegisterPlayerMessages = govalidator.MapData{
	"name": []string{"required:Please enter your name", "not_blank:Please enter your name", "max:Name must be at most 50 characters"},
}

type InsertPlayerOpts struct {
	Name     string
	Email    string
	DeviceID string
	Code     string
	Ticket   tambola.Ticket
}

type GetPlayersOpts struct {
	Name      string `schema:"name"`
	LimitFrom int    `schema:"limit_from"`
	LimitTo   int    `schema:"limit_to"`
}

var GetPlayersRules = govalidator.MapData{
	"name":       []string{"max:50"},
	"limit_from": []string{"numeric"},
	"limit_to":   []string{"numeric", "numeric_between:1,500"},
}

type PlayersStruct struct {
	Players []Player `json:"players"`
	Total   int      `json:"total"`
}

// PlayerTicketHTML feeds the ticket page, PDF and mail templates.
type PlayerTicketHTML struct {
	AppName string
	Player  *Player
}

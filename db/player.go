package db

import (
	"database/sql"
	"strings"
	"time"

	"bitbucket.org/parqueoasis/tambola/models"
	"github.com/pkg/errors"
)

// ErrDeviceRegistered is returned when a device already owns a ticket.
var ErrDeviceRegistered = errors.New("device already registered")

const defaultLimit = 50

type PlayerStorage interface {
	InsertPlayer(*models.InsertPlayerOpts) (*models.Player, error)
	GetPlayerByDeviceID(deviceID string) (*models.Player, error)
	GetPlayerByCode(code string) (*models.Player, error)
	GetPlayers(*models.GetPlayersOpts) (*models.PlayersStruct, error)
	CountPlayers() (int, error)
}

const (
	insertPlayer = `
	INSERT INTO
		players (name, device_id, code, email, ticket_data, created_at)
	VALUES
		(:name, :device_id, :code, :email, :ticket_data, :created_at)
	`

	selectPlayer = `
	SELECT
		players.id,
		players.name,
		players.device_id,
		players.code,
		players.email,
		players.ticket_data,
		players.created_at
	FROM
		players
	`

	getPlayerByDeviceID = selectPlayer + `
	WHERE
		players.device_id = ?
	`

	getPlayerByCode = selectPlayer + `
	WHERE
		players.code = ?
	`

	getPlayers = selectPlayer + `
	WHERE
		1 = 1
		#FILTERS#
	ORDER BY
		players.created_at DESC,
		players.id DESC
	LIMIT :limit_to OFFSET :limit_from
	`

	countPlayers = `
	SELECT
		COUNT(players.id)
	FROM
		players
	WHERE
		1 = 1
		#FILTERS#
	`
)

func (db *DB) InsertPlayer(opts *models.InsertPlayerOpts) (*models.Player, error) {
	player, err := db.insertPlayer(opts)
	if err != nil && errors.Cause(err) != ErrDeviceRegistered {
		// a concurrent registration of the same device wins the unique index
		if existing, lookupErr := db.GetPlayerByDeviceID(opts.DeviceID); lookupErr == nil && existing != nil {
			return nil, ErrDeviceRegistered
		}
	}
	return player, err
}

func (db *DB) insertPlayer(opts *models.InsertPlayerOpts) (player *models.Player, err error) {
	tx, err := db.NewTx()
	if err != nil {
		return nil, errors.Wrap(err, "failed to start transaction")
	}

	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}

		err = tx.Commit()
	}()

	existing, err := getPlayer(tx, getPlayerByDeviceID, opts.DeviceID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDeviceRegistered
	}

	player, err = db.insertPlayerTx(tx, opts)
	if err != nil {
		return nil, err
	}

	return player, nil
}

func (db *DB) insertPlayerTx(tx Tx, opts *models.InsertPlayerOpts) (*models.Player, error) {
	stmt, err := tx.PrepareNamed(insertPlayer)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	player := models.Player{
		Name:      opts.Name,
		DeviceID:  opts.DeviceID,
		Code:      opts.Code,
		Email:     opts.Email,
		Ticket:    opts.Ticket,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}

	args := map[string]interface{}{
		"name":        player.Name,
		"device_id":   player.DeviceID,
		"code":        player.Code,
		"email":       player.Email,
		"ticket_data": player.Ticket,
		"created_at":  player.CreatedAt,
	}

	result, err := stmt.Exec(args)
	if err != nil {
		return nil, errors.Wrap(err, "failed inserting player")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}

	if rowsAffected != 1 {
		return nil, errors.Errorf("expected %d and inserted %d rows", 1, rowsAffected)
	}

	// postgres does not report LastInsertId
	inserted, err := getPlayer(tx, getPlayerByDeviceID, opts.DeviceID)
	if err != nil {
		return nil, err
	}
	if inserted == nil {
		return nil, errors.New("inserted player not found")
	}
	player.ID = inserted.ID

	return &player, nil
}

func (db *DB) GetPlayerByDeviceID(deviceID string) (*models.Player, error) {
	return getPlayer(db, getPlayerByDeviceID, deviceID)
}

func (db *DB) GetPlayerByCode(code string) (*models.Player, error) {
	return getPlayer(db, getPlayerByCode, code)
}

func getPlayer(c conn, query string, arg string) (*models.Player, error) {
	var player models.Player
	if err := c.Get(&player, c.Rebind(query), arg); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed getting player")
	}

	return &player, nil
}

func (db *DB) GetPlayers(opts *models.GetPlayersOpts) (*models.PlayersStruct, error) {
	var filters string
	args := make(map[string]interface{})
	if name := strings.TrimSpace(opts.Name); name != "" {
		filters += " AND LOWER(players.name) LIKE :name "
		args["name"] = "%" + strings.ToLower(name) + "%"
	}
	if opts.LimitTo <= 0 {
		opts.LimitTo = defaultLimit
	}
	if opts.LimitFrom < 0 {
		opts.LimitFrom = 0
	}
	args["limit_to"] = opts.LimitTo
	args["limit_from"] = opts.LimitFrom

	total, err := db.countPlayers(filters, args)
	if err != nil {
		return nil, err
	}

	query := strings.ReplaceAll(getPlayers, "#FILTERS#", filters)

	stmt, err := db.PrepareNamed(query)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	players := models.PlayersStruct{
		Players: []models.Player{},
		Total:   total,
	}
	if err := stmt.Select(&players.Players, args); err != nil {
		return nil, errors.Wrap(err, "failed getting players")
	}

	return &players, nil
}

func (db *DB) CountPlayers() (int, error) {
	return db.countPlayers("", map[string]interface{}{})
}

func (db *DB) countPlayers(filters string, args map[string]interface{}) (int, error) {
	query := strings.ReplaceAll(countPlayers, "#FILTERS#", filters)
	stmt, err := db.PrepareNamed(query)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	var total int
	if err := stmt.Get(&total, args); err != nil {
		return 0, errors.Wrap(err, "failed counting players")
	}

	return total, nil
}

package db_test

import (
	"sync"
	"testing"

	"bitbucket.org/parqueoasis/tambola/db"
	"bitbucket.org/parqueoasis/tambola/models"
	"bitbucket.org/parqueoasis/tambola/tambola"
	"bitbucket.org/parqueoasis/tambola/testutil"
	"github.com/pkg/errors"
)

func TestInsertAndGetPlayer(t *testing.T) {
	_, storage := testutil.SetupTestDB(t)

	ticket := tambola.NewSeededGenerator(1).Generate()
	player, err := storage.InsertPlayer(&models.InsertPlayerOpts{
		Name:     "Asha",
		Email:    "asha@example.com",
		DeviceID: "device-1",
		Code:     "ABC123",
		Ticket:   ticket,
	})
	if err != nil {
		t.Fatalf("Failed to insert player: %v", err)
	}
	if player.ID == 0 {
		t.Error("Expected player ID to be set")
	}

	got, err := storage.GetPlayerByDeviceID("device-1")
	if err != nil {
		t.Fatalf("Failed to get player: %v", err)
	}
	if got == nil {
		t.Fatal("Expected player, got nil")
	}
	if got.Name != "Asha" || got.Email != "asha@example.com" || got.Code != "ABC123" {
		t.Errorf("Unexpected player %+v", got)
	}
	if got.Ticket != ticket {
		t.Errorf("Expected stored ticket %v, got %v", ticket, got.Ticket)
	}
	if got.ID != player.ID {
		t.Errorf("Expected ID %d, got %d", player.ID, got.ID)
	}

	byCode, err := storage.GetPlayerByCode("ABC123")
	if err != nil {
		t.Fatalf("Failed to get player by code: %v", err)
	}
	if byCode == nil || byCode.DeviceID != "device-1" {
		t.Errorf("Expected player for code, got %+v", byCode)
	}
}

func TestGetPlayerMissing(t *testing.T) {
	_, storage := testutil.SetupTestDB(t)

	player, err := storage.GetPlayerByDeviceID("nobody")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if player != nil {
		t.Errorf("Expected nil player, got %+v", player)
	}
}

func TestInsertPlayerTwiceForDevice(t *testing.T) {
	_, storage := testutil.SetupTestDB(t)
	testutil.CreateTestPlayer(t, storage, "First", "device-1")

	_, err := storage.InsertPlayer(&models.InsertPlayerOpts{
		Name:     "Second",
		DeviceID: "device-1",
		Code:     "other-code",
		Ticket:   tambola.NewSeededGenerator(2).Generate(),
	})
	if errors.Cause(err) != db.ErrDeviceRegistered {
		t.Fatalf("Expected ErrDeviceRegistered, got %v", err)
	}

	total, err := storage.CountPlayers()
	if err != nil {
		t.Fatalf("Failed to count players: %v", err)
	}
	if total != 1 {
		t.Errorf("Expected 1 player, got %d", total)
	}
}

func TestInsertPlayerConcurrentSameDevice(t *testing.T) {
	_, storage := testutil.SetupTestDB(t)

	var wg sync.WaitGroup
	results := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := storage.InsertPlayer(&models.InsertPlayerOpts{
				Name:     "Racer",
				DeviceID: "device-race",
				Code:     "code-" + string(rune('a'+i)),
				Ticket:   tambola.NewSeededGenerator(uint64(i)).Generate(),
			})
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	var ok, duplicate int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Cause(err) == db.ErrDeviceRegistered:
			duplicate++
		default:
			t.Errorf("Unexpected error %v", err)
		}
	}
	if ok != 1 || duplicate != 7 {
		t.Errorf("Expected 1 success and 7 duplicates, got %d and %d", ok, duplicate)
	}
}

func TestGetPlayers(t *testing.T) {
	_, storage := testutil.SetupTestDB(t)
	testutil.CreateTestPlayer(t, storage, "Asha", "d1")
	testutil.CreateTestPlayer(t, storage, "Bala", "d2")
	testutil.CreateTestPlayer(t, storage, "Chitra", "d3")

	players, err := storage.GetPlayers(&models.GetPlayersOpts{})
	if err != nil {
		t.Fatalf("Failed to get players: %v", err)
	}
	if players.Total != 3 || len(players.Players) != 3 {
		t.Fatalf("Expected 3 players, got total %d len %d", players.Total, len(players.Players))
	}
	if players.Players[0].Name != "Chitra" || players.Players[2].Name != "Asha" {
		t.Errorf("Expected newest first, got %s..%s", players.Players[0].Name, players.Players[2].Name)
	}

	page, err := storage.GetPlayers(&models.GetPlayersOpts{LimitFrom: 1, LimitTo: 1})
	if err != nil {
		t.Fatalf("Failed to get page: %v", err)
	}
	if page.Total != 3 || len(page.Players) != 1 || page.Players[0].Name != "Bala" {
		t.Errorf("Unexpected page %+v", page)
	}

	filtered, err := storage.GetPlayers(&models.GetPlayersOpts{Name: "ASH"})
	if err != nil {
		t.Fatalf("Failed to filter players: %v", err)
	}
	if filtered.Total != 1 || len(filtered.Players) != 1 || filtered.Players[0].Name != "Asha" {
		t.Errorf("Unexpected filter result %+v", filtered)
	}
}

func TestGetPlayersEmpty(t *testing.T) {
	_, storage := testutil.SetupTestDB(t)

	players, err := storage.GetPlayers(&models.GetPlayersOpts{})
	if err != nil {
		t.Fatalf("Failed to get players: %v", err)
	}
	if players.Total != 0 || players.Players == nil || len(players.Players) != 0 {
		t.Errorf("Expected empty non-nil list, got %+v", players)
	}
}

func TestMigrateIdempotent(t *testing.T) {
	conn, _ := testutil.SetupTestDB(t)

	if err := db.Migrate(conn); err != nil {
		t.Errorf("Expected second migration to succeed, got %v", err)
	}
}

package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/oklog/ulid/v2"
	"github.com/pressly/goose/v3"

	"bridge-server/internal/bridge"
)

//go:embed migrations/*.sql
var migrations embed.FS

var ErrHistoryDisabled = errors.New("HISTORY_DISABLED: Deal history is not configured")

// DealRecord is one finished deal as kept in the history table.
type DealRecord struct {
	ID             string      `json:"id"`
	RoomCode       string      `json:"roomCode"`
	Contract       int         `json:"contract"`
	TrumpSuit      int         `json:"trumpSuit"`
	BidderSeat     int         `json:"bidderSeat"`
	PartnerCard    string      `json:"partnerCard"`
	DeclarerTricks int         `json:"declarerTricks"`
	DefenderTricks int         `json:"defenderTricks"`
	WinningTeam    bridge.Team `json:"winningTeam"`
	Seats          [4]string   `json:"seats"`
	FinishedAt     time.Time   `json:"finishedAt"`
}

func NewDealRecord(res bridge.DealResult) DealRecord {
	return DealRecord{
		ID:             NewID(),
		RoomCode:       res.RoomCode,
		Contract:       res.Contract.Contract,
		TrumpSuit:      int(res.Contract.Suit),
		BidderSeat:     res.Contract.Order,
		PartnerCard:    res.PartnerCard.String(),
		DeclarerTricks: res.DeclarerTricks,
		DefenderTricks: res.DefenderTricks,
		WinningTeam:    res.WinningTeam,
		Seats:          res.Seats,
		FinishedAt:     res.FinishedAt,
	}
}

// DealHistory stores finished deals. It is audit history only; live rooms
// are never rebuilt from it.
type DealHistory interface {
	SaveDeal(ctx context.Context, rec DealRecord) error
	ListDeals(ctx context.Context, roomCode string, limit int) ([]DealRecord, error)
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

var (
	ulidEntropy   = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	ulidEntropyMu sync.Mutex
)

func NewID() string {
	ulidEntropyMu.Lock()
	defer ulidEntropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulidEntropy).String()
}

// HistoryStore is the Postgres DealHistory.
type HistoryStore struct {
	pool *pgxpool.Pool
}

// NewHistoryStore connects and migrates. An empty databaseURL disables
// history and returns nil, nil.
func NewHistoryStore(ctx context.Context, databaseURL string) (*HistoryStore, error) {
	if databaseURL == "" {
		return nil, nil
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if err := runMigrations(pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &HistoryStore{pool: pool}, nil
}

// runMigrations applies the embedded goose migrations.
func runMigrations(pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

func (s *HistoryStore) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

func (s *HistoryStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}

func (s *HistoryStore) SaveDeal(ctx context.Context, rec DealRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO deals (id, room_code, contract, trump_suit, bidder_seat, partner_card,
			declarer_tricks, defender_tricks, winning_team, seat0, seat1, seat2, seat3, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		rec.ID, rec.RoomCode, rec.Contract, rec.TrumpSuit, rec.BidderSeat, rec.PartnerCard,
		rec.DeclarerTricks, rec.DefenderTricks, int(rec.WinningTeam),
		rec.Seats[0], rec.Seats[1], rec.Seats[2], rec.Seats[3], rec.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save deal %s: %w", rec.ID, err)
	}
	return nil
}

// ListDeals returns the newest deals of roomCode first.
func (s *HistoryStore) ListDeals(ctx context.Context, roomCode string, limit int) ([]DealRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, room_code, contract, trump_suit, bidder_seat, partner_card,
			declarer_tricks, defender_tricks, winning_team, seat0, seat1, seat2, seat3, finished_at
		FROM deals
		WHERE room_code = $1
		ORDER BY finished_at DESC, id DESC
		LIMIT $2`, roomCode, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query deals: %w", err)
	}
	defer rows.Close()

	deals := make([]DealRecord, 0)
	for rows.Next() {
		var rec DealRecord
		var team int
		if err := rows.Scan(&rec.ID, &rec.RoomCode, &rec.Contract, &rec.TrumpSuit, &rec.BidderSeat,
			&rec.PartnerCard, &rec.DeclarerTricks, &rec.DefenderTricks, &team,
			&rec.Seats[0], &rec.Seats[1], &rec.Seats[2], &rec.Seats[3], &rec.FinishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan deal row: %w", err)
		}
		rec.WinningTeam = bridge.Team(team)
		deals = append(deals, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating deal rows: %w", err)
	}
	return deals, nil
}

// Cleanup deletes deals finished more than olderThan ago.
func (s *HistoryStore) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	tag, err := s.pool.Exec(ctx, `DELETE FROM deals WHERE finished_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup deals: %w", err)
	}
	return tag.RowsAffected(), nil
}

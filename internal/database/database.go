package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/joho/godotenv/autoload"

	"bridgeguard/internal/game"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrSeedAlreadyUsed = errors.New("seed already used")
)

// Service represents a service that interacts with a database.
type Service interface {
	// Health returns a map of health status information.
	Health() map[string]string

	// Close terminates the database connection.
	Close() error

	DB() *sql.DB
	GetUser(ctx context.Context, userID string) (game.User, error)
	UpsertUser(ctx context.Context, user game.User) error
	ApplySessionOutcome(ctx context.Context, rec SessionRecord) (uint64, error)
}

// SessionRecord is one graded session as persisted.
type SessionRecord struct {
	SessionID                string
	UserID                   string
	Seed                     string
	Result                   game.SessionValidationResult
	PointsEarned             uint64
	StreakChallengeCompleted bool
	UsedItems                []game.ItemVariant
}

type service struct {
	db *sql.DB
}

var (
	database   = os.Getenv("BLUEPRINT_DB_DATABASE")
	password   = os.Getenv("BLUEPRINT_DB_PASSWORD")
	username   = os.Getenv("BLUEPRINT_DB_USERNAME")
	port       = os.Getenv("BLUEPRINT_DB_PORT")
	host       = os.Getenv("BLUEPRINT_DB_HOST")
	schema     = getEnv("BLUEPRINT_DB_SCHEMA", "public")
	dbInstance *service
)

func New() Service {
	if dbInstance != nil {
		return dbInstance
	}
	db, err := sql.Open("pgx", ConnString())
	if err != nil {
		log.Fatal(err)
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	dbInstance = &service{
		db: db,
	}
	return dbInstance
}

// ConnString builds the postgres URL from the BLUEPRINT_DB_* settings.
func ConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable&search_path=%s", username, password, host, port, database, schema)
}

func (s *service) DB() *sql.DB {
	return s.db
}

// Health checks the health of the database connection by pinging the database.
// It returns a map with keys indicating various health statistics.
func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	stats := make(map[string]string)

	err := s.db.PingContext(ctx)
	if err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		log.Printf("[DB] Health check failed: %v", err)
		return stats
	}

	stats["status"] = "up"
	stats["message"] = "It's healthy"

	dbStats := s.db.Stats()
	stats["open_connections"] = strconv.Itoa(dbStats.OpenConnections)
	stats["in_use"] = strconv.Itoa(dbStats.InUse)
	stats["idle"] = strconv.Itoa(dbStats.Idle)
	stats["wait_count"] = strconv.FormatInt(dbStats.WaitCount, 10)
	stats["wait_duration"] = dbStats.WaitDuration.String()
	stats["max_idle_closed"] = strconv.FormatInt(dbStats.MaxIdleClosed, 10)
	stats["max_lifetime_closed"] = strconv.FormatInt(dbStats.MaxLifetimeClosed, 10)

	if dbStats.OpenConnections > 40 {
		stats["message"] = "The database is experiencing heavy load."
	}
	if dbStats.WaitCount > 1000 {
		stats["message"] = "The database has a high number of wait events, indicating potential bottlenecks."
	}

	return stats
}

// Close closes the database connection.
func (s *service) Close() error {
	log.Printf("[DB] Disconnected from database: %s", database)
	dbInstance = nil
	return s.db.Close()
}

// GetUser loads the user row and the item inventory.
func (s *service) GetUser(ctx context.Context, userID string) (game.User, error) {
	user := game.User{ID: userID}

	var points int64
	err := s.db.QueryRowContext(ctx,
		`SELECT is_black_listed, streak, points FROM users WHERE id = $1`, userID,
	).Scan(&user.IsBlackListed, &user.Streak, &points)
	if errors.Is(err, sql.ErrNoRows) {
		return game.User{}, ErrUserNotFound
	}
	if err != nil {
		return game.User{}, fmt.Errorf("load user %s: %w", userID, err)
	}
	user.Points = uint64(points)

	rows, err := s.db.QueryContext(ctx,
		`SELECT item_id, quantity FROM user_items WHERE user_id = $1 AND quantity > 0`, userID)
	if err != nil {
		return game.User{}, fmt.Errorf("load inventory %s: %w", userID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var itemID string
		var qty int
		if err := rows.Scan(&itemID, &qty); err != nil {
			return game.User{}, fmt.Errorf("scan inventory %s: %w", userID, err)
		}
		if user.Inventory == nil {
			user.Inventory = make(map[string]int)
		}
		user.Inventory[itemID] = qty
	}
	if err := rows.Err(); err != nil {
		return game.User{}, fmt.Errorf("load inventory %s: %w", userID, err)
	}

	return user, nil
}

// UpsertUser writes the user row and replaces its inventory.
func (s *service) UpsertUser(ctx context.Context, user game.User) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert user: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO users (id, is_black_listed, streak, points)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET is_black_listed = EXCLUDED.is_black_listed,
		    streak = EXCLUDED.streak,
		    points = EXCLUDED.points,
		    updated_at = NOW()`,
		user.ID, user.IsBlackListed, user.Streak, int64(user.Points),
	); err != nil {
		return fmt.Errorf("upsert user %s: %w", user.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_items WHERE user_id = $1`, user.ID); err != nil {
		return fmt.Errorf("clear inventory %s: %w", user.ID, err)
	}
	for itemID, qty := range user.Inventory {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO user_items (user_id, item_id, quantity) VALUES ($1, $2, $3)`,
			user.ID, itemID, qty,
		); err != nil {
			return fmt.Errorf("insert item %s for %s: %w", itemID, user.ID, err)
		}
	}

	return tx.Commit()
}

// ApplySessionOutcome records the session, consumes used items, credits
// points and advances the streak in one transaction. It returns the user's
// new point total. A seed can only ever be recorded once.
func (s *service) ApplySessionOutcome(ctx context.Context, rec SessionRecord) (uint64, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return 0, fmt.Errorf("begin apply session: %w", err)
	}
	defer tx.Rollback()

	reason, err := rec.Result.FraudReason.MarshalText()
	if err != nil {
		return 0, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO game_sessions (
			id, user_id, seed, score, blocks_passed, perfect_count, time_played_ms,
			is_fraud, fraud_reason, points_earned, streak_challenge_completed
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		rec.SessionID, rec.UserID, rec.Seed, rec.Result.Score, rec.Result.BlocksPassed,
		rec.Result.PerfectCount, rec.Result.TimePlayed, rec.Result.IsFraud, string(reason),
		int64(rec.PointsEarned), rec.StreakChallengeCompleted,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch {
			case pgErr.Code == uniqueViolation && pgErr.ConstraintName == "game_sessions_seed_key":
				return 0, ErrSeedAlreadyUsed
			case pgErr.Code == foreignKeyViolation:
				return 0, ErrUserNotFound
			}
		}
		return 0, fmt.Errorf("insert session %s: %w", rec.SessionID, err)
	}

	if !rec.Result.IsFraud {
		for _, item := range rec.UsedItems {
			if _, err := tx.ExecContext(ctx, `
				UPDATE user_items SET quantity = quantity - 1
				WHERE user_id = $1 AND item_id = $2 AND quantity > 0`,
				rec.UserID, item.ItemID,
			); err != nil {
				return 0, fmt.Errorf("consume item %s: %w", item.ItemID, err)
			}
		}
	}

	var total int64
	err = tx.QueryRowContext(ctx, `
		UPDATE users
		SET points = points + $2,
		    streak = CASE WHEN $3 THEN streak + 1 ELSE streak END,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING points`,
		rec.UserID, int64(rec.PointsEarned), rec.StreakChallengeCompleted,
	).Scan(&total)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrUserNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("credit user %s: %w", rec.UserID, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit session %s: %w", rec.SessionID, err)
	}
	return uint64(total), nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

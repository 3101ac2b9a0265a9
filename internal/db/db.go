package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Params is the slice of configuration the pool needs; the caller decides
// where the values come from and what to do when the connection fails.
type Params struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

func (p Params) dsn() string {
	sslMode := p.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		p.Host, p.User, p.Password, p.Name, p.Port, sslMode,
	)
}

// Open builds a verified postgres pool. Pool limits are fixed: the payment
// callback path holds a row lock per finalization, so an unbounded pool
// under callback bursts just queues lock waiters in the database instead of
// here.
func Open(p Params) (*sql.DB, error) {
	pool, err := sql.Open("postgres", p.dsn())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres pool: %w", err)
	}

	pool.SetMaxOpenConns(25)
	pool.SetMaxIdleConns(5)
	pool.SetConnMaxLifetime(5 * time.Minute)

	if err := pool.Ping(); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return pool, nil
}

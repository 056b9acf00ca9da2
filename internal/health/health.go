package health

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Status — результат проверки одной зависимости.
type Status struct {
	Service string `json:"service"`
	Healthy bool   `json:"healthy"`
	Message string `json:"message"`
}

type Check interface {
	Name() string
	Check(ctx context.Context) Status
}

// Checker опрашивает зависимости при старте сервиса и пишет итог в лог.
type Checker struct {
	checks []Check
}

func NewChecker(checks ...Check) *Checker {
	return &Checker{checks: checks}
}

func (c *Checker) Add(check Check) {
	c.checks = append(c.checks, check)
}

// Run прогоняет все проверки; возвращает статусы в порядке регистрации.
func (c *Checker) Run(ctx context.Context) []Status {
	statuses := make([]Status, 0, len(c.checks))
	for _, check := range c.checks {
		status := check.Check(ctx)
		statuses = append(statuses, status)

		event := log.Info()
		if !status.Healthy {
			event = log.Warn()
		}
		event.Str("service", status.Service).Bool("healthy", status.Healthy).Msg(status.Message)
	}
	return statuses
}

type pgQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// PostgresCheck проверяет доступность базы простым SELECT 1.
type PostgresCheck struct {
	name string
	db   pgQuerier
}

func NewPostgresCheck(name string, db pgQuerier) *PostgresCheck {
	return &PostgresCheck{name: name, db: db}
}

func (c *PostgresCheck) Name() string {
	return c.name
}

func (c *PostgresCheck) Check(ctx context.Context) Status {
	var one int
	if err := c.db.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return Status{
			Service: c.name,
			Healthy: false,
			Message: fmt.Sprintf("Database is unhealthy: %v", err),
		}
	}

	return Status{Service: c.name, Healthy: true, Message: "Database is healthy"}
}

// RedisCheck пингует redis.
type RedisCheck struct {
	name   string
	client *redis.Client
}

func NewRedisCheck(name string, client *redis.Client) *RedisCheck {
	return &RedisCheck{name: name, client: client}
}

func (c *RedisCheck) Name() string {
	return c.name
}

func (c *RedisCheck) Check(ctx context.Context) Status {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return Status{
			Service: c.name,
			Healthy: false,
			Message: fmt.Sprintf("Redis is unhealthy: %v", err),
		}
	}

	return Status{Service: c.name, Healthy: true, Message: "Redis is healthy"}
}

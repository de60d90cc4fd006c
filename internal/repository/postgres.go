// Package repository содержит реализацию доступа к данным в PostgreSQL.
package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/pizzasmolina/shop-backend/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrEmailExists возвращается при попытке создать пользователя с уже занятым email.
var (
	ErrEmailExists = errors.New("email already registered")
	// ErrUsernameExists возвращается при попытке создать пользователя с уже занятым именем.
	ErrUsernameExists = errors.New("username already taken")
	// ErrUserNotFound возвращается, если пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
	// ErrProductNotFound возвращается, если товар не найден.
	ErrProductNotFound = errors.New("product not found")
)

// Имена ограничений уникальности из миграций. По ним различаются конфликты
// email и имени пользователя при вставке.
const (
	emailUniqueConstraint    = "users_email_key"
	usernameUniqueConstraint = "users_username_key"
)

// PostgresRepository предоставляет доступ к хранилищу данных в PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

func (r *PostgresRepository) withRetry(ctx context.Context, fn func() error) error {
	var err error
	delays := []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

	for i := 0; i <= len(delays); i++ {
		err = fn()
		if err == nil {
			return nil
		}

		// Если ошибка контекста — выходим сразу
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			// Ретраи полезны для Serialization Failure или Deadlocks.
			if pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected {
				if i < len(delays) {
					time.Sleep(delays[i])
					continue
				}
			}
		}

		// Если это не pg-ошибка, но сетевая
		if isConnectionError(err) {
			if i < len(delays) {
				time.Sleep(delays[i])
				continue
			}
		}

		break
	}
	return err
}

func isConnectionError(err error) bool {
	// Упрощенная проверка на ошибки соединения
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// CreateUser создаёт нового пользователя. Уникальность email и имени
// обеспечивается ограничениями БД: вставка и проверка атомарны.
func (r *PostgresRepository) CreateUser(ctx context.Context, username, email string, passwordHash []byte) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (username, email, password_hash) VALUES ($1, $2, $3) RETURNING id`,
		username, email, passwordHash,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			switch pgErr.ConstraintName {
			case emailUniqueConstraint:
				return 0, fmt.Errorf("%w: %s", ErrEmailExists, email)
			case usernameUniqueConstraint:
				return 0, fmt.Errorf("%w: %s", ErrUsernameExists, username)
			}
			return 0, fmt.Errorf("%w: %s", ErrEmailExists, email)
		}
		return 0, fmt.Errorf("create user: %w", err)
	}
	return id, nil
}

// GetUserByEmail возвращает пользователя по email.
func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, username, email, password_hash, created_at FROM users WHERE email = $1`,
		email,
	)

	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	return &u, nil
}

// GetUserByID возвращает пользователя по идентификатору.
func (r *PostgresRepository) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, username, email, password_hash, created_at FROM users WHERE id = $1`,
		id,
	)

	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}

	return &u, nil
}

// UpdateUserPassword заменяет хеш пароля пользователя.
func (r *PostgresRepository) UpdateUserPassword(ctx context.Context, userID int64, passwordHash []byte) error {
	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2 WHERE id = $1`,
		userID, passwordHash,
	)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// CreatePurchase сохраняет покупку вместе с позициями в одной транзакции
// и возвращает идентификатор покупки.
func (r *PostgresRepository) CreatePurchase(ctx context.Context, p *model.Purchase) (int64, error) {
	var id int64

	err := r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		err = tx.QueryRow(ctx,
			`INSERT INTO purchases
			   (user_id, total, shipping_address, phone, status, payment_provider,
			    payment_reference, notes, shipping_cost, tax_amount)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			 RETURNING id`,
			p.UserID, p.Total, p.ShippingAddress, p.Phone, string(p.Status),
			p.PaymentProvider, p.PaymentReference, p.Notes, p.ShippingCost, p.TaxAmount,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert purchase: %w", err)
		}

		for i, item := range p.Items {
			_, err = tx.Exec(ctx,
				`INSERT INTO purchase_items (purchase_id, position, name, quantity, unit_price)
				 VALUES ($1, $2, $3, $4, $5)`,
				id, i, item.Name, item.Quantity, item.UnitPrice,
			)
			if err != nil {
				return fmt.Errorf("insert purchase item: %w", err)
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return id, nil
}

// GetPurchasesByUser возвращает покупки пользователя, новые первыми,
// с позициями в исходном порядке.
func (r *PostgresRepository) GetPurchasesByUser(ctx context.Context, userID int64) ([]model.Purchase, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, total, shipping_address, phone, status, payment_provider,
		        payment_reference, notes, shipping_cost, tax_amount, created_at
		 FROM purchases
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("select purchases: %w", err)
	}
	defer rows.Close()

	var purchases []model.Purchase
	ids := make([]int64, 0)

	for rows.Next() {
		var (
			p         model.Purchase
			status    string
			reference *string
			notes     *string
		)
		if err := rows.Scan(&p.ID, &p.UserID, &p.Total, &p.ShippingAddress, &p.Phone,
			&status, &p.PaymentProvider, &reference, &notes,
			&p.ShippingCost, &p.TaxAmount, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}

		p.Status = model.PurchaseStatus(status)
		if reference != nil {
			p.PaymentReference = *reference
		}
		if notes != nil {
			p.Notes = *notes
		}

		purchases = append(purchases, p)
		ids = append(ids, p.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	if len(purchases) == 0 {
		return purchases, nil
	}

	itemRows, err := r.pool.Query(ctx,
		`SELECT purchase_id, name, quantity, unit_price
		 FROM purchase_items
		 WHERE purchase_id = ANY($1)
		 ORDER BY purchase_id, position`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("select purchase items: %w", err)
	}
	defer itemRows.Close()

	itemsByPurchase := make(map[int64][]model.PurchaseItem, len(purchases))
	for itemRows.Next() {
		var (
			purchaseID int64
			item       model.PurchaseItem
		)
		if err := itemRows.Scan(&purchaseID, &item.Name, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan purchase item: %w", err)
		}
		itemsByPurchase[purchaseID] = append(itemsByPurchase[purchaseID], item)
	}

	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	for i := range purchases {
		purchases[i].Items = itemsByPurchase[purchases[i].ID]
	}

	return purchases, nil
}

// GetProducts возвращает все товары каталога.
func (r *PostgresRepository) GetProducts(ctx context.Context) ([]model.Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, description, image, price, code FROM products ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var (
			p           model.Product
			description *string
			image       *string
			code        *string
		)
		if err := rows.Scan(&p.ID, &p.Name, &description, &image, &p.Price, &code); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		if description != nil {
			p.Description = *description
		}
		if image != nil {
			p.Image = *image
		}
		if code != nil {
			p.Code = *code
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return products, nil
}

// CreateProduct добавляет товар в каталог и возвращает его идентификатор.
func (r *PostgresRepository) CreateProduct(ctx context.Context, p *model.Product) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO products (name, description, image, price, code)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		p.Name, p.Description, p.Image, p.Price, p.Code,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create product: %w", err)
	}
	return id, nil
}

// DeleteProduct удаляет товар по идентификатору.
func (r *PostgresRepository) DeleteProduct(ctx context.Context, id int64) error {
	cmdTag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

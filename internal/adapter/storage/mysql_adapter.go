package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/rl1809/food-ordering/internal/core/domain"
)

const mysqlDuplicateEntry = 1062

type MySQLAdapter struct {
	db *sqlx.DB
}

func NewMySQLAdapter(db *sqlx.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

// OpenMySQL connects with the pool settings the server uses. The DSN must
// carry parseTime=true.
func OpenMySQL(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "mysql", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "connect mysql")
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

type menuItemRow struct {
	ID        string          `db:"id"`
	Name      string          `db:"name"`
	Price     decimal.Decimal `db:"price"`
	CreatedAt time.Time       `db:"created_at"`
}

func (r menuItemRow) toDomain() domain.MenuItem {
	return domain.MenuItem{ID: r.ID, Name: r.Name, Price: r.Price, CreatedAt: r.CreatedAt}
}

type orderRow struct {
	ID         string          `db:"id"`
	TotalPrice decimal.Decimal `db:"total_price"`
	CreatedAt  time.Time       `db:"created_at"`
}

type orderLineRow struct {
	OrderID    string `db:"order_id"`
	LineNo     int    `db:"line_no"`
	MenuItemID string `db:"menu_item_id"`
	Quantity   int    `db:"quantity"`
}

type userRow struct {
	Username       string    `db:"username"`
	HashedPassword string    `db:"hashed_password"`
	Role           string    `db:"role"`
	CreatedAt      time.Time `db:"created_at"`
}

func (m *MySQLAdapter) CreateMenuItem(ctx context.Context, item domain.MenuItem) error {
	_, err := m.db.NamedExecContext(ctx, `
		INSERT INTO menu_items (id, name, price, created_at)
		VALUES (:id, :name, :price, :created_at)`,
		menuItemRow{ID: item.ID, Name: item.Name, Price: item.Price, CreatedAt: item.CreatedAt},
	)
	return errors.Wrap(err, "insert menu item")
}

func (m *MySQLAdapter) ListMenuItems(ctx context.Context) ([]domain.MenuItem, error) {
	var rows []menuItemRow
	if err := m.db.SelectContext(ctx, &rows, `
		SELECT id, name, price, created_at FROM menu_items ORDER BY seq`); err != nil {
		return nil, errors.Wrap(err, "select menu items")
	}

	items := make([]domain.MenuItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toDomain())
	}
	return items, nil
}

// GetMenuItems reads all ids with a single statement, which InnoDB serves
// from one consistent read view.
func (m *MySQLAdapter) GetMenuItems(ctx context.Context, ids []string) (map[string]domain.MenuItem, error) {
	found := make(map[string]domain.MenuItem, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	query, args, err := sqlx.In(`SELECT id, name, price, created_at FROM menu_items WHERE id IN (?)`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "build menu snapshot query")
	}

	var rows []menuItemRow
	if err := m.db.SelectContext(ctx, &rows, m.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "select menu snapshot")
	}
	for _, row := range rows {
		found[row.ID] = row.toDomain()
	}
	return found, nil
}

func (m *MySQLAdapter) CreateOrder(ctx context.Context, order domain.Order) error {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO orders (id, total_price, created_at)
		VALUES (:id, :total_price, :created_at)`,
		orderRow{ID: order.ID, TotalPrice: order.TotalPrice, CreatedAt: order.CreatedAt},
	)
	if err != nil {
		return errors.Wrap(err, "insert order")
	}

	if len(order.Items) > 0 {
		lines := make([]orderLineRow, 0, len(order.Items))
		for i, line := range order.Items {
			lines = append(lines, orderLineRow{
				OrderID:    order.ID,
				LineNo:     i,
				MenuItemID: line.MenuItemID,
				Quantity:   line.Quantity,
			})
		}
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO order_lines (order_id, line_no, menu_item_id, quantity)
			VALUES (:order_id, :line_no, :menu_item_id, :quantity)`, lines)
		if err != nil {
			return errors.Wrap(err, "insert order lines")
		}
	}

	return errors.Wrap(tx.Commit(), "commit order")
}

func (m *MySQLAdapter) ListOrders(ctx context.Context) ([]domain.Order, error) {
	var rows []orderRow
	if err := m.db.SelectContext(ctx, &rows, `
		SELECT id, total_price, created_at FROM orders ORDER BY seq`); err != nil {
		return nil, errors.Wrap(err, "select orders")
	}

	orders := make([]domain.Order, 0, len(rows))
	if len(rows) == 0 {
		return orders, nil
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	lines, err := m.selectLines(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		orders = append(orders, domain.Order{
			ID:         row.ID,
			Items:      lines[row.ID],
			TotalPrice: row.TotalPrice,
			CreatedAt:  row.CreatedAt,
		})
	}
	return orders, nil
}

func (m *MySQLAdapter) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	var row orderRow
	err := m.db.GetContext(ctx, &row, `
		SELECT id, total_price, created_at FROM orders WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	if err != nil {
		return domain.Order{}, errors.Wrap(err, "select order")
	}

	lines, err := m.selectLines(ctx, []string{id})
	if err != nil {
		return domain.Order{}, err
	}

	return domain.Order{
		ID:         row.ID,
		Items:      lines[row.ID],
		TotalPrice: row.TotalPrice,
		CreatedAt:  row.CreatedAt,
	}, nil
}

func (m *MySQLAdapter) selectLines(ctx context.Context, orderIDs []string) (map[string][]domain.OrderLine, error) {
	query, args, err := sqlx.In(`
		SELECT order_id, line_no, menu_item_id, quantity
		FROM order_lines WHERE order_id IN (?)
		ORDER BY order_id, line_no`, orderIDs)
	if err != nil {
		return nil, errors.Wrap(err, "build order lines query")
	}

	var rows []orderLineRow
	if err := m.db.SelectContext(ctx, &rows, m.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "select order lines")
	}

	lines := make(map[string][]domain.OrderLine, len(orderIDs))
	for _, row := range rows {
		lines[row.OrderID] = append(lines[row.OrderID], domain.OrderLine{
			MenuItemID: row.MenuItemID,
			Quantity:   row.Quantity,
		})
	}
	return lines, nil
}

// CreateUser relies on the primary key for uniqueness.
func (m *MySQLAdapter) CreateUser(ctx context.Context, user domain.User) error {
	_, err := m.db.NamedExecContext(ctx, `
		INSERT INTO users (username, hashed_password, role, created_at)
		VALUES (:username, :hashed_password, :role, :created_at)`,
		userRow{
			Username:       user.Username,
			HashedPassword: user.HashedPassword,
			Role:           string(user.Role),
			CreatedAt:      user.CreatedAt,
		},
	)
	if isDuplicateEntry(err) {
		return domain.ErrUsernameTaken
	}
	return errors.Wrap(err, "insert user")
}

func (m *MySQLAdapter) GetUser(ctx context.Context, username string) (domain.User, error) {
	var row userRow
	err := m.db.GetContext(ctx, &row, `
		SELECT username, hashed_password, role, created_at FROM users WHERE username = ?`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, errors.Wrap(err, "select user")
	}

	role, err := domain.ParseRole(row.Role)
	if err != nil {
		return domain.User{}, errors.Wrapf(err, "user %s", row.Username)
	}

	return domain.User{
		Username:       row.Username,
		HashedPassword: row.HashedPassword,
		Role:           role,
		CreatedAt:      row.CreatedAt,
	}, nil
}

func (m *MySQLAdapter) Ping(ctx context.Context) error {
	return errors.Wrap(m.db.PingContext(ctx), "mysql ping")
}

func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}

package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmart/storefront/internal/models"
)

// Transactional behavior can only be exercised against a real Postgres.
// Point TEST_DATABASE_URL at a scratch database with scripts/schema.sql
// applied; without it these tests are skipped.
func testDB(t *testing.T) *PostgresDB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	conn, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	require.NoError(t, conn.Ping())

	t.Cleanup(func() { conn.Close() })
	return &PostgresDB{Conn: conn}
}

func createTestUser(t *testing.T, database *PostgresDB) int {
	t.Helper()

	var id int
	email := fmt.Sprintf("buyer-%d@example.com", time.Now().UnixNano())
	err := database.Conn.QueryRow(
		`INSERT INTO users (email, name) VALUES ($1, 'Test Buyer') RETURNING id`, email,
	).Scan(&id)
	require.NoError(t, err)

	t.Cleanup(func() {
		database.Conn.Exec(`DELETE FROM order_items WHERE order_id IN (SELECT id FROM orders WHERE user_id = $1)`, id)
		database.Conn.Exec(`DELETE FROM orders WHERE user_id = $1`, id)
		database.Conn.Exec(`DELETE FROM users WHERE id = $1`, id)
	})
	return id
}

func createTestProduct(t *testing.T, database *PostgresDB, price float64, stock int) int {
	t.Helper()

	var id int
	err := database.Conn.QueryRow(
		`INSERT INTO products (title, price, stock_quantity) VALUES ('Test Product', $1, $2) RETURNING id`,
		price, stock,
	).Scan(&id)
	require.NoError(t, err)

	t.Cleanup(func() {
		database.Conn.Exec(`DELETE FROM products WHERE id = $1`, id)
	})
	return id
}

func productStock(t *testing.T, database *PostgresDB, productID int) int {
	t.Helper()

	var stock int
	err := database.Conn.QueryRow(
		`SELECT stock_quantity FROM products WHERE id = $1`, productID,
	).Scan(&stock)
	require.NoError(t, err)
	return stock
}

func TestCreate_HappyPath(t *testing.T) {
	database := testDB(t)
	repo := NewOrderRepository(database)
	userID := createTestUser(t, database)
	productID := createTestProduct(t, database, 10.00, 5)

	order, err := repo.Create(context.Background(), userID, []models.CreateOrderItemRequest{
		{ProductID: productID, Quantity: 3},
	})

	require.NoError(t, err)
	assert.Equal(t, 30.00, order.TotalAmount)
	assert.Equal(t, models.StatusPending, order.Status)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 10.00, order.Items[0].PriceAtTime)
	assert.Equal(t, 2, productStock(t, database, productID))

	// Total must equal the sum over items of quantity * price_at_time.
	var sum float64
	for _, item := range order.Items {
		sum += float64(item.Quantity) * item.PriceAtTime
	}
	assert.Equal(t, order.TotalAmount, sum)
}

func TestCreate_InsufficientStockAfterEarlierOrder(t *testing.T) {
	database := testDB(t)
	repo := NewOrderRepository(database)
	user1 := createTestUser(t, database)
	user2 := createTestUser(t, database)
	productID := createTestProduct(t, database, 10.00, 5)

	_, err := repo.Create(context.Background(), user1, []models.CreateOrderItemRequest{
		{ProductID: productID, Quantity: 3},
	})
	require.NoError(t, err)

	_, err = repo.Create(context.Background(), user2, []models.CreateOrderItemRequest{
		{ProductID: productID, Quantity: 3},
	})

	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 2, productStock(t, database, productID))

	var count int
	require.NoError(t, database.Conn.QueryRow(
		`SELECT COUNT(*) FROM orders WHERE user_id = $1`, user2,
	).Scan(&count))
	assert.Zero(t, count, "failed checkout must leave no order row")
}

func TestCreate_MissingProductRollsBackEverything(t *testing.T) {
	database := testDB(t)
	repo := NewOrderRepository(database)
	userID := createTestUser(t, database)
	productID := createTestProduct(t, database, 10.00, 5)

	_, err := repo.Create(context.Background(), userID, []models.CreateOrderItemRequest{
		{ProductID: productID, Quantity: 1},
		{ProductID: -1, Quantity: 1},
	})

	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.Equal(t, 5, productStock(t, database, productID), "no partial stock mutation")

	var count int
	require.NoError(t, database.Conn.QueryRow(
		`SELECT COUNT(*) FROM orders WHERE user_id = $1`, userID,
	).Scan(&count))
	assert.Zero(t, count)
}

func TestCreate_DuplicateLinesProcessedIndependently(t *testing.T) {
	database := testDB(t)
	repo := NewOrderRepository(database)
	userID := createTestUser(t, database)
	productID := createTestProduct(t, database, 10.00, 5)

	order, err := repo.Create(context.Background(), userID, []models.CreateOrderItemRequest{
		{ProductID: productID, Quantity: 2},
		{ProductID: productID, Quantity: 2},
	})

	require.NoError(t, err)
	require.Len(t, order.Items, 2)
	assert.Equal(t, 40.00, order.TotalAmount)
	assert.Equal(t, 1, productStock(t, database, productID))
}

func TestCreate_ConcurrentCheckoutsNeverOversell(t *testing.T) {
	database := testDB(t)
	repo := NewOrderRepository(database)
	user1 := createTestUser(t, database)
	user2 := createTestUser(t, database)
	productID := createTestProduct(t, database, 10.00, 1)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, userID := range []int{user1, user2} {
		wg.Add(1)
		go func(i, userID int) {
			defer wg.Done()
			_, errs[i] = repo.Create(context.Background(), userID, []models.CreateOrderItemRequest{
				{ProductID: productID, Quantity: 1},
			})
		}(i, userID)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrInsufficientStock)
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one of two concurrent checkouts must win")
	assert.Equal(t, 0, productStock(t, database, productID))
}

func TestDelete_RestoresStockExactlyOnce(t *testing.T) {
	database := testDB(t)
	repo := NewOrderRepository(database)
	userID := createTestUser(t, database)
	productID := createTestProduct(t, database, 10.00, 5)

	order, err := repo.Create(context.Background(), userID, []models.CreateOrderItemRequest{
		{ProductID: productID, Quantity: 3},
	})
	require.NoError(t, err)
	require.Equal(t, 2, productStock(t, database, productID))

	deleted, err := repo.Delete(context.Background(), order.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, deleted.ID)
	assert.Equal(t, 5, productStock(t, database, productID))

	// Second cancellation must not double-credit stock.
	_, err = repo.Delete(context.Background(), order.ID, userID)
	assert.ErrorIs(t, err, ErrOrderNotFound)
	assert.Equal(t, 5, productStock(t, database, productID))

	got, err := repo.GetByID(context.Background(), order.ID, userID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDelete_WrongOwnerIsNotFound(t *testing.T) {
	database := testDB(t)
	repo := NewOrderRepository(database)
	owner := createTestUser(t, database)
	stranger := createTestUser(t, database)
	productID := createTestProduct(t, database, 10.00, 5)

	order, err := repo.Create(context.Background(), owner, []models.CreateOrderItemRequest{
		{ProductID: productID, Quantity: 1},
	})
	require.NoError(t, err)

	_, err = repo.Delete(context.Background(), order.ID, stranger)
	assert.ErrorIs(t, err, ErrOrderNotFound)
	assert.Equal(t, 4, productStock(t, database, productID), "stock untouched by unauthorized cancel")
}

func TestUpdateStatus_OwnershipFiltered(t *testing.T) {
	database := testDB(t)
	repo := NewOrderRepository(database)
	owner := createTestUser(t, database)
	stranger := createTestUser(t, database)
	productID := createTestProduct(t, database, 10.00, 5)

	order, err := repo.Create(context.Background(), owner, []models.CreateOrderItemRequest{
		{ProductID: productID, Quantity: 1},
	})
	require.NoError(t, err)

	updated, err := repo.UpdateStatus(context.Background(), order.ID, owner, models.StatusShipped)
	require.NoError(t, err)
	assert.Equal(t, models.StatusShipped, updated.Status)
	assert.True(t, updated.UpdatedAt.After(order.UpdatedAt) || updated.UpdatedAt.Equal(order.UpdatedAt))

	_, err = repo.UpdateStatus(context.Background(), order.ID, stranger, models.StatusCancelled)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestGetByID_ReadIsStable(t *testing.T) {
	database := testDB(t)
	repo := NewOrderRepository(database)
	userID := createTestUser(t, database)
	productID := createTestProduct(t, database, 12.50, 4)

	order, err := repo.Create(context.Background(), userID, []models.CreateOrderItemRequest{
		{ProductID: productID, Quantity: 2},
	})
	require.NoError(t, err)

	first, err := repo.GetByID(context.Background(), order.ID, userID)
	require.NoError(t, err)
	second, err := repo.GetByID(context.Background(), order.ID, userID)
	require.NoError(t, err)

	assert.Equal(t, first, second, "repeated reads without writes must match")
	require.Len(t, first.Items, 1)
	assert.Equal(t, "Test Product", first.Items[0].ProductTitle)
}

func TestPriceAtTime_SurvivesCatalogPriceChange(t *testing.T) {
	database := testDB(t)
	repo := NewOrderRepository(database)
	userID := createTestUser(t, database)
	productID := createTestProduct(t, database, 10.00, 5)

	order, err := repo.Create(context.Background(), userID, []models.CreateOrderItemRequest{
		{ProductID: productID, Quantity: 1},
	})
	require.NoError(t, err)

	_, err = database.Conn.Exec(`UPDATE products SET price = 99.99 WHERE id = $1`, productID)
	require.NoError(t, err)

	got, err := repo.GetByID(context.Background(), order.ID, userID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 10.00, got.Items[0].PriceAtTime)
	assert.Equal(t, 10.00, got.TotalAmount)
}

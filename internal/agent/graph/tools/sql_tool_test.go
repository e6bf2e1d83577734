package tools

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE products (
		product_id INTEGER PRIMARY KEY,
		name TEXT,
		price REAL
	)`)
	require.NoError(t, err)
	return db
}

func seedProducts(t *testing.T, db *sql.DB, n int) {
	t.Helper()
	tx, err := db.Begin()
	require.NoError(t, err)
	for i := 1; i <= n; i++ {
		_, err := tx.Exec(`INSERT INTO products (product_id, name, price) VALUES (?, ?, ?)`,
			i, fmt.Sprintf("Product %d", i), float64(i)*9.99)
		require.NoError(t, err)
	}
	require.NoError(t, tx.Commit())
}

func TestRunQueryRejectsNonSelect(t *testing.T) {
	db := openTestDB(t)

	for _, stmt := range []string{
		"DELETE FROM products",
		"UPDATE products SET price = 0",
		"DROP TABLE products",
		"  insert into products (product_id) values (99)",
	} {
		out, err := RunQuery(context.Background(), db, stmt)
		require.NoError(t, err, stmt)
		assert.Equal(t, RejectedStatementMessage, out, stmt)
	}

	// Nothing was executed.
	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM products`).Scan(&count))
	assert.Equal(t, 0, count)
}

func TestRunQueryZeroRows(t *testing.T) {
	db := openTestDB(t)

	out, err := RunQuery(context.Background(), db, "SELECT * FROM products WHERE product_id = -1")
	require.NoError(t, err)
	assert.Equal(t, ZeroRowsMessage, out)
}

func TestRunQueryFormatsHeaderAndRows(t *testing.T) {
	db := openTestDB(t)
	seedProducts(t, db, 3)

	out, err := RunQuery(context.Background(), db, "SELECT product_id, name FROM products ORDER BY product_id")
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "product_id | name", lines[0])
	assert.Equal(t, strings.Repeat("-", len(lines[0])), lines[1])
	assert.Equal(t, "1 | Product 1", lines[2])
	assert.Equal(t, "3 | Product 3", lines[4])
}

func TestRunQueryTruncatesButCountsAllRows(t *testing.T) {
	db := openTestDB(t)
	seedProducts(t, db, 250)

	out, err := RunQuery(context.Background(), db, "SELECT product_id FROM products ORDER BY product_id")
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	// header + rule + 200 rows + truncation notice
	require.Len(t, lines, 203)
	assert.Equal(t, "... (250 total rows, showing first 200)", lines[len(lines)-1])
	assert.Equal(t, "200", lines[201])
	assert.NotContains(t, out, "\n201\n")
}

func TestRunQueryEngineErrorIsHard(t *testing.T) {
	db := openTestDB(t)

	out, err := RunQuery(context.Background(), db, "SELECT nope FROM missing_table")
	require.Error(t, err)
	assert.Empty(t, out)
}

func TestRunQueryNullAndBlobFormatting(t *testing.T) {
	db := openTestDB(t)
	_, err := db.Exec(`INSERT INTO products (product_id, name, price) VALUES (1, NULL, 5.0)`)
	require.NoError(t, err)

	out, err := RunQuery(context.Background(), db, "SELECT name, CAST('abc' AS BLOB) AS b FROM products")
	require.NoError(t, err)
	assert.Contains(t, out, "NULL | abc")
}

func TestSQLToolInvokableRun(t *testing.T) {
	db := openTestDB(t)
	seedProducts(t, db, 1)

	tool := NewSQLTool(db)
	out, err := tool.InvokableRun(context.Background(), `{"sql":"SELECT name FROM products"}`)
	require.NoError(t, err)
	assert.Contains(t, out, "Product 1")

	_, err = tool.InvokableRun(context.Background(), `not json`)
	assert.Error(t, err)
}

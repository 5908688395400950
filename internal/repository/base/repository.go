package base

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository базовый репозиторий: generic insert/find/update по имени таблицы
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository создаёт новый базовый репозиторий
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Pool возвращает пул соединений
func (r *Repository) Pool() *pgxpool.Pool {
	return r.pool
}

// Insert вставляет строку в таблицу и возвращает её id
func (r *Repository) Insert(ctx context.Context, table string, values map[string]interface{}) (int64, error) {
	columns := sortedKeys(values)

	placeholders := make([]string, len(columns))
	args := make([]interface{}, len(columns))
	for i, col := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = values[col]
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) RETURNING id",
		table,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	)

	var id int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert into %s: %w", table, err)
	}
	return id, nil
}

// FindOne ищет одну строку по равенству колонок из where
func (r *Repository) FindOne(ctx context.Context, table string, selectColumns []string, where map[string]interface{}) pgx.Row {
	conditions, args := buildWhere(where)
	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s LIMIT 1",
		strings.Join(selectColumns, ", "),
		table,
		conditions,
	)
	return r.pool.QueryRow(ctx, query, args...)
}

// Update обновляет строки по условию и возвращает число затронутых
func (r *Repository) Update(ctx context.Context, table string, set map[string]interface{}, where map[string]interface{}) (int64, error) {
	setColumns := sortedKeys(set)

	assignments := make([]string, len(setColumns))
	args := make([]interface{}, 0, len(set)+len(where))
	for i, col := range setColumns {
		assignments[i] = fmt.Sprintf("%s = $%d", col, i+1)
		args = append(args, set[col])
	}

	whereColumns := sortedKeys(where)
	conditions := make([]string, len(whereColumns))
	for i, col := range whereColumns {
		conditions[i] = fmt.Sprintf("%s = $%d", col, len(set)+i+1)
		args = append(args, where[col])
	}

	query := fmt.Sprintf(
		"UPDATE %s SET %s WHERE %s",
		table,
		strings.Join(assignments, ", "),
		strings.Join(conditions, " AND "),
	)

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", table, err)
	}
	return tag.RowsAffected(), nil
}

// IsNotFound проверяет является ли ошибка "строка не найдена"
func IsNotFound(err error) bool {
	return err == pgx.ErrNoRows
}

// buildWhere собирает условие WHERE с нумерованными параметрами
func buildWhere(where map[string]interface{}) (string, []interface{}) {
	columns := sortedKeys(where)
	conditions := make([]string, len(columns))
	args := make([]interface{}, len(columns))
	for i, col := range columns {
		conditions[i] = fmt.Sprintf("%s = $%d", col, i+1)
		args[i] = where[col]
	}
	return strings.Join(conditions, " AND "), args
}

// sortedKeys возвращает ключи в стабильном порядке, чтобы SQL был детерминированным
func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

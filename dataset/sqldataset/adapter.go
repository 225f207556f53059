package sqldataset

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strings"
)

/*
Adapter is an interface providing the methods
needed to store samples in a database backend
and read them back.
*/
type Adapter interface {
	ColumnName(string) (string, error)

	CreateDiscreteValuesTable(ctx context.Context) error
	CreateSampleTable(ctx context.Context, discreteFeatureColumns, continuousFeatureColumns []string) error

	AddDiscreteValues(ctx context.Context, values []string) (int, error)
	ListDiscreteValues(ctx context.Context) (map[int]string, error)

	AddSamples(ctx context.Context, rawSamples []map[string]interface{}, discreteFeatureColumns, continuousFeatureColumns []string) (int, error)
	IterateOnSamples(ctx context.Context, discreteFeatureColumns, continuousFeatureColumns []string, lambda func(int, map[string]interface{}) (bool, error)) error
	CountSamples(ctx context.Context) (int, error)

	Close() error
}

/*
Dialect describes how a database engine differs from
the SQL the adapter writes by default
*/
type Dialect struct {
	// Placeholder returns the bind parameter for the i-th (1-based)
	// argument of a statement
	Placeholder func(i int) string
	// SerialPrimaryKey is the column definition of an auto-incremented
	// integer primary key
	SerialPrimaryKey string
	// FloatType is the column type for continuous values
	FloatType string
	// Setup holds statements to run before creating tables
	Setup []string
}

type adapter struct {
	db      *sql.DB
	dialect Dialect
}

/*
NewAdapter takes an open *sql.DB and the Dialect of its engine and returns
an Adapter working on it.
*/
func NewAdapter(db *sql.DB, dialect Dialect) Adapter {
	return &adapter{db, dialect}
}

func (a *adapter) ColumnName(featureName string) (string, error) {
	if featureName == "id" {
		return "", fmt.Errorf(`'%s' is reserved and cannot be used as feature name`, featureName)
	}
	if strings.ContainsAny(featureName, `"`) {
		return "", fmt.Errorf(`feature name '%s' contains invalid character '"'`, featureName)
	}
	return featureName, nil
}

func (a *adapter) CreateDiscreteValuesTable(ctx context.Context) error {
	for _, stmt := range a.dialect.Setup {
		if _, err := a.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("running %q: %v", stmt, err)
		}
	}
	_, err := a.db.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS discreteValues (
		id %s,
		value TEXT UNIQUE NOT NULL)`, a.dialect.SerialPrimaryKey))
	if err != nil {
		return fmt.Errorf("running discreteValues creation statement: %v", err)
	}
	return nil
}

func (a *adapter) CreateSampleTable(ctx context.Context, discreteFeatureColumns, continuousFeatureColumns []string) error {
	var createStmtBuf bytes.Buffer
	createStmtBuf.WriteString("CREATE TABLE IF NOT EXISTS samples(")
	for _, c := range discreteFeatureColumns {
		createStmtBuf.WriteString(fmt.Sprintf(`"%s" INTEGER NULL REFERENCES discreteValues(id), `, c))
	}
	for _, c := range continuousFeatureColumns {
		createStmtBuf.WriteString(fmt.Sprintf(`"%s" %s NULL, `, c, a.dialect.FloatType))
	}
	createStmtBuf.WriteString(fmt.Sprintf(`"id" %s)`, a.dialect.SerialPrimaryKey))
	_, err := a.db.ExecContext(ctx, createStmtBuf.String())
	if err != nil {
		return fmt.Errorf("ensuring samples table exists: %v", err)
	}
	return nil
}

func (a *adapter) AddDiscreteValues(ctx context.Context, values []string) (int, error) {
	if len(values) == 0 {
		return 0, nil
	}
	stmt := fmt.Sprintf("INSERT INTO discreteValues (value) VALUES (%s)", a.dialect.Placeholder(1))
	var added int
	err := a.inTransaction(ctx, stmt, func(insertStmt *sql.Stmt) error {
		for _, v := range values {
			if _, err := insertStmt.ExecContext(ctx, v); err != nil {
				return fmt.Errorf("inserting discrete value %q: %v", v, err)
			}
			added++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}

func (a *adapter) ListDiscreteValues(ctx context.Context) (map[int]string, error) {
	rows, err := a.db.QueryContext(ctx, `SELECT id, value FROM discreteValues`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := make(map[int]string)
	for rows.Next() {
		var id int
		var value string
		err = rows.Scan(&id, &value)
		if err != nil {
			return nil, err
		}
		result[id] = value
	}
	return result, rows.Err()
}

func (a *adapter) AddSamples(ctx context.Context, rawSamples []map[string]interface{}, discreteFeatureColumns, continuousFeatureColumns []string) (int, error) {
	if len(rawSamples) == 0 {
		return 0, nil
	}
	columns := append(append([]string{}, discreteFeatureColumns...), continuousFeatureColumns...)
	if len(columns) == 0 {
		return 0, fmt.Errorf("no features to store")
	}
	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = a.dialect.Placeholder(i + 1)
	}
	stmt := fmt.Sprintf(`INSERT INTO samples ("%s") VALUES (%s)`, strings.Join(columns, `", "`), strings.Join(placeholders, ", "))
	var added int
	err := a.inTransaction(ctx, stmt, func(insertStmt *sql.Stmt) error {
		for _, rs := range rawSamples {
			args := make([]interface{}, len(columns))
			for i, c := range columns {
				args[i] = rs[c]
			}
			if _, err := insertStmt.ExecContext(ctx, args...); err != nil {
				return fmt.Errorf("inserting sample %d: %v", added+1, err)
			}
			added++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}

func (a *adapter) IterateOnSamples(ctx context.Context, discreteFeatureColumns, continuousFeatureColumns []string, lambda func(int, map[string]interface{}) (bool, error)) error {
	columns := append(append([]string{}, discreteFeatureColumns...), continuousFeatureColumns...)
	if len(columns) == 0 {
		return fmt.Errorf("no features to read")
	}
	query := fmt.Sprintf(`SELECT "%s" FROM samples ORDER BY "id"`, strings.Join(columns, `", "`))
	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for j := 0; rows.Next(); j++ {
		rawSample := make(map[string]interface{})
		discreteValues := make([]sql.NullInt64, len(discreteFeatureColumns))
		continuousValues := make([]sql.NullFloat64, len(continuousFeatureColumns))
		values := make([]interface{}, 0, len(columns))
		for i := range discreteValues {
			values = append(values, &discreteValues[i])
		}
		for i := range continuousValues {
			values = append(values, &continuousValues[i])
		}
		err = rows.Scan(values...)
		if err != nil {
			return err
		}
		for i, c := range discreteFeatureColumns {
			if discreteValues[i].Valid {
				rawSample[c] = int(discreteValues[i].Int64)
			}
		}
		for i, c := range continuousFeatureColumns {
			if continuousValues[i].Valid {
				rawSample[c] = continuousValues[i].Float64
			}
		}
		ok, err := lambda(j, rawSample)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
	}
	return rows.Err()
}

func (a *adapter) CountSamples(ctx context.Context) (int, error) {
	var count int
	err := a.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM samples`).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (a *adapter) Close() error {
	return a.db.Close()
}

func (a *adapter) inTransaction(ctx context.Context, stmt string, f func(*sql.Stmt) error) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %v", err)
	}
	prepared, err := tx.PrepareContext(ctx, stmt)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("preparing %q: %v", stmt, err)
	}
	err = f(prepared)
	prepared.Close()
	if err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

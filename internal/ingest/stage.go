package ingest

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConflictPolicy decides what happens when a staged row's key already exists
// in the canonical table.
type ConflictPolicy int

const (
	// ConflictUpdate overwrites the target's mutable columns (latest wins).
	ConflictUpdate ConflictPolicy = iota
	// ConflictIgnore keeps the existing row untouched (create-once).
	ConflictIgnore
)

// Projection describes one table-shaped slice of normalized rows and how to
// merge it. Columns, ColumnTypes and SelectExprs are aligned by index;
// SelectExprs may be nil, in which case staged values are merged as-is.
type Projection struct {
	Table         string
	Columns       []string
	ColumnTypes   []string
	SelectExprs   []string
	KeyColumns    []string
	UpdateColumns []string
	Rows          [][]interface{}
}

// insertBatchSize keeps each multi-row insert comfortably under the Postgres
// bind-parameter ceiling (65535) at our widest projection.
const insertBatchSize = 500

// StageAndMerge bulk-loads a projection into a transaction-scoped staging
// table and merges it into the canonical table under the given policy.
// The staging table is ON COMMIT DROP, so it is reclaimed whether the
// surrounding transaction commits or rolls back. Returns the number of rows
// actually merged (conflicting rows under ConflictIgnore don't count).
// An empty projection is a no-op.
func StageAndMerge(tx *gorm.DB, p Projection, policy ConflictPolicy) (int64, error) {
	if len(p.Rows) == 0 {
		return 0, nil
	}

	staging := stagingName()
	if err := tx.Exec(createStagingSQL(staging, p)).Error; err != nil {
		return 0, fmt.Errorf("create staging %s: %w", staging, err)
	}

	for start := 0; start < len(p.Rows); start += insertBatchSize {
		end := min(start+insertBatchSize, len(p.Rows))
		sql, args := insertBatchSQL(staging, p.Columns, p.Rows[start:end])
		if err := tx.Exec(sql, args...).Error; err != nil {
			return 0, fmt.Errorf("stage rows into %s: %w", staging, err)
		}
	}

	res := tx.Exec(mergeSQL(staging, p, policy))
	if res.Error != nil {
		return 0, fmt.Errorf("merge %s into %s: %w", staging, p.Table, res.Error)
	}
	return res.RowsAffected, nil
}

func stagingName() string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
	return "staging_" + suffix
}

// createStagingSQL declares the staging table. staging_seq records arrival
// order so the merge can resolve same-key rows within one file
// deterministically.
func createStagingSQL(staging string, p Projection) string {
	defs := make([]string, 0, len(p.Columns)+1)
	defs = append(defs, "staging_seq BIGSERIAL")
	for i, c := range p.Columns {
		defs = append(defs, c+" "+p.ColumnTypes[i])
	}
	return fmt.Sprintf("CREATE TEMP TABLE %s (%s) ON COMMIT DROP",
		staging, strings.Join(defs, ", "))
}

// insertBatchSQL builds one multi-row parameterized INSERT for the batch.
func insertBatchSQL(staging string, columns []string, rows [][]interface{}) (string, []interface{}) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES ", staging, strings.Join(columns, ", "))

	args := make([]interface{}, 0, len(rows)*len(columns))
	argIdx := 1
	for i, row := range rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for j := range columns {
			if j > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", argIdx)
			argIdx++
		}
		sb.WriteString(")")
		args = append(args, row...)
	}
	return sb.String(), args
}

func mergeSQL(staging string, p Projection, policy ConflictPolicy) string {
	selects := make([]string, len(p.Columns))
	for i, c := range p.Columns {
		if p.SelectExprs != nil && p.SelectExprs[i] != "" {
			selects[i] = p.SelectExprs[i]
		} else {
			selects[i] = c
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (%s)\n", p.Table, strings.Join(p.Columns, ", "))

	keys := strings.Join(p.KeyColumns, ", ")

	switch policy {
	case ConflictUpdate:
		// DISTINCT ON collapses same-key rows inside the file before the
		// merge (Postgres rejects an upsert that touches one row twice);
		// the descending seq keeps the file's last occurrence.
		fmt.Fprintf(&sb, "SELECT DISTINCT ON (%s) %s FROM %s ORDER BY %s, staging_seq DESC\n",
			keys, strings.Join(selects, ", "), staging, keys)
		fmt.Fprintf(&sb, "ON CONFLICT (%s) DO UPDATE SET ", keys)
		sets := make([]string, len(p.UpdateColumns))
		for i, c := range p.UpdateColumns {
			sets[i] = fmt.Sprintf("%s = EXCLUDED.%s", c, c)
		}
		sb.WriteString(strings.Join(sets, ", "))
	case ConflictIgnore:
		// Arrival order makes DO NOTHING first-wins for in-file duplicates.
		fmt.Fprintf(&sb, "SELECT %s FROM %s ORDER BY staging_seq\n",
			strings.Join(selects, ", "), staging)
		fmt.Fprintf(&sb, "ON CONFLICT (%s) DO NOTHING", keys)
	}
	return sb.String()
}

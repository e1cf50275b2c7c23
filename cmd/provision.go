package cmd

import (
	"context"
	"fmt"
	"iter"
	"regexp"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"friendsd/config"
	"friendsd/database"
	"friendsd/friends"
	"friendsd/logger"
)

var (
	usersTable string
	idColumn   string
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,63}$`)

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Create empty friend and block lists for every existing user",
	Long: `Reads every user ID from an existing accounts table and creates the
missing friend and block lists. Users that are already provisioned are left
untouched, so the command can be re-run safely.

Example:
  friendsd provision --users-table users --id-column id`,
	Args: cobra.NoArgs,
	RunE: runProvision,
}

func runProvision(cmd *cobra.Command, _ []string) error {
	if err := validateIdentifier(usersTable); err != nil {
		return fmt.Errorf("--users-table: %w", err)
	}
	if err := validateIdentifier(idColumn); err != nil {
		return fmt.Errorf("--id-column: %w", err)
	}

	db, err := openDB(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := friends.NewService(db)
	n, err := svc.Backfill(cmd.Context(), userIDs(cmd.Context(), db, usersTable, idColumn), config.Cfg.ProvisionBatchSize)
	logger.Log.WithFields(logrus.Fields{
		"table":     usersTable,
		"processed": n,
	}).Info("Provisioning finished")
	return err
}

func validateIdentifier(name string) error {
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("invalid identifier %q", name)
	}
	return nil
}

// userIDs streams column from table. table and column must already be
// validated identifiers.
func userIDs(ctx context.Context, q database.Querier, table, column string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		rows, err := q.QueryContext(ctx, fmt.Sprintf("SELECT %s FROM %s ORDER BY %s", column, table, column))
		if err != nil {
			yield("", fmt.Errorf("query %s: %w", table, err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				yield("", err)
				return
			}
			if !yield(id, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield("", err)
		}
	}
}

// cascade.go: transitive parent-key removal
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package chronos

import "context"

// cascadeRemove deletes (partition, key) together with every row that
// depends on it transitively, computed via the dialect's recursive CTE
// (ConnectionFactory.CascadeSelectSQL) and the delete itself, in the same
// transaction, retried per Settings.WriteRetries on a transient conflict. It
// returns the number of dependent rows removed, not counting the row
// itself.
func (e *CacheEngine) cascadeRemove(ctx context.Context, partition, key string) (int64, error) {
	var cascaded int64
	err := e.withWriteRetries(ctx, func() error {
		return e.runInTx(ctx, "Remove", func(tx TargetQuerier) error {
			dependents, err := e.transitiveDependents(ctx, tx, partition, key)
			if err != nil {
				return err
			}

			keys := append([]string{key}, dependents...)
			placeholders := buildInClausePlaceholders(e.cf, 2, len(keys))
			query := e.cf.DeleteManySQL(placeholders)

			args := append([]interface{}{partition}, stringsToAny(keys)...)
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				if ctx.Err() != nil {
					return NewErrCancelled("Remove", ctx.Err())
				}
				return NewErrWriteFailure("Remove", err)
			}

			cascaded = int64(len(dependents))
			return nil
		})
	})
	if err != nil {
		return 0, err
	}

	if cascaded > 0 {
		e.metrics.RecordCascade(cascaded)
		e.logger.Debug("cascade removed dependents", "partition", partition, "key", key, "count", cascaded)
	}
	return cascaded, nil
}

// transitiveDependents returns every key in partition whose parent-key list
// references key, directly or indirectly, via the dialect's recursive CTE.
// Termination is guaranteed: Add requires parents to already exist, so
// dependency edges always point backward in time and no cycle can form. q is
// e.db for a standalone read or the enclosing transaction for cascadeRemove.
func (e *CacheEngine) transitiveDependents(ctx context.Context, q TargetQuerier, partition, key string) ([]string, error) {
	rows, err := q.QueryContext(ctx, e.cf.CascadeSelectSQL(), e.cf.CascadeSelectArgs(partition, key)...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, NewErrCancelled("Remove.cascade", ctx.Err())
		}
		return nil, NewErrReadFailure("Remove.cascade", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var dependentKey string
		if err := rows.Scan(&dependentKey); err != nil {
			return nil, NewErrReadFailure("Remove.cascade", err)
		}
		out = append(out, dependentKey)
	}
	if err := rows.Err(); err != nil {
		return nil, NewErrReadFailure("Remove.cascade", err)
	}
	return out, nil
}

package catalog

import (
	"github.com/AliSot2000/Fast-Image-Deduplicator/internal/common"
)

// DiffPair is one row of the consumer-facing duplicate-pair surface.
type DiffPair struct {
	PathA, PathB string
	Dif          float64
}

// DiffPairs returns every resolved pair with dif <= delta, ordered by
// (key_a, key_b), as spec.md §6's get_diff_pairs.
func (s *Store) DiffPairs(delta float64) ([]DiffPair, error) {
	rows, err := s.db.Query(`SELECT fa.path, fb.path, p.dif
		FROM pairs p
		JOIN files fa ON fa.key = p.key_a
		JOIN files fb ON fb.key = p.key_b
		WHERE p.success = ? AND p.dif >= 0 AND p.dif <= ?
		ORDER BY p.key_a, p.key_b`, OK, delta)
	if err != nil {
		return nil, common.NewError(common.KindCatalog, "query diff pairs", err)
	}
	defer rows.Close()

	var out []DiffPair
	for rows.Next() {
		var d DiffPair
		if err := rows.Scan(&d.PathA, &d.PathB, &d.Dif); err != nil {
			return nil, common.NewError(common.KindCatalog, "scan diff pair", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewError(common.KindCatalog, "iterate diff pairs", err)
	}
	return out, nil
}

// DiffCluster groups an anchor path with every other path matched within
// delta, as spec.md §6's get_diff_clusters.
type DiffCluster struct {
	Anchor string
	Others map[string]float64
}

// DiffClusters groups resolved pairs by key_a (groupByA=true) or key_b
// (groupByA=false), ordered by the grouping key.
func (s *Store) DiffClusters(delta float64, groupByA bool) ([]DiffCluster, error) {
	anchorCol, otherCol := "key_a", "key_b"
	if !groupByA {
		anchorCol, otherCol = "key_b", "key_a"
	}
	query := `SELECT fanchor.path, fother.path, p.dif
		FROM pairs p
		JOIN files fanchor ON fanchor.key = p.` + anchorCol + `
		JOIN files fother ON fother.key = p.` + otherCol + `
		WHERE p.success = ? AND p.dif >= 0 AND p.dif <= ?
		ORDER BY p.` + anchorCol + `, p.` + otherCol

	rows, err := s.db.Query(query, OK, delta)
	if err != nil {
		return nil, common.NewError(common.KindCatalog, "query diff clusters", err)
	}
	defer rows.Close()

	order := make([]string, 0)
	clusters := make(map[string]*DiffCluster)
	for rows.Next() {
		var anchor, other string
		var dif float64
		if err := rows.Scan(&anchor, &other, &dif); err != nil {
			return nil, common.NewError(common.KindCatalog, "scan diff cluster row", err)
		}
		c, ok := clusters[anchor]
		if !ok {
			c = &DiffCluster{Anchor: anchor, Others: make(map[string]float64)}
			clusters[anchor] = c
			order = append(order, anchor)
		}
		c.Others[other] = dif
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewError(common.KindCatalog, "iterate diff clusters", err)
	}

	out := make([]DiffCluster, 0, len(order))
	for _, anchor := range order {
		out = append(out, *clusters[anchor])
	}
	return out, nil
}

// ReduceDiff deletes every resolved pair row whose dif exceeds threshold,
// as spec.md §6's reduce_diff.
func (s *Store) ReduceDiff(threshold float64) (int64, error) {
	tx, err := s.beginTx()
	if err != nil {
		return 0, err
	}
	res, err := tx.Exec(`DELETE FROM pairs WHERE success = ? AND dif > ?`, OK, threshold)
	if err != nil {
		_ = tx.Rollback()
		return 0, common.NewError(common.KindCatalog, "delete pairs above threshold", err)
	}
	n, _ := res.RowsAffected()
	if err := commitOrWrap(tx, "commit reduce diff"); err != nil {
		return 0, err
	}
	return n, nil
}

// Stats is a read-only snapshot of catalog progress, grounded on
// original_source/scripts/benchmark_deduplicate.py's timing/progress
// instrumentation (spec.md's distillation dropped the benchmarking
// script, but the counters it reads are cheap and useful enough to
// expose as a supplemental accessor; see SPEC_FULL.md §4.8).
type Stats struct {
	TotalFiles      int64
	ProcessedFiles  int64
	ErroredFiles    int64
	TotalPairs      int64
	ResolvedPairs   int64
	ErroredPairs    int64
}

// GetStats computes the current Stats snapshot.
func (s *Store) GetStats() (Stats, error) {
	var st Stats
	row := s.db.QueryRow(`SELECT
		COUNT(*),
		COALESCE(SUM(CASE WHEN success = ? THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN success = ? THEN 1 ELSE 0 END), 0)
		FROM files`, OK, Errored)
	if err := row.Scan(&st.TotalFiles, &st.ProcessedFiles, &st.ErroredFiles); err != nil {
		return Stats{}, common.NewError(common.KindCatalog, "stats: scan files", err)
	}

	row = s.db.QueryRow(`SELECT
		COUNT(*),
		COALESCE(SUM(CASE WHEN success = ? THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN success = ? THEN 1 ELSE 0 END), 0)
		FROM pairs`, OK, Errored)
	if err := row.Scan(&st.TotalPairs, &st.ResolvedPairs, &st.ErroredPairs); err != nil {
		return Stats{}, common.NewError(common.KindCatalog, "stats: scan pairs", err)
	}
	return st, nil
}

package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

const searchMatches = `
	WITH matched AS (
		SELECT cluster_id FROM gene_clusters
		WHERE cluster_id LIKE ? ESCAPE '\' OR cog_id LIKE ? ESCAPE '\'
		  OR function_description LIKE ? ESCAPE '\' OR gene_names LIKE ? ESCAPE '\'
		UNION
		SELECT gm.cluster_id FROM gene_matches gm
		LEFT JOIN gene_info gi ON gi.gene_id = gm.gene_id AND gi.genome_id = gm.genome_id
		WHERE gm.gene_id == ? OR gi.protein_id == ?
	)`

// SearchClusters pages through clusters whose id, COG id, annotation or gene
// names contain term, plus clusters holding a gene whose locus tag or protein
// id equals term. It returns one page ordered by cluster id and the total
// number of matches.
func SearchClusters(ctx context.Context, db *sql.DB, term string, page, pageSize int) ([]*ClusterProperty, int, error) {
	like := "%" + escapeLike(term) + "%"
	args := []any{like, like, like, like, term, term}

	var total int
	if err := db.QueryRowContext(ctx, searchMatches+` SELECT COUNT(*) FROM matched`, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count matches: %w", err)
	}

	rows, err := db.QueryContext(ctx, searchMatches+`
		SELECT `+propertyColumns+`
		FROM gene_clusters
		WHERE cluster_id IN (SELECT cluster_id FROM matched)
		ORDER BY cluster_id
		LIMIT ? OFFSET ?`, append(args, pageSize, (page-1)*pageSize)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []*ClusterProperty{}
	for rows.Next() {
		var p ClusterProperty
		if err := scanProperty(rows, &p); err != nil {
			return nil, 0, fmt.Errorf("scan gene_clusters: %w", err)
		}
		out = append(out, &p)
	}
	return out, total, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const schema = `
DROP TABLE IF EXISTS gene_info;
DROP TABLE IF EXISTS gene_matches;
DROP TABLE IF EXISTS gene_clusters;
DROP TABLE IF EXISTS genome_info;

CREATE TABLE genome_info (
	genome_id       TEXT PRIMARY KEY,
	genome_fullname TEXT NOT NULL,
	assembly        TEXT,
	biosample       TEXT,
	bioproject      TEXT,
	level           TEXT,
	column_order    INTEGER NOT NULL
);

CREATE TABLE gene_clusters (
	cluster_id           TEXT PRIMARY KEY,
	cog_id               TEXT,
	representative_gene  TEXT,
	expected_length      INTEGER,
	function_description TEXT,
	gene_names           TEXT,
	gc_mean              TEXT,
	gc_spread            TEXT,
	flags                TEXT,
	total_count          INTEGER,
	strain_count         INTEGER
);

CREATE TABLE gene_matches (
	cluster_id TEXT NOT NULL,
	genome_id  TEXT NOT NULL,
	contig_id  TEXT,
	gene_id    TEXT NOT NULL
);

CREATE TABLE gene_info (
	genome_id      TEXT NOT NULL,
	contig_id      TEXT,
	gene_id        TEXT NOT NULL,
	protein_id     TEXT,
	start_location INTEGER,
	end_location   INTEGER,
	gene_length    INTEGER,
	strand         TEXT,
	description    TEXT,
	PRIMARY KEY (genome_id, gene_id)
);

CREATE INDEX gene_matches_cluster ON gene_matches (cluster_id);
CREATE INDEX gene_matches_gene ON gene_matches (genome_id, gene_id);
`

// Open connects to the gene-table database at path, creating its directory.
func Open(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return db, nil
}

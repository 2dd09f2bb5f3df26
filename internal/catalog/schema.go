package catalog

// schemaStatements creates the relational tables and indexes backing the
// persistent catalog: files, hash interning table, pair (dif) table, and
// the pair-error side table, plus the indexes the planner and comparator
// rely on for their hot queries. Kept as one statement per Exec call
// rather than a single multi-statement string, since not every sqlite
// driver's Exec accepts more than one statement per call.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS files (
		key       INTEGER PRIMARY KEY,
		path      TEXT NOT NULL,
		filename  TEXT NOT NULL,
		partition TEXT NOT NULL,
		success   INTEGER NOT NULL DEFAULT -1,
		px        INTEGER NOT NULL DEFAULT -1,
		py        INTEGER NOT NULL DEFAULT -1,
		error     TEXT,
		hash_0    INTEGER,
		hash_90   INTEGER,
		hash_180  INTEGER,
		hash_270  INTEGER,
		UNIQUE(path, partition)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_files_partition ON files(partition)`,
	`CREATE INDEX IF NOT EXISTS idx_files_success ON files(success)`,
	`CREATE INDEX IF NOT EXISTS idx_files_hash_0 ON files(hash_0)`,
	`CREATE INDEX IF NOT EXISTS idx_files_hash_90 ON files(hash_90)`,
	`CREATE INDEX IF NOT EXISTS idx_files_hash_180 ON files(hash_180)`,
	`CREATE INDEX IF NOT EXISTS idx_files_hash_270 ON files(hash_270)`,
	`CREATE TABLE IF NOT EXISTS hashes (
		key   INTEGER PRIMARY KEY AUTOINCREMENT,
		hash  TEXT NOT NULL UNIQUE,
		count INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS pairs (
		key       INTEGER PRIMARY KEY AUTOINCREMENT,
		key_a     INTEGER NOT NULL,
		key_b     INTEGER NOT NULL,
		dif       REAL NOT NULL DEFAULT -1,
		success   INTEGER NOT NULL DEFAULT -1,
		block_a   INTEGER NOT NULL DEFAULT -1,
		block_b   INTEGER NOT NULL DEFAULT -1,
		block_key INTEGER NOT NULL DEFAULT -1,
		UNIQUE(key_a, key_b)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_pairs_block_key ON pairs(block_key)`,
	`CREATE INDEX IF NOT EXISTS idx_pairs_key_a ON pairs(key_a)`,
	`CREATE INDEX IF NOT EXISTS idx_pairs_success ON pairs(success)`,
	`CREATE TABLE IF NOT EXISTS pair_errors (
		key   INTEGER PRIMARY KEY,
		error TEXT NOT NULL,
		FOREIGN KEY(key) REFERENCES pairs(key)
	)`,
}

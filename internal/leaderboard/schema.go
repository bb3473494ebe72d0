package leaderboard

// Schema creates the table behind PgStore.
const Schema = `
CREATE TABLE IF NOT EXISTS leaderboard_document (
	collection TEXT NOT NULL,
	doc_key    TEXT NOT NULL,
	data       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (collection, doc_key)
);
`

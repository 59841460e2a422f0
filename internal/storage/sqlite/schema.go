// ABOUTME: SQLite database schema for the document index and embedding store
// ABOUTME: Embeddings are append-only and ordered by an autoincrement sequence
package sqlite

// Schema contains all SQL statements for database initialization.
// embedding_id is deliberately not unique: reruns append duplicates.
const Schema = `
-- Document index, used for recency filtering and rerun detection
CREATE TABLE IF NOT EXISTS documents (
    document_id TEXT PRIMARY KEY,
    title TEXT,
    url TEXT,
    source TEXT,
    summary TEXT,
    published_at TEXT,
    date_added TEXT
);

-- Append-only embedding records
CREATE TABLE IF NOT EXISTS embeddings (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    document_id TEXT NOT NULL,
    embedding_id TEXT NOT NULL,
    kind TEXT NOT NULL,
    text TEXT NOT NULL,
    vector TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_date_added ON documents(date_added);
CREATE INDEX IF NOT EXISTS idx_documents_url ON documents(url);
CREATE INDEX IF NOT EXISTS idx_embeddings_document ON embeddings(document_id);
CREATE INDEX IF NOT EXISTS idx_embeddings_embedding_id ON embeddings(embedding_id);
`

// DateLayout is how document timestamps are stored
const DateLayout = "2006-01-02 15:04:05"

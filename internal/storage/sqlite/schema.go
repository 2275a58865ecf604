// ABOUTME: SQLite database schema for memory and session storage
// ABOUTME: Creates all tables and indexes for the persistence substrate
package sqlite

// Schema contains all SQL statements for database initialization
const Schema = `
-- Memory records (one row per stored context document)
CREATE TABLE IF NOT EXISTS memories (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    spec_folder TEXT NOT NULL,
    channel TEXT DEFAULT '',
    importance_tier TEXT DEFAULT 'normal',
    file_path TEXT,
    anchor_id TEXT,
    trigger_count INTEGER DEFAULT 0,
    importance_weight REAL DEFAULT 0.5,
    content_hash TEXT,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Dedup ledger: one row per (session, fingerprint) already delivered
CREATE TABLE IF NOT EXISTS sent_memories (
    session_id TEXT NOT NULL,
    memory_hash TEXT NOT NULL,
    memory_id INTEGER,
    sent_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (session_id, memory_hash)
);

-- Session progress snapshots for crash recovery
CREATE TABLE IF NOT EXISTS session_state (
    session_id TEXT PRIMARY KEY,
    status TEXT NOT NULL DEFAULT 'active',
    spec_folder TEXT DEFAULT '',
    current_task TEXT DEFAULT '',
    last_action TEXT DEFAULT '',
    context_summary TEXT DEFAULT '',
    pending_work TEXT DEFAULT '',
    state_data TEXT DEFAULT '',
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Indexes for efficient querying
CREATE INDEX IF NOT EXISTS idx_memories_folder ON memories(spec_folder);
CREATE INDEX IF NOT EXISTS idx_memories_channel ON memories(channel);
CREATE INDEX IF NOT EXISTS idx_memories_tier ON memories(importance_tier);
CREATE INDEX IF NOT EXISTS idx_sent_session ON sent_memories(session_id);
CREATE INDEX IF NOT EXISTS idx_sent_sent_at ON sent_memories(sent_at);
CREATE INDEX IF NOT EXISTS idx_session_status ON session_state(status);
`

// SchemaVersion is the current schema version for migrations
const SchemaVersion = 1

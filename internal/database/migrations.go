package database

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS accounts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    enabled BOOLEAN DEFAULT true,
    host TEXT NOT NULL,
    port INTEGER DEFAULT 993,
    username TEXT NOT NULL,
    password TEXT DEFAULT '',
    password_mode TEXT DEFAULT 'manual',
    password_prefix TEXT DEFAULT '',
    password_suffix TEXT DEFAULT '',
    poll_speed TEXT DEFAULT 'normal',
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS rules (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    enabled BOOLEAN DEFAULT true,
    account_id INTEGER REFERENCES accounts(id) ON DELETE CASCADE,
    match_mode TEXT DEFAULT 'all',
    conditions TEXT DEFAULT '[]',
    chatwork_room_id TEXT NOT NULL,
    message_template TEXT DEFAULT '',
    priority INTEGER DEFAULT 0,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS poller_state (
    account_id INTEGER PRIMARY KEY REFERENCES accounts(id) ON DELETE CASCADE,
    last_uid INTEGER NOT NULL DEFAULT 0,
    last_poll_at DATETIME
);

CREATE TABLE IF NOT EXISTS processed_emails (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    account_id INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
    imap_uid TEXT NOT NULL,
    rule_id INTEGER NOT NULL DEFAULT 0,
    sender TEXT DEFAULT '',
    subject TEXT DEFAULT '',
    status TEXT NOT NULL,
    error_message TEXT DEFAULT '',
    chatwork_room_id TEXT DEFAULT '',
    processed_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(account_id, imap_uid, rule_id)
);

CREATE INDEX IF NOT EXISTS idx_rules_enabled ON rules(enabled);
CREATE INDEX IF NOT EXISTS idx_rules_account ON rules(account_id);
CREATE INDEX IF NOT EXISTS idx_processed_account_uid ON processed_emails(account_id, imap_uid);
CREATE INDEX IF NOT EXISTS idx_processed_at ON processed_emails(processed_at);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS accounts (
    id BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL,
    enabled BOOLEAN DEFAULT true,
    host TEXT NOT NULL,
    port INTEGER DEFAULT 993,
    username TEXT NOT NULL,
    password TEXT DEFAULT '',
    password_mode TEXT DEFAULT 'manual',
    password_prefix TEXT DEFAULT '',
    password_suffix TEXT DEFAULT '',
    poll_speed TEXT DEFAULT 'normal',
    created_at TIMESTAMPTZ DEFAULT now(),
    updated_at TIMESTAMPTZ DEFAULT now()
);

CREATE TABLE IF NOT EXISTS rules (
    id BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL,
    enabled BOOLEAN DEFAULT true,
    account_id BIGINT REFERENCES accounts(id) ON DELETE CASCADE,
    match_mode TEXT DEFAULT 'all',
    conditions TEXT DEFAULT '[]',
    chatwork_room_id TEXT NOT NULL,
    message_template TEXT DEFAULT '',
    priority INTEGER DEFAULT 0,
    created_at TIMESTAMPTZ DEFAULT now(),
    updated_at TIMESTAMPTZ DEFAULT now()
);

CREATE TABLE IF NOT EXISTS poller_state (
    account_id BIGINT PRIMARY KEY REFERENCES accounts(id) ON DELETE CASCADE,
    last_uid BIGINT NOT NULL DEFAULT 0,
    last_poll_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS processed_emails (
    id BIGSERIAL PRIMARY KEY,
    account_id BIGINT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
    imap_uid TEXT NOT NULL,
    rule_id BIGINT NOT NULL DEFAULT 0,
    sender TEXT DEFAULT '',
    subject TEXT DEFAULT '',
    status TEXT NOT NULL,
    error_message TEXT DEFAULT '',
    chatwork_room_id TEXT DEFAULT '',
    processed_at TIMESTAMPTZ DEFAULT now(),
    UNIQUE(account_id, imap_uid, rule_id)
);

CREATE INDEX IF NOT EXISTS idx_rules_enabled ON rules(enabled);
CREATE INDEX IF NOT EXISTS idx_rules_account ON rules(account_id);
CREATE INDEX IF NOT EXISTS idx_processed_account_uid ON processed_emails(account_id, imap_uid);
CREATE INDEX IF NOT EXISTS idx_processed_at ON processed_emails(processed_at);
`

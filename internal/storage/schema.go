package storage

const schema = `
-- 'sources' are local directories or git repositories that feed a deck.
CREATE TABLE IF NOT EXISTS sources (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    deck TEXT NOT NULL,
    path TEXT NOT NULL UNIQUE,
    type TEXT NOT NULL DEFAULT 'local', -- 'local' or 'git'
    last_scanned TEXT
);

-- 'cards' hold the definitions read from sources. Rows are never deleted.
CREATE TABLE IF NOT EXISTS cards (
    deck TEXT NOT NULL,
    id TEXT NOT NULL,
    front TEXT NOT NULL,
    back TEXT NOT NULL,
    example TEXT NOT NULL DEFAULT '',
    audio TEXT NOT NULL DEFAULT '',
    position INTEGER NOT NULL DEFAULT 0,
    source_id INTEGER,

    PRIMARY KEY (deck, id),
    FOREIGN KEY (source_id) REFERENCES sources(id)
);

-- 'schedules' exist only for introduced cards.
CREATE TABLE IF NOT EXISTS schedules (
    deck TEXT NOT NULL,
    card_id TEXT NOT NULL,
    interval INTEGER NOT NULL,
    ease REAL NOT NULL,
    due_date TEXT NOT NULL,
    stage INTEGER NOT NULL DEFAULT 1, -- 1: Introducing, 2: Scheduled
    step INTEGER NOT NULL DEFAULT 0,
    reviews TEXT NOT NULL DEFAULT '[]',

    PRIMARY KEY (deck, card_id)
);

-- 'attempts' keep the bounded attempt history of each card as JSON.
CREATE TABLE IF NOT EXISTS attempts (
    deck TEXT NOT NULL,
    card_id TEXT NOT NULL,
    history TEXT NOT NULL DEFAULT '[]',

    PRIMARY KEY (deck, card_id)
);

-- 'allowances' keep the current day's new-card admission state per deck.
CREATE TABLE IF NOT EXISTS allowances (
    deck TEXT PRIMARY KEY,
    date TEXT NOT NULL,
    allowed INTEGER NOT NULL,
    used INTEGER NOT NULL
);
`

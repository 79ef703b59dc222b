package store

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    name            TEXT NOT NULL,
    interests       TEXT NOT NULL DEFAULT '[]',
    preferred_times TEXT NOT NULL DEFAULT '[]',
    lat             REAL,
    lng             REAL,
    location_text   TEXT NOT NULL DEFAULT '',
    created_at      DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS activities (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    owner_id       INTEGER NOT NULL REFERENCES users(id),
    external_id    TEXT NOT NULL DEFAULT '',
    title          TEXT NOT NULL,
    description    TEXT NOT NULL DEFAULT '',
    times          TEXT NOT NULL DEFAULT '[]',
    max_people     INTEGER NOT NULL,
    current_people INTEGER NOT NULL DEFAULT 1,
    status         TEXT NOT NULL DEFAULT 'active',
    lat            REAL,
    lng            REAL,
    location_text  TEXT NOT NULL DEFAULT '',
    location_name  TEXT NOT NULL DEFAULT '',
    created_at     DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_activities_owner ON activities(owner_id);
CREATE INDEX IF NOT EXISTS idx_activities_status ON activities(status);
CREATE INDEX IF NOT EXISTS idx_activities_created ON activities(created_at);
CREATE UNIQUE INDEX IF NOT EXISTS idx_activities_external
    ON activities(external_id) WHERE external_id != '';

CREATE TABLE IF NOT EXISTS participations (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id     INTEGER NOT NULL REFERENCES users(id),
    activity_id INTEGER NOT NULL REFERENCES activities(id),
    status      TEXT NOT NULL DEFAULT 'pending',
    created_at  DATETIME NOT NULL,
    UNIQUE(user_id, activity_id)
);

CREATE INDEX IF NOT EXISTS idx_participations_activity ON participations(activity_id);
CREATE INDEX IF NOT EXISTS idx_participations_user ON participations(user_id);

CREATE TABLE IF NOT EXISTS connections (
    user_a INTEGER NOT NULL REFERENCES users(id),
    user_b INTEGER NOT NULL REFERENCES users(id),
    PRIMARY KEY (user_a, user_b)
);
`

package postgres

// GetMigrations returns all embedded migrations in version order.
func GetMigrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_bonuses", UpSQL: migration001Up, DownSQL: migration001Down},
		{Version: 2, Name: "create_leaderboards", UpSQL: migration002Up, DownSQL: migration002Down},
		{Version: 3, Name: "create_counters", UpSQL: migration003Up, DownSQL: migration003Down},
		{Version: 4, Name: "create_admin_users", UpSQL: migration004Up, DownSQL: migration004Down},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE BONUSES
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
CREATE TABLE IF NOT EXISTS bonuses (
    id UUID PRIMARY KEY,
    name TEXT NOT NULL,
    logo TEXT NOT NULL,
    url TEXT NOT NULL,
    bonus_code TEXT NOT NULL,
    bonus_amount TEXT NOT NULL,
    extra_bonus TEXT NOT NULL DEFAULT '',
    steps TEXT[] NOT NULL DEFAULT '{}',
    active BOOLEAN NOT NULL DEFAULT TRUE,
    sort_order INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_bonus_order CHECK (sort_order >= 0)
);

-- Display order: order ASC, newest first.
CREATE INDEX IF NOT EXISTS idx_bonuses_display ON bonuses(sort_order, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_bonuses_active ON bonuses(sort_order, created_at DESC) WHERE active;
`

const migration001Down = `
DROP TABLE IF EXISTS bonuses;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE LEADERBOARDS
// ══════════════════════════════════════════════════════════════════════════════

// bonus_id is a plain reference without a foreign key: deleting a bonus
// leaves its leaderboards with the copied name, logo and url.
const migration002Up = `
CREATE TABLE IF NOT EXISTS leaderboards (
    id UUID PRIMARY KEY,
    bonus_id TEXT NOT NULL,
    bonus_name TEXT NOT NULL DEFAULT '',
    bonus_logo TEXT NOT NULL DEFAULT '',
    bonus_url TEXT NOT NULL DEFAULT '',
    name TEXT NOT NULL,
    duration INTEGER NOT NULL,
    start_date TIMESTAMP WITH TIME ZONE NOT NULL,
    end_date TIMESTAMP WITH TIME ZONE NOT NULL,
    prizes JSONB NOT NULL DEFAULT '{"first":0,"second":0,"third":0}'::jsonb,
    prize_text TEXT NOT NULL DEFAULT '',
    player_data JSONB NOT NULL DEFAULT '[]'::jsonb,
    top_three JSONB NOT NULL DEFAULT '[]'::jsonb,
    challengers JSONB NOT NULL DEFAULT '[]'::jsonb,
    active BOOLEAN NOT NULL DEFAULT TRUE,
    sort_order INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_duration CHECK (duration >= 1),
    CONSTRAINT valid_window CHECK (end_date >= start_date)
);

CREATE INDEX IF NOT EXISTS idx_leaderboards_display ON leaderboards(sort_order, created_at DESC);

-- Public listing: active AND end_date >= now().
CREATE INDEX IF NOT EXISTS idx_leaderboards_live ON leaderboards(end_date) WHERE active;
`

const migration002Down = `
DROP TABLE IF EXISTS leaderboards;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE COUNTERS
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Single-row table holding the "members joined" counter.
CREATE TABLE IF NOT EXISTS counters (
    id SMALLINT PRIMARY KEY DEFAULT 1,
    total_joined BIGINT NOT NULL,
    last_updated TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT single_counter CHECK (id = 1)
);
`

const migration003Down = `
DROP TABLE IF EXISTS counters;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 004: CREATE ADMIN USERS
// ══════════════════════════════════════════════════════════════════════════════

const migration004Up = `
CREATE TABLE IF NOT EXISTS admin_users (
    id UUID PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    name TEXT NOT NULL,
    role TEXT NOT NULL DEFAULT 'admin',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    last_login TIMESTAMP WITH TIME ZONE,

    CONSTRAINT valid_role CHECK (role IN ('admin', 'superadmin'))
);
`

const migration004Down = `
DROP TABLE IF EXISTS admin_users;
`

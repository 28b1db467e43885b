package store

import "ocrjobs/internal/platform/config"

// ConfigFromEnv reads SERVICE_PGSQL_*, SERVICE_CLICKHOUSE_* and SERVICE_REDIS_* from root.
// Postgres is on by default and Redis follows it: a queue shared between
// processes needs counters and the cache shared too. ClickHouse is opt in.
func ConfigFromEnv(root config.Conf, tag string) Config {
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_")
	rdsCfg := root.Prefix("SERVICE_REDIS_")

	pgOn := pgCfg.MayBool("ENABLED", true)
	c := Config{
		AppName: "ocrjobs",
		PG: PGConfig{
			Enabled:     pgOn,
			URL:         pgCfg.MayString("DBURL", ""),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
		},
		CH: CHConfig{
			Enabled:    chCfg.MayBool("ENABLED", false),
			URL:        chCfg.MayString("DBURL", ""),
			ClientName: "ocrjobs",
			ClientTag:  tag,
		},
		RDS: RedisConfig{
			Enabled:  rdsCfg.MayBool("ENABLED", pgOn),
			Addr:     rdsCfg.MayString("ADDR", "127.0.0.1:6379"),
			Password: rdsCfg.MayString("PASSWORD", ""),
			DB:       rdsCfg.MayInt("DB", 0),
		},
	}
	if c.PG.Enabled && c.PG.URL == "" {
		c.PG.URL = pgCfg.MustString("DBURL")
	}
	if c.CH.Enabled && c.CH.URL == "" {
		c.CH.URL = chCfg.MustString("DBURL")
	}
	return c
}

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/guregu/null/v6"
	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"CoinScope/internal/model"
)

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// SQLStore persists to SQLite or Postgres. A connection is opened for each
// operation and closed when it finishes.
type SQLStore struct {
	driver string
	dsn    string
	logger *zap.Logger
	now    func() time.Time
}

// NewSQLite opens (or creates) the SQLite database at path and runs migrations.
func NewSQLite(path string, logger *zap.Logger) (*SQLStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	s := &SQLStore{driver: "sqlite", dsn: path + "?_pragma=busy_timeout(5000)", logger: logger, now: time.Now}
	if err := s.init(context.Background()); err != nil {
		return nil, err
	}
	logger.Info("SQLite store ready", zap.String("path", path))
	return s, nil
}

// NewPostgres connects to dsn through the pgx driver and runs migrations.
func NewPostgres(dsn string, logger *zap.Logger) (*SQLStore, error) {
	s := &SQLStore{driver: "pgx", dsn: dsn, logger: logger, now: time.Now}
	if err := s.init(context.Background()); err != nil {
		return nil, err
	}
	logger.Info("Postgres store ready")
	return s, nil
}

func (s *SQLStore) init(ctx context.Context) error {
	return s.withDB(ctx, func(db *sqlx.DB) error {
		if s.driver == "sqlite" {
			if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
				return fmt.Errorf("set WAL mode: %w", err)
			}
		}
		if err := migrate(ctx, db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		return nil
	})
}

func (s *SQLStore) withDB(ctx context.Context, fn func(db *sqlx.DB) error) error {
	db, err := sqlx.Open(s.driver, s.dsn)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.driver, err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("connect %s: %w", s.driver, err)
	}
	return fn(db)
}

func migrate(ctx context.Context, db *sqlx.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS market_data (
			date          TEXT NOT NULL,
			market_cap    DOUBLE PRECISION,
			volume        DOUBLE PRECISION,
			btc_dominance DOUBLE PRECISION,
			PRIMARY KEY (date)
		)`,
		`CREATE TABLE IF NOT EXISTS token_data (
			token      TEXT NOT NULL,
			date       TEXT NOT NULL,
			price      DOUBLE PRECISION,
			market_cap DOUBLE PRECISION,
			volume     DOUBLE PRECISION,
			PRIMARY KEY (token, date)
		)`,
		`CREATE TABLE IF NOT EXISTS analysis_results (
			token         TEXT NOT NULL,
			date          TEXT NOT NULL,
			analysis_type TEXT NOT NULL,
			result        TEXT,
			PRIMARY KEY (token, date, analysis_type)
		)`,
		`CREATE TABLE IF NOT EXISTS trending_topics (
			date   TEXT NOT NULL,
			topics TEXT,
			PRIMARY KEY (date)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

// Save upserts the market series and every token series. Each table is
// written in its own transaction.
func (s *SQLStore) Save(ctx context.Context, market *model.MarketSeries, tokens map[string]*model.TokenSeries) error {
	return s.withDB(ctx, func(db *sqlx.DB) error {
		if market != nil && len(market.Points) > 0 {
			if err := s.saveMarket(ctx, db, market); err != nil {
				return err
			}
		}
		if len(tokens) > 0 {
			if err := s.saveTokens(ctx, db, tokens); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLStore) saveMarket(ctx context.Context, db *sqlx.DB, market *model.MarketSeries) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin market tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, tx.Rebind(`
		INSERT INTO market_data (date, market_cap, volume, btc_dominance)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (date)
		DO UPDATE SET
			market_cap = excluded.market_cap,
			volume = excluded.volume,
			btc_dominance = excluded.btc_dominance`))
	if err != nil {
		return fmt.Errorf("prepare market upsert: %w", err)
	}
	defer stmt.Close()

	for _, p := range market.Points {
		if _, err := stmt.ExecContext(ctx, formatDate(p.Date), p.MarketCap, p.Volume, p.BTCDominance); err != nil {
			s.logger.Error("Failed to upsert market row", zap.Error(err), zap.Time("date", p.Date))
			return fmt.Errorf("upsert market row: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLStore) saveTokens(ctx context.Context, db *sqlx.DB, tokens map[string]*model.TokenSeries) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin token tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, tx.Rebind(`
		INSERT INTO token_data (token, date, price, market_cap, volume)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (token, date)
		DO UPDATE SET
			price = excluded.price,
			market_cap = excluded.market_cap,
			volume = excluded.volume`))
	if err != nil {
		return fmt.Errorf("prepare token upsert: %w", err)
	}
	defer stmt.Close()

	for token, series := range tokens {
		if series == nil {
			continue
		}
		for _, p := range series.Points {
			if _, err := stmt.ExecContext(ctx, token, formatDate(p.Date), p.Price, p.MarketCap, p.Volume); err != nil {
				s.logger.Error("Failed to upsert token row",
					zap.Error(err), zap.String("token", token), zap.Time("date", p.Date))
				return fmt.Errorf("upsert token row: %w", err)
			}
		}
	}
	return tx.Commit()
}

type marketRow struct {
	Date         string     `db:"date"`
	MarketCap    null.Float `db:"market_cap"`
	Volume       null.Float `db:"volume"`
	BTCDominance null.Float `db:"btc_dominance"`
}

type tokenRow struct {
	Token     string     `db:"token"`
	Date      string     `db:"date"`
	Price     null.Float `db:"price"`
	MarketCap null.Float `db:"market_cap"`
	Volume    null.Float `db:"volume"`
}

// dateFilter builds the optional inclusive range condition.
func dateFilter(start, end time.Time) ([]string, []any) {
	var conds []string
	var args []any
	if !start.IsZero() {
		conds = append(conds, "date >= ?")
		args = append(args, formatDate(start))
	}
	if !end.IsZero() {
		conds = append(conds, "date <= ?")
		args = append(args, formatDate(end))
	}
	return conds, args
}

func where(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

func (s *SQLStore) Load(ctx context.Context, start, end time.Time) (*model.MarketSeries, map[string]*model.TokenSeries, error) {
	market := &model.MarketSeries{}
	tokens := map[string]*model.TokenSeries{}

	err := s.withDB(ctx, func(db *sqlx.DB) error {
		conds, args := dateFilter(start, end)

		var mrows []marketRow
		q := "SELECT date, market_cap, volume, btc_dominance FROM market_data" + where(conds) + " ORDER BY date"
		if err := db.SelectContext(ctx, &mrows, db.Rebind(q), args...); err != nil {
			return fmt.Errorf("select market_data: %w", err)
		}
		for _, r := range mrows {
			d, err := parseDate(r.Date)
			if err != nil {
				return fmt.Errorf("market_data date %q: %w", r.Date, err)
			}
			market.Points = append(market.Points, model.MarketPoint{
				Date: d, MarketCap: r.MarketCap, Volume: r.Volume, BTCDominance: r.BTCDominance,
			})
		}

		var names []string
		if err := db.SelectContext(ctx, &names, "SELECT DISTINCT token FROM token_data ORDER BY token"); err != nil {
			return fmt.Errorf("select tokens: %w", err)
		}

		tq := db.Rebind("SELECT token, date, price, market_cap, volume FROM token_data" +
			where(append([]string{"token = ?"}, conds...)) + " ORDER BY date")
		for _, name := range names {
			var trows []tokenRow
			if err := db.SelectContext(ctx, &trows, tq, append([]any{name}, args...)...); err != nil {
				return fmt.Errorf("select token_data %s: %w", name, err)
			}
			if len(trows) == 0 {
				continue
			}
			series := &model.TokenSeries{Symbol: name}
			for _, r := range trows {
				d, err := parseDate(r.Date)
				if err != nil {
					return fmt.Errorf("token_data date %q: %w", r.Date, err)
				}
				series.Points = append(series.Points, model.TimeSeriesPoint{
					Date: d, Price: r.Price, MarketCap: r.MarketCap, Volume: r.Volume,
				})
			}
			tokens[name] = series
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return market, tokens, nil
}

// SaveAnalysisResult stores result as JSON keyed by token, type and the
// current second.
func (s *SQLStore) SaveAnalysisResult(ctx context.Context, token, analysisType string, result any) error {
	b, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal analysis result: %w", err)
	}
	return s.withDB(ctx, func(db *sqlx.DB) error {
		_, err := db.ExecContext(ctx, db.Rebind(`
			INSERT INTO analysis_results (token, date, analysis_type, result)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (token, date, analysis_type)
			DO UPDATE SET result = excluded.result`),
			token, formatDate(s.now()), analysisType, string(b))
		if err != nil {
			return fmt.Errorf("upsert analysis result: %w", err)
		}
		return nil
	})
}

type resultRow struct {
	Date   string `db:"date"`
	Result string `db:"result"`
}

func toStored(rows []resultRow) ([]model.StoredResult, error) {
	out := make([]model.StoredResult, 0, len(rows))
	for _, r := range rows {
		d, err := parseDate(r.Date)
		if err != nil {
			return nil, fmt.Errorf("date %q: %w", r.Date, err)
		}
		out = append(out, model.StoredResult{Date: d, Result: json.RawMessage(r.Result)})
	}
	return out, nil
}

// AnalysisResults returns the newest results first.
func (s *SQLStore) AnalysisResults(ctx context.Context, token, analysisType string, limit int) ([]model.StoredResult, error) {
	var rows []resultRow
	err := s.withDB(ctx, func(db *sqlx.DB) error {
		return db.SelectContext(ctx, &rows, db.Rebind(
			"SELECT date, result FROM analysis_results WHERE token = ? AND analysis_type = ? ORDER BY date DESC LIMIT ?"),
			token, analysisType, max(limit, 1))
	})
	if err != nil {
		return nil, fmt.Errorf("select analysis_results: %w", err)
	}
	return toStored(rows)
}

func (s *SQLStore) SaveTrendingTopics(ctx context.Context, topics any) error {
	b, err := json.Marshal(topics)
	if err != nil {
		return fmt.Errorf("marshal trending topics: %w", err)
	}
	return s.withDB(ctx, func(db *sqlx.DB) error {
		_, err := db.ExecContext(ctx, db.Rebind(`
			INSERT INTO trending_topics (date, topics)
			VALUES (?, ?)
			ON CONFLICT (date)
			DO UPDATE SET topics = excluded.topics`),
			formatDate(s.now()), string(b))
		if err != nil {
			return fmt.Errorf("upsert trending topics: %w", err)
		}
		return nil
	})
}

// TrendingTopics returns the newest snapshots first.
func (s *SQLStore) TrendingTopics(ctx context.Context, limit int) ([]model.StoredResult, error) {
	var rows []resultRow
	err := s.withDB(ctx, func(db *sqlx.DB) error {
		return db.SelectContext(ctx, &rows, db.Rebind(
			"SELECT date, topics AS result FROM trending_topics ORDER BY date DESC LIMIT ?"), max(limit, 1))
	})
	if err != nil {
		return nil, fmt.Errorf("select trending_topics: %w", err)
	}
	return toStored(rows)
}

// Close is a no-op: connections do not outlive a single operation.
func (s *SQLStore) Close() error {
	s.logger.Info("Closing store", zap.String("driver", s.driver))
	return nil
}

package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"bazas-game/internal/game"
	"bazas-game/internal/shared"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"

	// WinPoints is added to the winner's ranking points for every game won.
	WinPoints = 3
)

// ErrNotFound is returned by queries that matched nothing.
var ErrNotFound = errors.New("no results found")

var schema = []string{
	`create table if not exists games (
		id text not null primary key,
		code text not null,
		started_at text not null,
		ended_at text,
		reason text,
		winner_name text,
		rounds integer not null default 0
	)`,
	`create table if not exists game_players (
		game_id text not null,
		player_id text not null,
		name text not null,
		position integer not null,
		final_score integer,
		left_early integer not null default 0,
		primary key (game_id, player_id)
	)`,
	`create table if not exists game_rounds (
		game_id text not null,
		round integer not null,
		card_count integer not null,
		report text not null,
		primary key (game_id, round)
	)`,
	`create table if not exists player_stats (
		name text not null primary key,
		games_played integer not null default 0,
		games_won integer not null default 0,
		ranking_points integer not null default 0,
		points_sum integer not null default 0,
		updated_at text not null
	)`,
}

// Service stores game history and the player ranking.
type Service struct {
	db     *sql.DB
	driver string
	m      *sync.Mutex
	now    func() time.Time
}

var _ game.Recorder = (*Service)(nil)

// Open connects with the given driver ("sqlite3" or "pgx") and creates the
// tables when missing.
func Open(ctx context.Context, driver, dsn string) (*Service, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	s := &Service{db: db, driver: driver, m: &sync.Mutex{}, now: time.Now}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}
	return s, nil
}

func (s *Service) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders as $n for Postgres.
func (s *Service) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func (s *Service) timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// GameStarted stores the game row and its roster.
func (s *Service) GameStarted(ctx context.Context, rec game.GameRecord) error {
	s.m.Lock()
	defer s.m.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.rebind(
		"INSERT INTO games (id, code, started_at) VALUES (?, ?, ?)"),
		rec.ID, rec.Code, s.timestamp(rec.StartedAt)); err != nil {
		return fmt.Errorf("insert game %s: %w", rec.ID, err)
	}
	for _, p := range rec.Players {
		if _, err := tx.ExecContext(ctx, s.rebind(
			"INSERT INTO game_players (game_id, player_id, name, position) VALUES (?, ?, ?, ?)"),
			rec.ID, p.PlayerID, p.Name, p.Position); err != nil {
			return fmt.Errorf("insert player %s: %w", p.PlayerID, err)
		}
		if _, err := tx.ExecContext(ctx, s.rebind(
			"INSERT INTO player_stats (name, updated_at) VALUES (?, ?) ON CONFLICT (name) DO NOTHING"),
			p.Name, s.timestamp(s.now())); err != nil {
			return fmt.Errorf("init stats for %s: %w", p.Name, err)
		}
	}
	return tx.Commit()
}

// RoundFinished stores a round's scoring report as JSON.
func (s *Service) RoundFinished(ctx context.Context, gameID string, report shared.RoundReport) error {
	s.m.Lock()
	defer s.m.Unlock()

	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, s.rebind(
		"INSERT INTO game_rounds (game_id, round, card_count, report) VALUES (?, ?, ?, ?)"),
		gameID, report.Round, report.CardCount, string(data))
	if err != nil {
		return fmt.Errorf("insert round %d of %s: %w", report.Round, gameID, err)
	}
	return nil
}

// GameFinished closes the game row and folds the final scores into the ranking.
func (s *Service) GameFinished(ctx context.Context, gameID string, result shared.GameResult) error {
	s.m.Lock()
	defer s.m.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := s.timestamp(s.now())
	if _, err := tx.ExecContext(ctx, s.rebind(
		"UPDATE games SET ended_at = ?, reason = ?, winner_name = ?, rounds = ? WHERE id = ?"),
		now, result.Reason, result.WinnerName, result.Rounds, gameID); err != nil {
		return fmt.Errorf("update game %s: %w", gameID, err)
	}

	for _, line := range result.FinalScores {
		if _, err := tx.ExecContext(ctx, s.rebind(
			"UPDATE game_players SET final_score = ? WHERE game_id = ? AND player_id = ?"),
			line.Score, gameID, line.PlayerID); err != nil {
			return fmt.Errorf("update player %s: %w", line.PlayerID, err)
		}

		won, points := 0, 0
		if line.PlayerID == result.WinnerID {
			won, points = 1, WinPoints
		}
		if _, err := tx.ExecContext(ctx, s.rebind(`
			INSERT INTO player_stats (name, games_played, games_won, ranking_points, points_sum, updated_at)
			VALUES (?, 1, ?, ?, ?, ?)
			ON CONFLICT (name) DO UPDATE SET
				games_played = player_stats.games_played + 1,
				games_won = player_stats.games_won + excluded.games_won,
				ranking_points = player_stats.ranking_points + excluded.ranking_points,
				points_sum = player_stats.points_sum + excluded.points_sum,
				updated_at = excluded.updated_at`),
			line.Name, won, points, line.Score, now); err != nil {
			return fmt.Errorf("update stats for %s: %w", line.Name, err)
		}
	}

	if err := s.closeLeavers(ctx, tx, gameID, now); err != nil {
		return err
	}
	return tx.Commit()
}

type leaver struct {
	playerID string
	name     string
	score    int
}

// closeLeavers settles roster rows the final scores did not reach: players
// who left before the end. They count as a game played and lost, with the
// last total their round reports recorded.
func (s *Service) closeLeavers(ctx context.Context, tx *sql.Tx, gameID, now string) error {
	rows, err := tx.QueryContext(ctx, s.rebind(
		"SELECT player_id, name FROM game_players WHERE game_id = ? AND final_score IS NULL"), gameID)
	if err != nil {
		return fmt.Errorf("find leavers of %s: %w", gameID, err)
	}
	var leavers []*leaver
	for rows.Next() {
		l := &leaver{}
		if err := rows.Scan(&l.playerID, &l.name); err != nil {
			rows.Close()
			return err
		}
		leavers = append(leavers, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	if len(leavers) == 0 {
		return nil
	}

	if err := s.lastTotals(ctx, tx, gameID, leavers); err != nil {
		return err
	}

	for _, l := range leavers {
		if _, err := tx.ExecContext(ctx, s.rebind(
			"UPDATE game_players SET final_score = ?, left_early = 1 WHERE game_id = ? AND player_id = ?"),
			l.score, gameID, l.playerID); err != nil {
			return fmt.Errorf("close leaver %s: %w", l.playerID, err)
		}
		if _, err := tx.ExecContext(ctx, s.rebind(`
			INSERT INTO player_stats (name, games_played, points_sum, updated_at)
			VALUES (?, 1, ?, ?)
			ON CONFLICT (name) DO UPDATE SET
				games_played = player_stats.games_played + 1,
				points_sum = player_stats.points_sum + excluded.points_sum,
				updated_at = excluded.updated_at`),
			l.name, l.score, now); err != nil {
			return fmt.Errorf("update stats for %s: %w", l.name, err)
		}
	}
	return nil
}

// lastTotals fills each leaver's score from the latest round report that lists them.
func (s *Service) lastTotals(ctx context.Context, tx *sql.Tx, gameID string, leavers []*leaver) error {
	rows, err := tx.QueryContext(ctx, s.rebind(
		"SELECT report FROM game_rounds WHERE game_id = ? ORDER BY round DESC"), gameID)
	if err != nil {
		return fmt.Errorf("rounds of %s: %w", gameID, err)
	}
	defer rows.Close()

	found := make(map[string]bool, len(leavers))
	for rows.Next() && len(found) < len(leavers) {
		var data string
		if err := rows.Scan(&data); err != nil {
			return err
		}
		var report shared.RoundReport
		if err := json.Unmarshal([]byte(data), &report); err != nil {
			return fmt.Errorf("decode round of %s: %w", gameID, err)
		}
		for _, l := range leavers {
			if found[l.playerID] {
				continue
			}
			for _, e := range report.Entries {
				if e.PlayerID == l.playerID {
					l.score = e.Total
					found[l.playerID] = true
					break
				}
			}
		}
	}
	return rows.Err()
}

const gameColumns = "id, code, started_at, ended_at, reason, winner_name, rounds"

// Games returns every stored game, newest first.
func (s *Service) Games(ctx context.Context) ([]GameSummary, error) {
	s.m.Lock()
	defer s.m.Unlock()
	return s.queryGames(ctx, "SELECT "+gameColumns+" FROM games ORDER BY started_at DESC, id")
}

// GamesByPlayer returns the games a display name took part in.
func (s *Service) GamesByPlayer(ctx context.Context, name string) ([]GameSummary, error) {
	s.m.Lock()
	defer s.m.Unlock()
	games, err := s.queryGames(ctx, "SELECT "+gameColumns+
		" FROM games WHERE id IN (SELECT game_id FROM game_players WHERE name = ?) ORDER BY started_at DESC, id", name)
	if err != nil {
		return nil, err
	}
	if len(games) == 0 {
		return nil, fmt.Errorf("games of %s: %w", name, ErrNotFound)
	}
	return games, nil
}

// queryGames assumes the lock is held.
func (s *Service) queryGames(ctx context.Context, query string, args ...any) ([]GameSummary, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	games := []GameSummary{}
	index := map[string]int{}
	for rows.Next() {
		var g GameSummary
		var endedAt, reason, winner sql.NullString
		if err := rows.Scan(&g.ID, &g.Code, &g.StartedAt, &endedAt, &reason, &winner, &g.Rounds); err != nil {
			return nil, err
		}
		g.EndedAt, g.Reason, g.WinnerName = endedAt.String, reason.String, winner.String
		g.Players = []GamePlayer{}
		index[g.ID] = len(games)
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(games) == 0 {
		return games, nil
	}

	ids := make([]any, len(games))
	for i, g := range games {
		ids[i] = g.ID
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	prows, err := s.db.QueryContext(ctx, s.rebind(
		"SELECT game_id, player_id, name, position, final_score, left_early FROM game_players WHERE game_id IN ("+
			placeholders+") ORDER BY game_id, position"), ids...)
	if err != nil {
		return nil, err
	}
	defer prows.Close()
	for prows.Next() {
		var gameID string
		var p GamePlayer
		var score sql.NullInt64
		var left int
		if err := prows.Scan(&gameID, &p.PlayerID, &p.Name, &p.Position, &score, &left); err != nil {
			return nil, err
		}
		p.Left = left != 0
		i, ok := index[gameID]
		if !ok {
			continue
		}
		if score.Valid {
			v := int(score.Int64)
			p.FinalScore = &v
		}
		games[i].Players = append(games[i].Players, p)
	}
	return games, prows.Err()
}

// Rounds returns the scoring reports of a game in round order.
func (s *Service) Rounds(ctx context.Context, gameID string) ([]shared.RoundReport, error) {
	s.m.Lock()
	defer s.m.Unlock()

	rows, err := s.db.QueryContext(ctx, s.rebind(
		"SELECT report FROM game_rounds WHERE game_id = ? ORDER BY round"), gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports := []shared.RoundReport{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var report shared.RoundReport
		if err := json.Unmarshal([]byte(data), &report); err != nil {
			return nil, fmt.Errorf("decode round of %s: %w", gameID, err)
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(reports) == 0 {
		return nil, fmt.Errorf("rounds of %s: %w", gameID, ErrNotFound)
	}
	return reports, nil
}

// Ranking returns up to limit players by ranking points, then games won.
func (s *Service) Ranking(ctx context.Context, limit int) ([]PlayerStats, error) {
	s.m.Lock()
	defer s.m.Unlock()

	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT name, games_played, games_won, ranking_points, points_sum, updated_at
		FROM player_stats
		ORDER BY ranking_points DESC, games_won DESC, points_sum DESC, name
		LIMIT ?`), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := []PlayerStats{}
	for rows.Next() {
		var p PlayerStats
		if err := rows.Scan(&p.Name, &p.GamesPlayed, &p.GamesWon, &p.RankingPoints, &p.PointsSum, &p.UpdatedAt); err != nil {
			return nil, err
		}
		stats = append(stats, p)
	}
	return stats, rows.Err()
}

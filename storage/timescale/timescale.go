package timescale

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/maddsua/pingline"
)

const version = "v1"

const tableName = "pingline_samples_" + version

func NewTimescaleStorage(ctx context.Context, dbUrl string) (*timescaleStorage, error) {

	connUrl, err := url.Parse(dbUrl)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("postgres", dbUrl)
	if err != nil {
		return nil, err
	}

	slog.Debug("Storage: Timescale enabled",
		slog.String("host", connUrl.Host),
		slog.String("name", strings.TrimPrefix(connUrl.Path, "/")))

	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	if _, err := db.ExecContext(ctx, createTableQuery()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set up table: %s", err.Error())
	}

	return &timescaleStorage{db: db, table: tableName}, nil
}

func createTableQuery() string {
	return fmt.Sprintf(`create table if not exists %s (
		time timestamp with time zone not null,
		target text not null,
		rtt double precision not null
	)`, tableName)
}

type timescaleStorage struct {
	db    *sql.DB
	table string
}

func (this *timescaleStorage) Type() string {
	return "timescale"
}

func (this *timescaleStorage) Version() string {
	return version
}

func (this *timescaleStorage) Close() error {
	return this.db.Close()
}

func (this *timescaleStorage) WriteSample(ctx context.Context, target net.IP, sample pingline.Sample) error {

	if target == nil {
		return errors.New("empty sample target")
	}

	query, args := buildInsertQuery(this.table, sampleRow(target, sample))

	_, err := this.db.ExecContext(ctx, query, args...)
	return err
}

func sampleRow(target net.IP, sample pingline.Sample) map[string]any {
	return map[string]any{
		"time":   sample.Time().UTC(),
		"target": target.String(),
		"rtt":    sample.Rtt,
	}
}

// buildInsertQuery orders columns by name so the statement text is stable
func buildInsertQuery(table string, row map[string]any) (string, []any) {

	var columns []string
	for col := range row {
		columns = append(columns, col)
	}

	slices.Sort(columns)

	var args []any
	var bindvars []string
	for idx, col := range columns {
		args = append(args, row[col])
		bindvars = append(bindvars, "$"+strconv.Itoa(idx+1))
	}

	query := fmt.Sprintf("insert into %s (%s) values (%s)",
		table,
		strings.Join(columns, ", "),
		strings.Join(bindvars, ", "))

	return query, args
}

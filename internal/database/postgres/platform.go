package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"

	"github.com/kadirbelkuyu/unisql/internal/dao"
	"github.com/kadirbelkuyu/unisql/internal/dberr"
	"github.com/kadirbelkuyu/unisql/internal/schema"
	"github.com/kadirbelkuyu/unisql/internal/value"
)

const Name = "postgres"

// Platform runs statements over a pgx pool. Every result column is requested
// in binary format so cells go through the binary decoders.
type Platform struct {
	pool  *pgxpool.Pool
	codec *Codec
}

// Open connects, pings and loads the enum types of the database.
func Open(ctx context.Context, url string) (*Platform, error) {
	if _, err := pq.ParseURL(url); err != nil {
		return nil, &dberr.ConnectError{Kind: dberr.ConnectFailed, URL: url, Err: err}
	}

	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, &dberr.ConnectError{Kind: dberr.ConnectFailed, URL: url, Err: err}
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, &dberr.ConnectError{Kind: dberr.ConnectFailed, URL: url, Err: err}
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &dberr.ConnectError{Kind: dberr.ConnectFailed, URL: url, Err: fmt.Errorf("error pinging database: %w", err)}
	}

	p := &Platform{pool: pool, codec: NewCodec()}
	if err := p.loadEnums(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

func (p *Platform) Name() string { return Name }

func (p *Platform) Codec() *Codec { return p.codec }

func (p *Platform) loadEnums(ctx context.Context) error {
	rows, err := p.Execute(ctx, enumTypesSQL, nil)
	if err != nil {
		return fmt.Errorf("failed to load enum types: %w", err)
	}
	for d := range rows.All() {
		oid, err := dao.Get[int64](d, "oid")
		if err != nil {
			return err
		}
		arrayOID, err := dao.Get[int64](d, "typarray")
		if err != nil {
			return err
		}
		p.codec.RegisterEnum(uint32(oid), uint32(arrayOID))
	}
	return nil
}

// Execute binds params, runs sql and decodes every cell of the result.
func (p *Platform) Execute(ctx context.Context, sql string, params []value.Value) (*dao.Rows, error) {
	args := make([]any, 0, len(params)+1)
	args = append(args, pgx.QueryResultFormats{pgx.BinaryFormatCode})
	for i, param := range params {
		native, err := p.codec.Encode(param)
		if err != nil {
			return nil, p.wrap(sql, fmt.Errorf("parameter $%d: %w", i+1, err))
		}
		args = append(args, native)
	}

	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, p.wrap(sql, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, fd := range fields {
		columns[i] = fd.Name
	}

	result := dao.NewRows(columns)
	for rows.Next() {
		raw := rows.RawValues()
		row := make([]value.Value, len(fields))
		for i, fd := range fields {
			if i >= len(raw) {
				row[i] = value.Nil()
				continue
			}
			v, err := p.codec.Decode(raw[i], fd.DataTypeOID, fd.Format)
			if err != nil {
				return nil, p.wrap(sql, fmt.Errorf("column %q: %w", fd.Name, err))
			}
			row[i] = v
		}
		result.Push(row)
	}
	if err := rows.Err(); err != nil {
		return nil, p.wrap(sql, err)
	}
	return result, nil
}

func (p *Platform) wrap(sql string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Detail != "" {
		err = fmt.Errorf("%w (detail: %s)", err, pgErr.Detail)
	}
	return &dberr.PlatformError{Platform: Name, SQL: sql, Err: err}
}

// QuoteIdent quotes a single identifier.
func QuoteIdent(ident string) string {
	return pq.QuoteIdentifier(ident)
}

func (p *Platform) Dialect() schema.Dialect {
	return schema.Dialect{Quote: QuoteIdent, AutoIncrement: "GENERATED BY DEFAULT AS IDENTITY"}
}

func (p *Platform) Close() error {
	p.pool.Close()
	return nil
}

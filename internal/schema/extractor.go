package schema

import (
	"context"
	"errors"
	"fmt"

	"github.com/kadirbelkuyu/unisql/pkg/logger"
)

// Source is the reflection surface every backend offers.
type Source interface {
	GetGroupedTables(ctx context.Context) ([]SchemaContent, error)
	GetTable(ctx context.Context, name TableName) (Table, error)
}

type Extractor struct {
	source Source
	logger *logger.Logger
}

func NewExtractor(source Source, logger *logger.Logger) *Extractor {
	return &Extractor{
		source: source,
		logger: logger,
	}
}

// ExtractTableNames lists tables and views, optionally restricted to one
// schema.
func (e *Extractor) ExtractTableNames(ctx context.Context, schemaFilter string) ([]TableName, error) {
	groups, err := e.source.GetGroupedTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	var names []TableName
	for _, group := range groups {
		if schemaFilter != "" && group.Schema != schemaFilter {
			continue
		}
		for _, name := range group.Tablenames {
			names = append(names, NewTableName(group.Schema, name))
		}
		for _, name := range group.Views {
			names = append(names, NewTableName(group.Schema, name))
		}
	}
	return names, nil
}

// ExtractTables reflects every table. A table that fails is skipped and its
// error joined into the returned error, so the caller still gets the rest.
// onTable, when set, is called once per attempted table.
func (e *Extractor) ExtractTables(ctx context.Context, schemaFilter string, onTable func(TableName)) ([]Table, error) {
	e.logger.Info("Extracting tables...")

	names, err := e.ExtractTableNames(ctx, schemaFilter)
	if err != nil {
		return nil, err
	}

	var (
		tables []Table
		errs   []error
	)
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		table, err := e.source.GetTable(ctx, name)
		if onTable != nil {
			onTable(name)
		}
		if err != nil {
			e.logger.Warnf("Skipping %s: %v", name.CompleteName(), err)
			errs = append(errs, fmt.Errorf("failed to gather table details for %s: %w", name.CompleteName(), err))
			continue
		}
		e.logger.Debugf("Reflected %s (%d columns)", name.CompleteName(), len(table.Columns))
		tables = append(tables, table)
	}

	e.logger.Infof("%d tables extracted", len(tables))
	return tables, errors.Join(errs...)
}

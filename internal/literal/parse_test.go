package literal_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirbelkuyu/unisql/internal/dberr"
	"github.com/kadirbelkuyu/unisql/internal/literal"
	"github.com/kadirbelkuyu/unisql/internal/sqltype"
)

func TestParseDefault(t *testing.T) {
	rating := sqltype.NewEnum("mpaa_rating", []string{"G", "PG", "PG-13", "R", "NC-17"})
	id := uuid.MustParse("6f1c2c9e-9d8d-4a7e-9c53-0b1f0d7c7a11")

	cases := []struct {
		name string
		text string
		typ  sqltype.SqlType
		want literal.ColumnConstraint
	}{
		{"sequence", "nextval('actor_actor_id_seq'::regclass)", sqltype.Of(sqltype.Int), literal.AutoIncrementConstraint()},
		{"sequence ignores type", "nextval('x_seq'::regclass)", sqltype.Of(sqltype.Text), literal.AutoIncrementConstraint()},
		{"enum verbatim", "'G'::mpaa_rating", rating, literal.DefaultConstraint(literal.StringLiteral("'G'::mpaa_rating"))},
		{"now", "now()", sqltype.Of(sqltype.Timestamp), literal.DefaultConstraint(literal.Generated(literal.CurrentTimestamp))},
		{"utc now", "timezone('utc'::text, now())", sqltype.Of(sqltype.TimestampTz), literal.DefaultConstraint(literal.Generated(literal.CurrentTimestamp))},
		{"mysql fractional now", "CURRENT_TIMESTAMP(6)", sqltype.Of(sqltype.Timestamp), literal.DefaultConstraint(literal.Generated(literal.CurrentTimestamp))},
		{"null", "NULL", sqltype.Of(sqltype.Varchar), literal.DefaultConstraint(literal.NullLiteral())},
		{"bool", "true", sqltype.Of(sqltype.Bool), literal.DefaultConstraint(literal.BoolLiteral(true))},
		{"mysql bool", "0", sqltype.Of(sqltype.Bool), literal.DefaultConstraint(literal.BoolLiteral(false))},
		{"integer", "42", sqltype.Of(sqltype.Smallint), literal.DefaultConstraint(literal.IntegerLiteral(42))},
		{"negative integer", "'-1'::integer", sqltype.Of(sqltype.Int), literal.DefaultConstraint(literal.IntegerLiteral(-1))},
		{"numeric cast", "(0)::numeric", sqltype.Of(sqltype.Numeric), literal.DefaultConstraint(literal.DoubleLiteral(0))},
		{"numeric expression", "(4.99 * 2)", sqltype.Of(sqltype.Numeric), literal.DefaultConstraint(literal.DoubleLiteral(9.98))},
		{"numeric null", "(NULL)::numeric", sqltype.Of(sqltype.Double), literal.DefaultConstraint(literal.NullLiteral())},
		{"uuid generator", "uuid_generate_v4()", sqltype.Of(sqltype.UUID), literal.DefaultConstraint(literal.Generated(literal.UUIDGenerateV4))},
		{"uuid constant", "'" + id.String() + "'::uuid", sqltype.Of(sqltype.UUID), literal.DefaultConstraint(literal.UUIDLiteral(id))},
		{"date", "('now'::text)::date", sqltype.Of(sqltype.Date), literal.DefaultConstraint(literal.Generated(literal.CurrentDate))},
		{"sqlite date", "CURRENT_DATE", sqltype.Of(sqltype.Date), literal.DefaultConstraint(literal.Generated(literal.CurrentDate))},
		{"time", "CURRENT_TIME", sqltype.Of(sqltype.Time), literal.DefaultConstraint(literal.Generated(literal.CurrentTime))},
		{"blob", "x'cafe'", sqltype.Of(sqltype.Blob), literal.DefaultConstraint(literal.BlobLiteral([]byte{0xca, 0xfe}))},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := literal.ParseDefault(tc.text, tc.typ)
			require.NoError(t, err)
			if tc.want.Default.Kind == literal.Double {
				require.Equal(t, tc.want.Kind, got.Kind)
				assert.InDelta(t, tc.want.Default.Double, got.Default.Double, 1e-9)
				return
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseDefaultReturnsErrors(t *testing.T) {
	_, err := literal.ParseDefault("'yesterday'", sqltype.Of(sqltype.Timestamp))
	var convErr *dberr.ConvertError
	require.ErrorAs(t, err, &convErr)

	_, err = literal.ParseDefault("abc", sqltype.Of(sqltype.Int))
	require.ErrorAs(t, err, &convErr)

	_, err = literal.ParseDefault("'(1,2)'::point", sqltype.Of(sqltype.Point))
	var typeErr *dberr.UnsupportedDataTypeError
	require.ErrorAs(t, err, &typeErr)
}

func TestEvaluateStaysNarrow(t *testing.T) {
	f, err := literal.Evaluate("-(1 + 2) * 3 / 2")
	require.NoError(t, err)
	assert.InDelta(t, -4.5, f, 1e-9)

	for _, expr := range []string{"os.Exit(1)", "x", "1 % 2", "\"1\"", "1 / 0"} {
		_, err := literal.Evaluate(expr)
		assert.Error(t, err, expr)
	}
}

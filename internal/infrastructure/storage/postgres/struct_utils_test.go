package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ledger/internal/core/id"
)

type Timestamps struct {
	CreateTime int64 `db:"create_time"`
	UpdateTime int64 `db:"update_time"`
}

type hiddenColumns struct {
	Secret string `db:"secret"`
}

type sampleRow struct {
	ID       id.ID   `db:"id"`
	Code     string  `db:"account_code"`
	Parent   *string `db:"control_account_code"`
	Scratch  string  `db:"-"`
	Untagged int
	hiddenColumns
}

type sampleAuditedRow struct {
	Code string `db:"account_code"`
	Timestamps
}

func TestExtractDBColumns(t *testing.T) {
	cols := ExtractDBColumns[sampleRow]()
	assert.Equal(t, []string{"id", "account_code", "control_account_code"}, cols)

	cols = ExtractDBColumns[sampleAuditedRow]()
	assert.Equal(t, []string{"account_code", "create_time", "update_time"}, cols)
}

func TestExtractDBColumns_Pointer(t *testing.T) {
	assert.Equal(t, ExtractDBColumns[sampleRow](), ExtractDBColumns[*sampleRow]())
}

func TestStructToMap(t *testing.T) {
	parent := "11000"
	now := time.Now().UnixMilli()
	row := sampleAuditedRow{Code: "11100", Timestamps: Timestamps{CreateTime: now, UpdateTime: now + 1}}

	m := StructToMap(row)
	assert.Equal(t, map[string]any{
		"account_code": "11100",
		"create_time":  now,
		"update_time":  now + 1,
	}, m)

	rowID := id.New()
	m = StructToMap(&sampleRow{ID: rowID, Code: "11110", Parent: &parent, Scratch: "x", Untagged: 3})
	assert.Len(t, m, 3)
	assert.Equal(t, rowID, m["id"])
	assert.Equal(t, &parent, m["control_account_code"])
	assert.NotContains(t, m, "-")
}

func TestStructToMap_NotStruct(t *testing.T) {
	assert.Nil(t, StructToMap(42))
	assert.Nil(t, StructToMap((*sampleRow)(nil)))
}

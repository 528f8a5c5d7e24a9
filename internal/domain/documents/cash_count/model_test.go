package cash_count

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	assert.Equal(t, Balanced, Classify(0))
	assert.Equal(t, Shortage, Classify(-50000))
	assert.Equal(t, Overage, Classify(50000))
}

func TestStatementReference(t *testing.T) {
	at := time.Date(2025, 3, 1, 17, 30, 0, 123_000_000, time.FixedZone("UTC+2", 2*3600))
	assert.Equal(t, "Cash Count @2025-03-01T15:30:00.123Z", StatementReference(at))
}

func TestRecordInput_Validate(t *testing.T) {
	in := RecordInput{AccountCode: " 11110 ", CountedAmount: 100, Note: " drawer "}
	assert.NoError(t, in.Validate())
	assert.Equal(t, "11110", in.AccountCode)
	assert.Equal(t, "drawer", in.Note)

	assert.Error(t, (&RecordInput{CountedAmount: 1}).Validate())
	assert.Error(t, (&RecordInput{AccountCode: "11110", CountedAmount: -1}).Validate())
}

package v1_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/app"
	"ledger/internal/core/apperror"
	v1 "ledger/internal/infrastructure/http/v1"
	"ledger/internal/infrastructure/storage/memory"
)

var now = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	c, err := app.InMemory(memory.NewStore(), func() time.Time { return now })
	require.NoError(t, err)
	_, err = app.Seed(context.Background(), c.Accounts, app.DefaultChart, app.DefaultTags)
	require.NoError(t, err)

	return v1.NewRouter(v1.RouterConfig{Container: c})
}

func do(t *testing.T, r http.Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "alice")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w, out
}

func postFunding(t *testing.T, r http.Handler, account string, amount int64) map[string]any {
	t.Helper()
	w, body := do(t, r, http.MethodPost, "/api/v1/journal-entries", map[string]any{
		"entryTime": now.Add(-time.Hour),
		"note":      "opening",
		"post":      true,
		"lines": []map[string]any{
			{"accountCode": account, "debit": amount},
			{"accountCode": "31000", "credit": amount},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return body
}

func TestHealth_InMemory(t *testing.T) {
	r := newTestRouter(t)

	w, body := do(t, r, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])

	w, body = do(t, r, http.MethodGet, "/health/info", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ledger", body["app"])
	assert.NotContains(t, body, "database")
}

func TestJournal_PostAndRollup(t *testing.T) {
	r := newTestRouter(t)

	entry := postFunding(t, r, "11110", 500000)
	assert.Equal(t, "posted", entry["status"])
	assert.Equal(t, "alice", entry["createdBy"])
	assert.EqualValues(t, 500000, entry["totalDebit"])

	w, acc := do(t, r, http.MethodGet, "/api/v1/accounts/11110", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 500000, acc["balance"])
	assert.Contains(t, acc["tags"], "Cash Flow - Cash Equivalents")

	w, rollup := do(t, r, http.MethodGet, "/api/v1/accounts/10000/rollup", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 500000, rollup["balance"])

	w, tb := do(t, r, http.MethodGet, "/api/v1/reports/trial-balance", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, tb["balanced"])
	assert.EqualValues(t, 500000, tb["totalDebit"])
}

func TestJournal_DraftLifecycle(t *testing.T) {
	r := newTestRouter(t)

	w, draft := do(t, r, http.MethodPost, "/api/v1/journal-entries", map[string]any{
		"entryTime": now,
		"lines": []map[string]any{
			{"accountCode": "11120", "debit": 1000},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "draft", draft["status"])
	ref := int64(draft["ref"].(float64))
	base := "/api/v1/journal-entries/" + strconv.FormatInt(ref, 10)

	// One line is not postable.
	w, errBody := do(t, r, http.MethodPost, base+"/post", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, apperror.CodeUnbalancedEntry, errBody["code"])

	w, line := do(t, r, http.MethodPost, base+"/lines", map[string]any{"accountCode": "31000", "credit": 1000})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.EqualValues(t, 2, line["lineNumber"])

	w, posted := do(t, r, http.MethodPost, base+"/post", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "posted", posted["status"])

	// Posted entries are immutable.
	w, _ = do(t, r, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w, list := do(t, r, http.MethodGet, "/api/v1/journal-entries?status=posted", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, list["totalCount"])
}

func TestJournal_RejectsUnbalancedPost(t *testing.T) {
	r := newTestRouter(t)

	w, body := do(t, r, http.MethodPost, "/api/v1/journal-entries", map[string]any{
		"entryTime": now,
		"post":      true,
		"lines": []map[string]any{
			{"accountCode": "11110", "debit": 100},
			{"accountCode": "31000", "credit": 90},
		},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, apperror.CodeUnbalancedEntry, body["code"])

	w, list := do(t, r, http.MethodGet, "/api/v1/journal-entries", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, list["totalCount"])
}

func TestCashCount_Shortage(t *testing.T) {
	r := newTestRouter(t)
	postFunding(t, r, "11110", 500000)

	w, body := do(t, r, http.MethodPost, "/api/v1/cash-counts", map[string]any{
		"accountCode":   "11110",
		"countTime":     now,
		"countedAmount": 450000,
		"note":          "till",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	session := body["session"].(map[string]any)
	assert.Equal(t, "completed", session["status"])
	assert.EqualValues(t, -50000, session["discrepancy"])

	w, history := do(t, r, http.MethodGet, "/api/v1/reports/cash-count-history?accountCode=11110", nil)
	require.Equal(t, http.StatusOK, w.Code)
	items := history["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "shortage", items[0].(map[string]any)["discrepancyType"])

	w, acc := do(t, r, http.MethodGet, "/api/v1/accounts/82300", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 50000, acc["balance"])
}

func TestReconciliation_OneDraftPerAccount(t *testing.T) {
	r := newTestRouter(t)
	postFunding(t, r, "11120", 100000)

	begin := map[string]any{
		"accountCode":             "11120",
		"statementBeginTime":      now.Add(-24 * time.Hour),
		"statementEndTime":        now,
		"statementClosingBalance": 99000,
		"statementReference":      "March statement",
		"items":                   []map[string]any{{"description": "fee", "debit": 1000}},
	}
	w, session := do(t, r, http.MethodPost, "/api/v1/reconciliations", begin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "draft", session["status"])
	sessionPath := "/api/v1/reconciliations/" + session["id"].(string)

	w, errBody := do(t, r, http.MethodPost, "/api/v1/reconciliations", begin)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperror.CodeDraftSessionExists, errBody["code"])

	w, detail := do(t, r, http.MethodGet, sessionPath, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, detail["items"], 1)

	w, done := do(t, r, http.MethodPost, sessionPath+"/complete", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "completed", done["status"])
	assert.NotNil(t, done["adjustmentJournalEntryRef"])

	w, _ = do(t, r, http.MethodDelete, sessionPath, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestInventory_ReceiveAndStockTaking(t *testing.T) {
	r := newTestRouter(t)

	w, item := do(t, r, http.MethodPost, "/api/v1/inventory", map[string]any{
		"name":             "Widget",
		"assetAccountCode": "11300",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	itemID := item["id"].(string)

	w, receipt := do(t, r, http.MethodPost, "/api/v1/inventory/"+itemID+"/receipts", map[string]any{
		"quantity":          "12",
		"unitCost":          1000,
		"offsetAccountCode": "21000",
		"receiveTime":       now.Add(-time.Hour),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.EqualValues(t, 12000, receipt["item"].(map[string]any)["bookValue"])

	w, taking := do(t, r, http.MethodPost, "/api/v1/stock-takings", map[string]any{
		"inventoryId": itemID,
		"auditTime":   now,
		"actualStock": "10",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	st := taking["stockTaking"].(map[string]any)
	assert.EqualValues(t, -2, st["stockVariance"])
	assert.EqualValues(t, -2000, st["costVariance"])

	w, acc := do(t, r, http.MethodGet, "/api/v1/accounts/82500", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2000, acc["balance"])
}

func TestErrors(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"unknown account", http.MethodGet, "/api/v1/accounts/99999", nil, http.StatusNotFound, apperror.CodeNotFound},
		{"bad session id", http.MethodGet, "/api/v1/reconciliations/not-a-uuid", nil, http.StatusBadRequest, apperror.CodeValidation},
		{"bad ref", http.MethodGet, "/api/v1/journal-entries/abc", nil, http.StatusBadRequest, apperror.CodeValidation},
		{"missing fields", http.MethodPost, "/api/v1/accounts", map[string]any{"code": "1"}, http.StatusBadRequest, apperror.CodeValidation},
		{"bad normal balance", http.MethodPost, "/api/v1/accounts", map[string]any{"code": "90000", "name": "X", "normalBalance": "sideways"}, http.StatusBadRequest, apperror.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := do(t, r, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, body["code"])
		})
	}
}

func TestBalances_RecomputeClean(t *testing.T) {
	r := newTestRouter(t)
	postFunding(t, r, "11120", 250000)

	w, body := do(t, r, http.MethodPost, "/api/v1/balances/recompute", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, false, body["repaired"])
	assert.Greater(t, body["accounts"], float64(0))
}

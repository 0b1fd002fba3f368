package verify_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intentforge/internal/canon"
	"intentforge/internal/ledger"
	"intentforge/internal/verify"
)

func validLedgerEntry(runID, ts string, bundleHash *string, kind ledger.ResultKind) ledger.Entry {
	return ledger.Entry{
		LedgerSchemaVersion: ledger.SchemaVersion,
		RunID:               runID,
		Timestamp:           ts,
		IntentSHA256:        "sha256:" + repeatHex("1"),
		BundleSHA256:        bundleHash,
		ResultKind:          kind,
		Accepted:            kind == ledger.ResultBundle,
		Mode:                ledger.ModePlanOnly,
		Policy:              ledger.PolicyDefault,
	}
}

func ledgerLine(t *testing.T, e ledger.Entry) []byte {
	t.Helper()
	b, err := canon.Canonicalize(e)
	require.NoError(t, err)
	return append(b, '\n')
}

func TestVerifyLedger_ValidFilePasses(t *testing.T) {
	bh := "sha256:" + repeatHex("2")
	e1 := validLedgerEntry("run-1", "2026-01-01T00:00:00Z", nil, ledger.ResultRefuse)
	e2 := validLedgerEntry("run-2", "2026-01-01T00:00:01Z", &bh, ledger.ResultBundle)

	var buf bytes.Buffer
	buf.Write(ledgerLine(t, e1))
	buf.Write(ledgerLine(t, e2))

	res := verify.VerifyLedger(buf.Bytes())
	assert.True(t, res.OK, "violations: %+v", res.Violations)
}

func TestVerifyLedger_EmptyFilePasses(t *testing.T) {
	res := verify.VerifyLedger(nil)
	assert.True(t, res.OK)
}

func TestVerifyLedger_DuplicateRunIDViolatesLD3(t *testing.T) {
	e1 := validLedgerEntry("dup", "2026-01-01T00:00:00Z", nil, ledger.ResultRefuse)
	e2 := validLedgerEntry("dup", "2026-01-01T00:00:01Z", nil, ledger.ResultRefuse)

	var buf bytes.Buffer
	buf.Write(ledgerLine(t, e1))
	buf.Write(ledgerLine(t, e2))

	res := verify.VerifyLedger(buf.Bytes())
	assert.False(t, res.OK)
	assertHasRule(t, res.Violations, "LD3")
}

func TestVerifyLedger_OutOfOrderTimestampsViolatesLD2(t *testing.T) {
	e1 := validLedgerEntry("run-1", "2026-01-02T00:00:00Z", nil, ledger.ResultRefuse)
	e2 := validLedgerEntry("run-2", "2026-01-01T00:00:00Z", nil, ledger.ResultRefuse)

	var buf bytes.Buffer
	buf.Write(ledgerLine(t, e1))
	buf.Write(ledgerLine(t, e2))

	res := verify.VerifyLedger(buf.Bytes())
	assert.False(t, res.OK)
	assertHasRule(t, res.Violations, "LD2")
}

func TestVerifyLedger_BundleHashNullWithBundleKindViolatesLD4(t *testing.T) {
	e := validLedgerEntry("run-1", "2026-01-01T00:00:00Z", nil, ledger.ResultBundle)

	res := verify.VerifyLedger(ledgerLine(t, e))
	assert.False(t, res.OK)
	assertHasRule(t, res.Violations, "LD4")
}

func TestVerifyLedger_BundleHashPresentWithNonBundleKindViolatesLD4(t *testing.T) {
	bh := "sha256:" + repeatHex("2")
	e := validLedgerEntry("run-1", "2026-01-01T00:00:00Z", &bh, ledger.ResultRefuse)

	res := verify.VerifyLedger(ledgerLine(t, e))
	assert.False(t, res.OK)
	assertHasRule(t, res.Violations, "LD4")
}

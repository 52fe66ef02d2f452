package cmd

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"abiscan/internal/abicache"
	"abiscan/internal/analysis"
)

// transferHex dispatches transfer(address,uint256) to a payable STOP.
//
//	PUSH1 0 CALLDATALOAD PUSH1 0xe0 SHR DUP1 PUSH4 0xa9059cbb EQ PUSH1 0x14 JUMPI
//	PUSH1 0 DUP1 REVERT JUMPDEST STOP
const transferHex = "0x60003560e01c8063a9059cbb14601457600080fd5b00"

// batchResult mirrors BatchOutput with descriptors left undecoded.
type batchResult struct {
	Input    string           `json:"input"`
	CodeHash string           `json:"codeHash"`
	ABI      []map[string]any `json:"abi"`
	Error    string           `json:"error"`
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("ABISCAN_NO_COLOR", "1")
	t.Setenv("ABISCAN_LOG_LEVEL", "error")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootJSON(t *testing.T) {
	out, err := execute(t, "", "--json", transferHex)
	require.NoError(t, err)
	assert.JSONEq(t,
		`[{"type":"function","selector":"0xa9059cbb","payable":true,"stateMutability":"payable"}]`,
		out)
}

func TestRootNoTUI(t *testing.T) {
	out, err := execute(t, "", "--no-tui", transferHex)
	require.NoError(t, err)
	assert.Contains(t, out, "# abiscan")
	assert.Contains(t, out, "; code hash 0x")
	assert.Contains(t, out, "; 1 selectors, 1 functions, 0 events")
	assert.Contains(t, out, "| `0xa9059cbb` | transfer(address,uint256) | payable | - |")
	assert.NotContains(t, out, "## Listing")
}

func TestRootFull(t *testing.T) {
	out, err := execute(t, "", "--full", transferHex)
	require.NoError(t, err)
	assert.Contains(t, out, "## Listing")
	assert.Contains(t, out, "JUMPDEST")
	assert.Contains(t, out, "selector 0xa9059cbb transfer(address,uint256)")
	assert.NotContains(t, out, "\x1b[")
}

func TestRootStdinAndFile(t *testing.T) {
	out, err := execute(t, transferHex+"\n", "--json", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "0xa9059cbb")

	path := filepath.Join(t.TempDir(), "token.hex")
	require.NoError(t, os.WriteFile(path, []byte(transferHex), 0o644))
	fromFile, err := execute(t, "", "--json", path)
	require.NoError(t, err)
	assert.Equal(t, out, fromFile)
}

func TestRootErrors(t *testing.T) {
	_, err := execute(t, "", "--json", "0xnothex")
	assert.Error(t, err)

	_, err = execute(t, "", "--json")
	assert.Error(t, err)

	_, err = execute(t, "", "--json", "--config", filepath.Join(t.TempDir(), "missing.toml"), transferHex)
	assert.Error(t, err)
}

func TestRootSignaturesFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sigs.txt")
	require.NoError(t, os.WriteFile(path, []byte("# custom\nmyTransfer(address,uint256)\n"), 0o644))

	out, err := execute(t, "", "--no-tui", "--signatures", path, transferHex)
	require.NoError(t, err)
	// Built-in names stay available.
	assert.Contains(t, out, "transfer(address,uint256)")

	bad := filepath.Join(t.TempDir(), "bad.txt")
	require.NoError(t, os.WriteFile(bad, []byte("nope\n"), 0o644))
	_, err = execute(t, "", "--no-tui", "--signatures", bad, transferHex)
	assert.Error(t, err)
}

func TestRunBatchJSON(t *testing.T) {
	out, err := execute(t, "", "run", "--json", "-q", "-w", "2", transferHex, "zz", "0x00", transferHex)
	require.NoError(t, err)

	var results []batchResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 4)

	assert.Equal(t, transferHex, results[0].Input)
	assert.Empty(t, results[0].Error)
	assert.NotEmpty(t, results[0].CodeHash)

	assert.Equal(t, "zz", results[1].Input)
	assert.NotEmpty(t, results[1].Error)
	assert.Empty(t, results[1].CodeHash)

	assert.Empty(t, results[2].Error)
	assert.Equal(t, results[0].CodeHash, results[3].CodeHash)
}

func TestRunBatchText(t *testing.T) {
	out, err := execute(t, "", "run", "-q", transferHex, "zz")
	require.NoError(t, err)
	assert.Contains(t, out, "function 0xa9059cbb payable    -  transfer(address,uint256)")
	assert.Contains(t, out, "# zz\nerror: ")
}

func TestRunAllInputsFail(t *testing.T) {
	_, err := execute(t, "", "run", "-q", "zz", "0x0")
	assert.Error(t, err)
}

func TestWatchWithoutFollow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deployed.txt")
	body := strings.Join([]string{
		"# collected",
		transferHex,
		"",
		"not hex",
		"0x00",
	}, "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	out, err := execute(t, "", "watch", "--follow=false", path)
	require.NoError(t, err)

	var results []batchResult
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		var r batchResult
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &r))
		results = append(results, r)
	}
	require.Len(t, results, 3)
	assert.Len(t, results[0].ABI, 1)
	assert.NotEmpty(t, results[1].Error)
	assert.Empty(t, results[2].Error)
	assert.Empty(t, results[2].ABI)
}

func TestWatchMissingFile(t *testing.T) {
	_, err := execute(t, "", "watch", "--follow=false", filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestSchema(t *testing.T) {
	out, err := execute(t, "", "schema")
	require.NoError(t, err)
	assert.Contains(t, out, `"historySize"`)
	assert.Contains(t, out, `"signaturesFile"`)
}

func TestModelLifecycle(t *testing.T) {
	code, err := abicache.ReadBytecode(transferHex)
	require.NoError(t, err)

	cache := abicache.New(4, analysis.HistorySize)
	m := NewModel("token", code, cache, analysis.BuiltinSignatures())
	assert.Contains(t, m.View(), "Q: quit")

	next, _ := m.Update(analyzedMsg{entry: cache.Analyze(code)})
	m = next.(model)
	require.NotNil(t, m.entry)
	assert.False(t, m.loading)
	assert.Len(t, m.descriptors.Items(), 1)

	item := m.descriptors.Items()[0].(descriptorItem)
	assert.Equal(t, 0x14, item.dest)
	assert.Equal(t, "transfer(address,uint256)", item.names)

	m.jumpTo(item.dest)
	assert.Equal(t, viewListing, m.mode)
	assert.Contains(t, m.View(), "JUMPDEST")

	m.mode = viewSummary
	m.jumpTo(0x999)
	assert.Equal(t, viewSummary, m.mode)
}

package analysis

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"

	"abiscan/internal/disasm"
)

// SignatureDB names selectors and event topics by hashing known text
// signatures. It is only read after construction and may be shared between
// goroutines once loaded.
type SignatureDB struct {
	functions map[string][]string // selector -> signatures
	events    map[string][]string // topic -> signatures
}

// NewSignatureDB returns an empty database.
func NewSignatureDB() *SignatureDB {
	return &SignatureDB{
		functions: make(map[string][]string),
		events:    make(map[string][]string),
	}
}

var builtinFunctions = []string{
	// ERC-20
	"totalSupply()",
	"balanceOf(address)",
	"transfer(address,uint256)",
	"transferFrom(address,address,uint256)",
	"approve(address,uint256)",
	"allowance(address,address)",
	"name()",
	"symbol()",
	"decimals()",
	// ERC-721 / ERC-165
	"ownerOf(uint256)",
	"safeTransferFrom(address,address,uint256)",
	"safeTransferFrom(address,address,uint256,bytes)",
	"setApprovalForAll(address,bool)",
	"getApproved(uint256)",
	"isApprovedForAll(address,address)",
	"supportsInterface(bytes4)",
	// Ownable
	"owner()",
	"transferOwnership(address)",
	"renounceOwnership()",
}

var builtinEvents = []string{
	"Transfer(address,address,uint256)",
	"Approval(address,address,uint256)",
	"ApprovalForAll(address,address,bool)",
	"OwnershipTransferred(address,address)",
}

// BuiltinSignatures returns a database holding the common token and
// ownership interfaces.
func BuiltinSignatures() *SignatureDB {
	db := NewSignatureDB()
	for _, sig := range builtinFunctions {
		db.AddFunction(sig)
	}
	for _, sig := range builtinEvents {
		db.AddEvent(sig)
	}
	return db
}

// SelectorOf returns the 0x-prefixed selector of a function signature.
func SelectorOf(signature string) string {
	return disasm.Hex(crypto.Keccak256([]byte(normalizeSignature(signature)))[:SelectorSize])
}

// TopicOf returns the 0x-prefixed topic hash of an event signature.
func TopicOf(signature string) string {
	return disasm.Hex(crypto.Keccak256([]byte(normalizeSignature(signature))))
}

func normalizeSignature(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// AddFunction registers a function signature and returns its selector.
func (db *SignatureDB) AddFunction(signature string) string {
	signature = normalizeSignature(signature)
	sel := SelectorOf(signature)
	db.functions[sel] = appendUnique(db.functions[sel], signature)
	return sel
}

// AddEvent registers an event signature and returns its topic.
func (db *SignatureDB) AddEvent(signature string) string {
	signature = normalizeSignature(signature)
	topic := TopicOf(signature)
	db.events[topic] = appendUnique(db.events[topic], signature)
	return topic
}

func appendUnique(list []string, s string) []string {
	for _, have := range list {
		if have == s {
			return list
		}
	}
	return append(list, s)
}

// Load reads one signature per line. Lines starting with "event " are event
// signatures, "#" starts a comment and blank lines are skipped.
func (db *SignatureDB) Load(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		event := false
		if rest, ok := strings.CutPrefix(line, "event "); ok {
			event = true
			line = strings.TrimSpace(rest)
		}
		if !isSignature(line) {
			return fmt.Errorf("line %d: malformed signature %q", lineNo, line)
		}
		if event {
			db.AddEvent(line)
		} else {
			db.AddFunction(line)
		}
	}
	return scanner.Err()
}

// LoadFile is Load over the named file.
func (db *SignatureDB) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open signatures: %w", err)
	}
	defer f.Close()

	if err := db.Load(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func isSignature(s string) bool {
	open := strings.IndexByte(s, '(')
	return open > 0 && strings.HasSuffix(s, ")")
}

// Function returns the known signatures hashing to selector.
func (db *SignatureDB) Function(selector string) []string {
	return db.functions[strings.ToLower(selector)]
}

// Event returns the known signatures hashing to topic.
func (db *SignatureDB) Event(topic string) []string {
	return db.events[strings.ToLower(topic)]
}

// Len is the number of distinct signatures held.
func (db *SignatureDB) Len() int {
	n := 0
	for _, sigs := range db.functions {
		n += len(sigs)
	}
	for _, sigs := range db.events {
		n += len(sigs)
	}
	return n
}

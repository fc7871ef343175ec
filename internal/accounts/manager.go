package accounts

import (
	"fmt"
	"sync"

	"github.com/echo-chain/sidenode/internal/amount"
	"github.com/echo-chain/sidenode/internal/store"
	"go.uber.org/zap"
)

const Collection = "accounts"

// TokenIdentifier builds the balance-map key for a token (§4.2): bare
// symbol for tokens issued by the chain's native issuer, "SYMBOL@ISSUER"
// otherwise.
func TokenIdentifier(symbol, issuer, nativeIssuer string) string {
	if issuer == "" || issuer == nativeIssuer {
		return symbol
	}
	return symbol + "@" + issuer
}

// Manager owns all accounts, in-memory cache over the store adapter,
// mirroring the teacher's AccountManager (cache + Pebble store) but keyed
// by plain account name instead of an EVM address.
type Manager struct {
	mu    sync.Mutex
	cache map[string]*Account
	st    store.Store
	log   *zap.SugaredLogger
}

func NewManager(st store.Store, log *zap.SugaredLogger) *Manager {
	return &Manager{cache: make(map[string]*Account), st: st, log: log}
}

// GetOrCreate returns the account, loading it from the store or creating
// (and persisting) a new zero-balance account if it has never been seen.
// This backs the dispatcher's upsertAccounts step (spec §4.1.2).
func (m *Manager) GetOrCreate(name string) *Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getOrCreateLocked(name)
}

func (m *Manager) getOrCreateLocked(name string) *Account {
	if acc, ok := m.cache[name]; ok {
		return acc
	}
	if doc, ok, _ := m.st.FindOne(Collection, name); ok {
		acc := docToAccount(doc)
		m.cache[name] = acc
		return acc
	}
	acc := NewAccount(name)
	m.cache[name] = acc
	_ = m.persistLocked(acc)
	return acc
}

// Get returns an existing account without creating one; ok=false if absent.
func (m *Manager) Get(name string) (*Account, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if acc, ok := m.cache[name]; ok {
		return acc, true
	}
	if doc, ok, _ := m.st.FindOne(Collection, name); ok {
		acc := docToAccount(doc)
		m.cache[name] = acc
		return acc, true
	}
	return nil, false
}

// AdjustBalance is the sole value-conservation primitive (spec §4.2):
// loads the account, computes new = current + delta, rejects if negative,
// otherwise writes the new value with a single $set. Every transaction
// that moves value must go through this.
func (m *Manager) AdjustBalance(name, tokenID string, delta *amount.Amount) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	acc := m.getOrCreateLocked(name)
	newBal := acc.Balance(tokenID).Add(delta)
	if newBal.IsNeg() {
		if m.log != nil {
			m.log.Debugw("adjustBalance overdraft rejected", "account", name, "token", tokenID,
				"balance", acc.Balance(tokenID).String(), "delta", delta.String())
		}
		return fmt.Errorf("adjustBalance: insufficient balance for %s on %s: have %s, delta %s",
			name, tokenID, acc.Balance(tokenID).String(), delta.String())
	}
	acc.Balances[tokenID] = newBal
	return m.persistLocked(acc)
}

// SetVotes replaces an account's voted-witness set (used by the witness
// vote-weight maintainer, §4.8).
func (m *Manager) SetVotes(name string, votes map[string]struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc := m.getOrCreateLocked(name)
	acc.VotedWitnesses = votes
	_ = m.persistLocked(acc)
}

// AdjustWitnessWeight adds delta (which may be negative) to a witness's
// TotalVoteWeight, floored at zero (§4.8 step 4).
func (m *Manager) AdjustWitnessWeight(witness string, delta *amount.Amount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc := m.getOrCreateLocked(witness)
	newWeight := acc.TotalVoteWeight.Add(delta)
	if newWeight.IsNeg() {
		newWeight = amount.Zero()
	}
	acc.TotalVoteWeight = newWeight
	return m.persistLocked(acc)
}

// RegisterWitness sets the public key marking an account as a witness.
func (m *Manager) RegisterWitness(name, publicKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc := m.getOrCreateLocked(name)
	acc.WitnessPublicKey = publicKey
	return m.persistLocked(acc)
}

// List returns every account matching filter (nil filter = all), applying
// limit/offset over a name-sorted result set. Backs the read-only
// `/accounts` HTTP surface.
func (m *Manager) List(filter func(*Account) bool, limit, offset int) ([]*Account, int, error) {
	docs, err := m.st.FindMany(Collection, nil, store.FindOptions{SortBy: "name"})
	if err != nil {
		return nil, 0, err
	}
	all := make([]*Account, 0, len(docs))
	for _, d := range docs {
		acc := docToAccount(d)
		if filter == nil || filter(acc) {
			all = append(all, acc)
		}
	}
	total := len(all)
	if offset > 0 {
		if offset >= len(all) {
			all = nil
		} else {
			all = all[offset:]
		}
	}
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, total, nil
}

func (m *Manager) persistLocked(acc *Account) error {
	return m.st.InsertOne(Collection, acc.Name, accountToDoc(acc))
}

func accountToDoc(acc *Account) store.Doc {
	balances := make(map[string]string, len(acc.Balances))
	for k, v := range acc.Balances {
		balances[k] = v.String()
	}
	votes := make([]string, 0, len(acc.VotedWitnesses))
	for w := range acc.VotedWitnesses {
		votes = append(votes, w)
	}
	weight := "0"
	if acc.TotalVoteWeight != nil {
		weight = acc.TotalVoteWeight.String()
	}
	return store.Doc{
		"name":             acc.Name,
		"balances":         balances,
		"votedWitnesses":   votes,
		"witnessPublicKey": acc.WitnessPublicKey,
		"totalVoteWeight":  weight,
	}
}

func docToAccount(d store.Doc) *Account {
	acc := NewAccount(fmt.Sprint(d["name"]))
	if balances, ok := d["balances"].(map[string]any); ok {
		for k, v := range balances {
			if s, ok := v.(string); ok {
				if a, err := amount.Parse(s); err == nil {
					acc.Balances[k] = a
				}
			}
		}
	}
	if votes, ok := d["votedWitnesses"].([]any); ok {
		for _, v := range votes {
			if s, ok := v.(string); ok {
				acc.VotedWitnesses[s] = struct{}{}
			}
		}
	}
	if wpk, ok := d["witnessPublicKey"].(string); ok {
		acc.WitnessPublicKey = wpk
	}
	if w, ok := d["totalVoteWeight"].(string); ok {
		if a, err := amount.Parse(w); err == nil {
			acc.TotalVoteWeight = a
		}
	}
	return acc
}

// Package launchpad implements the token-launch lifecycle: launch
// record creation, presale configuration, refundable participation, and
// post-TGE claims (spec §4.6). Grounded on the teacher's status-machine
// style validation (sequential precondition checks before any state
// mutation) generalized from order lifecycle to a multi-stage presale.
package launchpad

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/echo-chain/sidenode/internal/accounts"
	"github.com/echo-chain/sidenode/internal/amount"
)

type Status string

const (
	Upcoming                   Status = "UPCOMING"
	PendingValidation          Status = "PENDING_VALIDATION"
	PresaleScheduled           Status = "PRESALE_SCHEDULED"
	PresaleActive              Status = "PRESALE_ACTIVE"
	PresaleEnded               Status = "PRESALE_ENDED"
	PresaleSucceededSoftCapMet Status = "PRESALE_SUCCEEDED_SOFTCAP_MET"
	PresaleSucceededHardCapMet Status = "PRESALE_SUCCEEDED_HARDCAP_MET"
	PresaleFailedSoftCapNotMet Status = "PRESALE_FAILED_SOFTCAP_NOT_MET"
	TGE                        Status = "TGE"
	TradingLive                Status = "TRADING_LIVE"
	Completed                  Status = "COMPLETED"
	Cancelled                  Status = "CANCELLED"
	Paused                     Status = "PAUSED"
)

// AllocationType describes how claim-tokens resolves a participant's
// entitlement. Only Participants is implemented; spec §4.6 requires
// every other kind to reject explicitly rather than silently no-op.
type AllocationType string

const (
	AllocationParticipants AllocationType = "PRESALE_PARTICIPANTS"
)

// PresaleDetails is the configuration set by configure-presale.
type PresaleDetails struct {
	PricePerToken   *amount.Amount
	HardCap         *amount.Amount
	SoftCap         *amount.Amount
	MinContribution *amount.Amount
	MaxContribution *amount.Amount
	StartTime       int64
	EndTime         int64
	QuoteAsset      string
	AllocationType  AllocationType
}

// Participant tracks one contributor's presale position.
type Participant struct {
	Account          string
	ContributedTotal *amount.Amount
	TokensAllocated  *amount.Amount
	Claimed          bool
}

// Launchpad is the per-launch record (spec §3 Launchpad).
type Launchpad struct {
	ID                string
	Owner             string
	TokenSymbol       string
	TokenName         string
	Decimals          int64
	TotalSupply       *amount.Amount
	Description       string
	Website           string
	Status            Status
	Presale           *PresaleDetails
	Participants      map[string]*Participant
	TotalQuoteRaised   *amount.Amount
	MainTokenID       string
}

// Registry owns every launchpad record and settles presale contributions
// and claims through the shared account ledger.
type Registry struct {
	mu        sync.Mutex
	pads      map[string]*Launchpad
	byTok     map[string]string // token symbol -> launchpad id, guards "a launchpad already tracks it"
	whitelist map[string]map[string]struct{} // launchpad id -> allowed accounts, absent means open
	accts     *accounts.Manager
}

func NewRegistry(accts *accounts.Manager) *Registry {
	return &Registry{
		pads: make(map[string]*Launchpad), byTok: make(map[string]string),
		whitelist: make(map[string]map[string]struct{}), accts: accts,
	}
}

func launchID(sender, symbol, txID string) string {
	h := sha256.Sum256([]byte(sender + "|" + symbol + "|" + txID))
	return "pad-" + hex.EncodeToString(h[:])[:12]
}

var allowedSymbolChars = func() [256]bool {
	var t [256]bool
	for c := 'A'; c <= 'Z'; c++ {
		t[c] = true
	}
	for c := '0'; c <= '9'; c++ {
		t[c] = true
	}
	return t
}()

func validSymbol(s string) bool {
	if len(s) < 3 || len(s) > 10 {
		return false
	}
	for _, c := range s {
		if c > 255 || !allowedSymbolChars[c] {
			return false
		}
	}
	return true
}

// LaunchToken implements launchpad-launch-token (spec §4.6).
func (r *Registry) LaunchToken(sender, txID, symbol, name string, decimals int64, totalSupply *amount.Amount, description, website string) (*Launchpad, error) {
	if !validSymbol(symbol) {
		return nil, fmt.Errorf("launchToken: symbol %q must be 3-10 uppercase letters/digits", symbol)
	}
	if len(name) < 1 || len(name) > 50 {
		return nil, fmt.Errorf("launchToken: name length must be 1-50")
	}
	if decimals < 0 || decimals > 18 {
		return nil, fmt.Errorf("launchToken: decimals must be 0-18")
	}
	if totalSupply == nil || !totalSupply.IsPositive() {
		return nil, fmt.Errorf("launchToken: totalSupply must be positive")
	}
	if len(description) > 1000 {
		return nil, fmt.Errorf("launchToken: description exceeds 1000 chars")
	}
	if website != "" {
		if len(website) > 2048 || (len(website) < 7 || website[:7] != "http://") && (len(website) < 8 || website[:8] != "https://") {
			return nil, fmt.Errorf("launchToken: website must be http(s)-prefixed and at most 2048 chars")
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byTok[symbol]; exists {
		return nil, fmt.Errorf("launchToken: a launchpad already tracks symbol %s", symbol)
	}

	l := &Launchpad{
		ID: launchID(sender, symbol, txID), Owner: sender, TokenSymbol: symbol, TokenName: name,
		Decimals: decimals, TotalSupply: totalSupply, Description: description, Website: website,
		Status: Upcoming, Participants: make(map[string]*Participant), TotalQuoteRaised: amount.Zero(),
	}
	r.pads[l.ID] = l
	r.byTok[symbol] = l.ID
	return l, nil
}

// ConfigurePresale implements launchpad-configure-presale (spec §4.6).
func (r *Registry) ConfigurePresale(padID, sender string, d PresaleDetails) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.pads[padID]
	if !ok {
		return fmt.Errorf("configurePresale: unknown launchpad %s", padID)
	}
	if l.Owner != sender {
		return fmt.Errorf("configurePresale: %s is not the owner of %s", sender, padID)
	}
	if l.Status != Upcoming && l.Status != PendingValidation {
		return fmt.Errorf("configurePresale: launchpad %s is in status %s, not UPCOMING/PENDING_VALIDATION", padID, l.Status)
	}
	if d.PricePerToken == nil || !d.PricePerToken.IsPositive() {
		return fmt.Errorf("configurePresale: pricePerToken must be positive")
	}
	if d.HardCap == nil || !d.HardCap.IsPositive() {
		return fmt.Errorf("configurePresale: hardCap must be positive")
	}
	if d.SoftCap != nil && d.SoftCap.GT(d.HardCap) {
		return fmt.Errorf("configurePresale: softCap must be <= hardCap")
	}
	if d.StartTime >= d.EndTime {
		return fmt.Errorf("configurePresale: startTime must be before endTime")
	}
	dc := d
	l.Presale = &dc
	l.Status = PresaleScheduled
	return nil
}

// ParticipatePresale implements launchpad-participate-presale (spec §4.6).
func (r *Registry) ParticipatePresale(padID, account string, contribution *amount.Amount) error {
	r.mu.Lock()
	l, ok := r.pads[padID]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("participatePresale: unknown launchpad %s", padID)
	}
	if l.Status != PresaleActive {
		r.mu.Unlock()
		return fmt.Errorf("participatePresale: launchpad %s is not PRESALE_ACTIVE", padID)
	}
	if !r.isWhitelisted(padID, account) {
		r.mu.Unlock()
		return fmt.Errorf("participatePresale: %s is not whitelisted for %s", account, padID)
	}
	p := l.Presale
	if p == nil {
		r.mu.Unlock()
		return fmt.Errorf("participatePresale: launchpad %s has no presale configured", padID)
	}
	if p.MinContribution != nil && contribution.LT(p.MinContribution) {
		r.mu.Unlock()
		return fmt.Errorf("participatePresale: contribution below minContribution")
	}
	if p.MaxContribution != nil && contribution.GT(p.MaxContribution) {
		r.mu.Unlock()
		return fmt.Errorf("participatePresale: contribution above maxContribution")
	}
	if l.TotalQuoteRaised.Add(contribution).GT(p.HardCap) {
		r.mu.Unlock()
		return fmt.Errorf("participatePresale: contribution would exceed hardCap")
	}
	quoteAsset := p.QuoteAsset
	r.mu.Unlock()

	if err := r.accts.AdjustBalance(account, quoteAsset, contribution.Neg()); err != nil {
		return fmt.Errorf("participatePresale: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	participant, ok := l.Participants[account]
	if !ok {
		participant = &Participant{Account: account, ContributedTotal: amount.Zero()}
		l.Participants[account] = participant
	}
	participant.ContributedTotal = participant.ContributedTotal.Add(contribution)
	l.TotalQuoteRaised = l.TotalQuoteRaised.Add(contribution)
	// tokensAllocated = contribution / pricePerToken, using the presale's
	// fixed price; recomputed on the full contributed total so repeated
	// contributions never lose precision to repeated truncation.
	participant.TokensAllocated = participant.ContributedTotal.Div(p.PricePerToken)
	return nil
}

// ClaimTokens implements launchpad-claim-tokens (spec §4.6).
func (r *Registry) ClaimTokens(padID, account string) error {
	r.mu.Lock()
	l, ok := r.pads[padID]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("claimTokens: unknown launchpad %s", padID)
	}
	switch l.Status {
	case PresaleSucceededSoftCapMet, PresaleSucceededHardCapMet, TGE, TradingLive, Completed:
	default:
		r.mu.Unlock()
		return fmt.Errorf("claimTokens: launchpad %s is not in a claimable status (%s)", padID, l.Status)
	}
	if l.MainTokenID == "" {
		r.mu.Unlock()
		return fmt.Errorf("claimTokens: launchpad %s has no mainTokenId assigned", padID)
	}
	if l.Presale == nil || l.Presale.AllocationType != AllocationParticipants {
		r.mu.Unlock()
		return fmt.Errorf("claimTokens: only the PRESALE_PARTICIPANTS allocation type is implemented")
	}
	p, ok := l.Participants[account]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("claimTokens: %s did not participate in %s", account, padID)
	}
	if p.Claimed {
		r.mu.Unlock()
		return fmt.Errorf("claimTokens: %s already claimed", account)
	}
	tokenSymbol, amt := l.MainTokenID, p.TokensAllocated
	p.Claimed = true
	r.mu.Unlock()

	if err := r.accts.AdjustBalance(account, tokenSymbol, amt); err != nil {
		r.mu.Lock()
		p.Claimed = false
		r.mu.Unlock()
		return fmt.Errorf("claimTokens: %w", err)
	}
	return nil
}

// --- supplemental admin operations (spec §6 wire contract, recovered
// per SPEC_FULL.md's launchpad expansion) ---

// UpdateStatus implements LAUNCHPAD_UPDATE_STATUS: an administrative
// transition not gated by the happy-path sequence above (e.g. pausing,
// cancelling, or advancing past presale end by external determination).
func (r *Registry) UpdateStatus(padID, sender string, newStatus Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.pads[padID]
	if !ok {
		return fmt.Errorf("updateStatus: unknown launchpad %s", padID)
	}
	if l.Owner != sender {
		return fmt.Errorf("updateStatus: %s is not the owner of %s", sender, padID)
	}
	l.Status = newStatus
	return nil
}

// FinalizePresale implements LAUNCHPAD_FINALIZE_PRESALE: once a
// PRESALE_ACTIVE window's endTime has passed, determines success/failure
// against softCap/hardCap (spec §4.6's status machine transition out of
// PRESALE_ENDED).
func (r *Registry) FinalizePresale(padID string, now int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.pads[padID]
	if !ok {
		return fmt.Errorf("finalizePresale: unknown launchpad %s", padID)
	}
	if l.Status != PresaleActive && l.Status != PresaleEnded {
		return fmt.Errorf("finalizePresale: launchpad %s is not in a finalizable status", padID)
	}
	p := l.Presale
	if p == nil {
		return fmt.Errorf("finalizePresale: launchpad %s has no presale configured", padID)
	}
	if now < p.EndTime {
		return fmt.Errorf("finalizePresale: presale window for %s has not ended", padID)
	}
	switch {
	case l.TotalQuoteRaised.GTE(p.HardCap):
		l.Status = PresaleSucceededHardCapMet
	case p.SoftCap != nil && l.TotalQuoteRaised.GTE(p.SoftCap):
		l.Status = PresaleSucceededSoftCapMet
	default:
		l.Status = PresaleFailedSoftCapNotMet
	}
	return nil
}

// SetMainToken implements LAUNCHPAD_SET_MAIN_TOKEN: binds the on-chain
// token identifier claim-tokens will credit, once minted via the token
// module post-TGE.
func (r *Registry) SetMainToken(padID, sender, tokenSymbol string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.pads[padID]
	if !ok {
		return fmt.Errorf("setMainToken: unknown launchpad %s", padID)
	}
	if l.Owner != sender {
		return fmt.Errorf("setMainToken: %s is not the owner of %s", sender, padID)
	}
	l.MainTokenID = tokenSymbol
	return nil
}

// RefundPresale implements LAUNCHPAD_REFUND_PRESALE: available only after
// a softcap-not-met failure, returns every participant's full
// contribution via adjustBalance.
func (r *Registry) RefundPresale(padID string) error {
	r.mu.Lock()
	l, ok := r.pads[padID]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("refundPresale: unknown launchpad %s", padID)
	}
	if l.Status != PresaleFailedSoftCapNotMet {
		r.mu.Unlock()
		return fmt.Errorf("refundPresale: launchpad %s did not fail softcap", padID)
	}
	quoteAsset := ""
	if l.Presale != nil {
		quoteAsset = l.Presale.QuoteAsset
	}
	participants := make([]*Participant, 0, len(l.Participants))
	for _, p := range l.Participants {
		participants = append(participants, p)
	}
	r.mu.Unlock()

	for _, p := range participants {
		if p.Claimed || p.ContributedTotal.IsZero() {
			continue
		}
		if err := r.accts.AdjustBalance(p.Account, quoteAsset, p.ContributedTotal); err != nil {
			return fmt.Errorf("refundPresale: refund to %s failed: %w", p.Account, err)
		}
		p.Claimed = true // reuse the claim flag to make refund idempotent
	}
	return nil
}

// UpdateWhitelist implements LAUNCHPAD_UPDATE_WHITELIST: gates
// participation before PRESALE_ACTIVE for launchpads that opt into an
// allowlist; a nil/absent whitelist means the presale is open to anyone.
func (r *Registry) UpdateWhitelist(padID, sender string, add, remove []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.pads[padID]
	if !ok {
		return fmt.Errorf("updateWhitelist: unknown launchpad %s", padID)
	}
	if l.Owner != sender {
		return fmt.Errorf("updateWhitelist: %s is not the owner of %s", sender, padID)
	}
	set, ok := r.whitelist[padID]
	if !ok {
		set = make(map[string]struct{})
		r.whitelist[padID] = set
	}
	for _, a := range add {
		set[a] = struct{}{}
	}
	for _, a := range remove {
		delete(set, a)
	}
	return nil
}

// isWhitelisted reports whether account may participate: no whitelist
// configured for padID means the presale is open to anyone.
func (r *Registry) isWhitelisted(padID, account string) bool {
	set, ok := r.whitelist[padID]
	if !ok || len(set) == 0 {
		return true
	}
	_, allowed := set[account]
	return allowed
}

func (r *Registry) Get(padID string) (*Launchpad, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.pads[padID]
	return l, ok
}

func (r *Registry) All() []*Launchpad {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Launchpad, 0, len(r.pads))
	for _, l := range r.pads {
		out = append(out, l)
	}
	return out
}

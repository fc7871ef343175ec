package api

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/echo-chain/sidenode/internal/accounts"
	"github.com/echo-chain/sidenode/internal/events"
	"github.com/gorilla/mux"
)

// accountView is the read-only projection of accounts.Account: balances
// rendered through formatBalance rather than the raw Amount wire type.
type accountView struct {
	Name             string               `json:"name"`
	Balances         map[string]moneyView `json:"balances"`
	IsWitness        bool                 `json:"isWitness"`
	WitnessPublicKey string               `json:"witnessPublicKey,omitempty"`
	VotedWitnesses   []string             `json:"votedWitnesses"`
	TotalVoteWeight  moneyView            `json:"totalVoteWeight"`
}

func (s *Server) renderAccount(acc *accounts.Account) accountView {
	balances := make(map[string]moneyView, len(acc.Balances))
	for tokenID, bal := range acc.Balances {
		balances[tokenID] = formatBalance(s.Tokens, tokenID, bal)
	}
	votes := make([]string, 0, len(acc.VotedWitnesses))
	for w := range acc.VotedWitnesses {
		votes = append(votes, w)
	}
	sort.Strings(votes)
	return accountView{
		Name:             acc.Name,
		Balances:         balances,
		IsWitness:        acc.IsWitness(),
		WitnessPublicKey: acc.WitnessPublicKey,
		VotedWitnesses:   votes,
		TotalVoteWeight:  formatMoney(acc.TotalVoteWeight, s.NativeDecimalsFor()),
	}
}

// NativeDecimalsFor resolves the chain's configured native token's
// decimals for rendering vote-weight amounts, which are always
// native-token-denominated (spec §4.8).
func (s *Server) NativeDecimalsFor() int {
	for _, t := range s.Tokens.All() {
		if t.Mintable && t.Issuer == "" {
			return t.Decimals
		}
	}
	return 0
}

func pagingParams(r *http.Request) (limit, offset int) {
	q := r.URL.Query()
	limit, _ = strconv.Atoi(q.Get("limit"))
	offset, _ = strconv.Atoi(q.Get("offset"))
	if limit < 0 {
		limit = 0
	}
	if offset < 0 {
		offset = 0
	}
	return
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	hasToken := q.Get("hasToken")
	isWitnessFilter := q.Get("isWitness")
	sortDescending := q.Get("sortDirection") == "desc"

	filter := func(a *accounts.Account) bool {
		if hasToken != "" {
			if _, ok := a.Balances[hasToken]; !ok {
				return false
			}
		}
		if isWitnessFilter == "true" && !a.IsWitness() {
			return false
		}
		if isWitnessFilter == "false" && a.IsWitness() {
			return false
		}
		return true
	}

	limit, offset := pagingParams(r)
	all, total, err := s.Accts.List(filter, 0, 0)
	if err != nil {
		respondInternalError(w, err)
		return
	}
	if sortDescending {
		for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
			all[i], all[j] = all[j], all[i]
		}
	}
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

	views := make([]accountView, 0, len(all))
	for _, a := range all {
		views = append(views, s.renderAccount(a))
	}
	respondList(w, views, total, limit, offset)
}

func (s *Server) handleAccountsCount(w http.ResponseWriter, r *http.Request) {
	_, total, err := s.Accts.List(nil, 0, 0)
	if err != nil {
		respondInternalError(w, err)
		return
	}
	respondData(w, map[string]int{"count": total})
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	acc, ok := s.Accts.Get(name)
	if !ok {
		respondNotFound(w, "account")
		return
	}
	respondData(w, s.renderAccount(acc))
}

func (s *Server) handleAccountTokens(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	acc, ok := s.Accts.Get(name)
	if !ok {
		respondNotFound(w, "account")
		return
	}
	balances := make(map[string]moneyView, len(acc.Balances))
	for tokenID, bal := range acc.Balances {
		balances[tokenID] = formatBalance(s.Tokens, tokenID, bal)
	}
	respondData(w, balances)
}

func (s *Server) handleAccountTransactions(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	q := r.URL.Query()
	action := q.Get("type")
	dataKey := q.Get("dataKey")
	dataValue := q.Get("dataValue")
	limit, offset := pagingParams(r)

	recs, err := s.Jrnl.Query(events.Filter{Actor: name, Action: action}, 0, 0, true)
	if err != nil {
		respondInternalError(w, err)
		return
	}
	if dataKey != "" {
		filtered := recs[:0]
		for _, rec := range recs {
			v, ok := rec.Data[dataKey]
			if !ok {
				continue
			}
			if dataValue != "" {
				if toString(v) != dataValue {
					continue
				}
			}
			filtered = append(filtered, rec)
		}
		recs = filtered
	}
	total := len(recs)
	if offset > 0 {
		if offset >= len(recs) {
			recs = nil
		} else {
			recs = recs[offset:]
		}
	}
	if limit > 0 && limit < len(recs) {
		recs = recs[:limit]
	}
	respondList(w, recs, total, limit, offset)
}

package api

import (
	"net/http"
	"sort"

	"github.com/echo-chain/sidenode/internal/accounts"
	"github.com/gorilla/mux"
)

type witnessView struct {
	Name            string    `json:"name"`
	PublicKey       string    `json:"publicKey"`
	TotalVoteWeight moneyView `json:"totalVoteWeight"`
}

func (s *Server) renderWitness(acc *accounts.Account) witnessView {
	return witnessView{Name: acc.Name, PublicKey: acc.WitnessPublicKey, TotalVoteWeight: formatMoney(acc.TotalVoteWeight, s.NativeDecimalsFor())}
}

func (s *Server) handleListWitnesses(w http.ResponseWriter, r *http.Request) {
	all, _, err := s.Accts.List(func(a *accounts.Account) bool { return a.IsWitness() }, 0, 0)
	if err != nil {
		respondInternalError(w, err)
		return
	}
	views := make([]witnessView, 0, len(all))
	for _, a := range all {
		views = append(views, s.renderWitness(a))
	}
	respondData(w, views)
}

func (s *Server) handleWitnessDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	acc, ok := s.Accts.Get(name)
	if !ok || !acc.IsWitness() {
		respondNotFound(w, "witness")
		return
	}
	respondData(w, s.renderAccount(acc))
}

// handleVotesCastBy returns the set of witnesses a voter currently
// supports (spec §3 Account.votedWitnesses).
func (s *Server) handleVotesCastBy(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	acc, ok := s.Accts.Get(name)
	if !ok {
		respondNotFound(w, "account")
		return
	}
	votes := make([]string, 0, len(acc.VotedWitnesses))
	for v := range acc.VotedWitnesses {
		votes = append(votes, v)
	}
	sort.Strings(votes)
	respondData(w, votes)
}

// handleVotersFor returns every account currently voting for the named
// witness, scanning the account set since votes are only indexed from the
// voter's side (spec §3).
func (s *Server) handleVotersFor(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	all, _, err := s.Accts.List(func(a *accounts.Account) bool {
		_, voting := a.VotedWitnesses[name]
		return voting
	}, 0, 0)
	if err != nil {
		respondInternalError(w, err)
		return
	}
	voters := make([]string, 0, len(all))
	for _, a := range all {
		voters = append(voters, a.Name)
	}
	sort.Strings(voters)
	respondData(w, voters)
}

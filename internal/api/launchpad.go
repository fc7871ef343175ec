package api

import (
	"net/http"

	"github.com/echo-chain/sidenode/internal/amount"
	"github.com/echo-chain/sidenode/internal/launchpad"
	"github.com/gorilla/mux"
)

type presaleView struct {
	PricePerToken   string `json:"pricePerToken"`
	HardCap         string `json:"hardCap"`
	SoftCap         string `json:"softCap,omitempty"`
	MinContribution string `json:"minContribution,omitempty"`
	MaxContribution string `json:"maxContribution,omitempty"`
	StartTime       int64  `json:"startTime"`
	EndTime         int64  `json:"endTime"`
	QuoteAsset      string `json:"quoteAsset"`
	AllocationType  string `json:"allocationType"`
}

type launchpadView struct {
	ID               string       `json:"id"`
	Owner            string       `json:"owner"`
	TokenSymbol      string       `json:"tokenSymbol"`
	TokenName        string       `json:"tokenName"`
	Decimals         int64        `json:"decimals"`
	TotalSupply      string       `json:"totalSupply"`
	Description      string       `json:"description,omitempty"`
	Website          string       `json:"website,omitempty"`
	Status           string       `json:"status"`
	Presale          *presaleView `json:"presale,omitempty"`
	ParticipantCount int          `json:"participantCount"`
	TotalQuoteRaised string       `json:"totalQuoteRaised"`
	MainTokenID      string       `json:"mainTokenId,omitempty"`
}

func renderLaunchpad(l *launchpad.Launchpad) launchpadView {
	v := launchpadView{
		ID: l.ID, Owner: l.Owner, TokenSymbol: l.TokenSymbol, TokenName: l.TokenName,
		Decimals: l.Decimals, TotalSupply: l.TotalSupply.String(), Description: l.Description,
		Website: l.Website, Status: string(l.Status), ParticipantCount: len(l.Participants),
		TotalQuoteRaised: l.TotalQuoteRaised.String(), MainTokenID: l.MainTokenID,
	}
	if l.Presale != nil {
		p := l.Presale
		pv := &presaleView{
			PricePerToken: p.PricePerToken.String(), HardCap: p.HardCap.String(),
			StartTime: p.StartTime, EndTime: p.EndTime, QuoteAsset: p.QuoteAsset,
			AllocationType: string(p.AllocationType),
		}
		if p.SoftCap != nil {
			pv.SoftCap = p.SoftCap.String()
		}
		if p.MinContribution != nil {
			pv.MinContribution = p.MinContribution.String()
		}
		if p.MaxContribution != nil {
			pv.MaxContribution = p.MaxContribution.String()
		}
		v.Presale = pv
	}
	return v
}

func (s *Server) handleListLaunchpads(w http.ResponseWriter, r *http.Request) {
	all := s.Pads.All()
	views := make([]launchpadView, 0, len(all))
	for _, l := range all {
		views = append(views, renderLaunchpad(l))
	}
	respondData(w, views)
}

func (s *Server) handleGetLaunchpad(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	l, ok := s.Pads.Get(id)
	if !ok {
		respondNotFound(w, "launchpad")
		return
	}
	respondData(w, renderLaunchpad(l))
}

type participantView struct {
	Account          string `json:"account"`
	ContributedTotal string `json:"contributedTotal"`
	TokensAllocated  string `json:"tokensAllocated"`
	Claimed          bool   `json:"claimed"`
}

func (s *Server) handleLaunchpadParticipant(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	l, ok := s.Pads.Get(vars["id"])
	if !ok {
		respondNotFound(w, "launchpad")
		return
	}
	p, ok := l.Participants[vars["user"]]
	if !ok {
		respondNotFound(w, "participant")
		return
	}
	respondData(w, participantView{
		Account: p.Account, ContributedTotal: p.ContributedTotal.String(),
		TokensAllocated: p.TokensAllocated.String(), Claimed: p.Claimed,
	})
}

// isClaimableStatus mirrors launchpad.Registry.ClaimTokens's own status
// gate so this read-only projection never claims claimability that the
// write path would reject.
func isClaimableStatus(status launchpad.Status) bool {
	switch status {
	case launchpad.PresaleSucceededSoftCapMet, launchpad.PresaleSucceededHardCapMet,
		launchpad.TGE, launchpad.TradingLive, launchpad.Completed:
		return true
	}
	return false
}

func (s *Server) handleLaunchpadClaimable(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	l, ok := s.Pads.Get(vars["id"])
	if !ok {
		respondNotFound(w, "launchpad")
		return
	}
	p, ok := l.Participants[vars["user"]]
	if !ok {
		respondNotFound(w, "participant")
		return
	}
	claimable := amount.Zero()
	if !p.Claimed && l.MainTokenID != "" && isClaimableStatus(l.Status) {
		if l.Presale != nil && l.Presale.AllocationType == launchpad.AllocationParticipants {
			claimable = p.TokensAllocated
		}
	}
	respondData(w, map[string]any{"claimable": claimable.String(), "claimed": p.Claimed})
}

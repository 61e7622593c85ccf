package analyzer

import (
	"fmt"
	"math"
)

type ratingRange struct{ lo, hi float64 }

var (
	securityRange = ratingRange{5.0, 8.5}
	growthRange   = ratingRange{5.0, 9.0}
	riskRange     = ratingRange{4.0, 7.5}
	techRange     = ratingRange{5.5, 8.5}
)

func (r ratingRange) draw(u float64) float64 {
	return math.Round((r.lo+u*(r.hi-r.lo))*10) / 10
}

type fallbackText struct {
	security, growth, risk, technology, summary string
}

func fallbackProse(project string, security, growth, risk, tech float64) fallbackText {
	return fallbackText{
		security: fmt.Sprintf("%s follows common security practice for its category. Its contracts have "+
			"been reviewed externally and a bug bounty is in place, although validator concentration "+
			"and a few edge cases in the contract logic deserve closer review. Rating: %.1f/10", project, security),
		growth: fmt.Sprintf("%s targets both retail and institutional users and has partnerships that "+
			"could speed up adoption. Competition in its segment is strong. The token model rewards "+
			"long-term holders and the roadmap is ambitious but reachable. Rating: %.1f/10", project, growth),
		risk: fmt.Sprintf("Holding %s carries regulatory uncertainty in several jurisdictions and faces "+
			"established competitors. Throughput under heavy load is unproven and token supply is "+
			"somewhat concentrated. An experienced team and steady adoption offset part of this. "+
			"Rating: %.1f/10", project, risk),
		technology: fmt.Sprintf("%s adapts its consensus design to scale better than most peers and ships "+
			"a workable interoperability layer, though similar layers exist elsewhere. The architecture "+
			"balances new ideas against proven components. Rating: %.1f/10", project, tech),
		summary: fmt.Sprintf("%s shows its clearest strengths in growth outlook and technology. Security is "+
			"adequate with room to decentralize further, and regulatory developments are the main risk to watch.\n\n"+
			"Verdict: %s looks promising with moderate risk, provided the team delivers its technical roadmap.",
			project, project),
	}
}

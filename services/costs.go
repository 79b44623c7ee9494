// services/costs.go - recruitment and founding cost model
package services

import "github.com/binary-knight/usurper-reborn-sub009/models"

const (
	recruitLevelFactor = 500
	recruitStatFactor  = 20
	recruitMinCost     = 100

	foundingMinFee      = 2000
	foundingPerLevelFee = 500

	wagerMinDefault      = 1000
	wagerPerLevelDefault = 200

	resurrectionPerLevelFee = 1000
)

// RecruitCost prices hiring candidate into recruiter's team. Stronger
// recruits cost more; punching above your level costs half again, while
// recruits far beneath you come at a discount.
func RecruitCost(candidate, recruiter models.Member) int64 {
	cost := int64(candidate.MemberLevel()) * recruitLevelFactor
	cost += int64(candidate.StatTotal()) * recruitStatFactor

	switch {
	case candidate.MemberLevel() > recruiter.MemberLevel():
		cost = cost * 3 / 2
	case candidate.MemberLevel() < recruiter.MemberLevel()-5:
		cost = cost * 7 / 10
	}

	if cost < recruitMinCost {
		cost = recruitMinCost
	}
	return cost
}

// FoundingFee is the registration cost for creating a new team.
func FoundingFee(founderLevel int) int64 {
	fee := int64(founderLevel) * foundingPerLevelFee
	if fee < foundingMinFee {
		fee = foundingMinFee
	}
	return fee
}

// ResurrectionCost prices bringing a dead teammate back.
func ResurrectionCost(targetLevel int) int64 {
	return int64(targetLevel) * resurrectionPerLevelFee
}

// DefaultWager suggests a war wager scaled to the challenger's level.
func DefaultWager(challengerLevel int) int64 {
	w := int64(challengerLevel) * wagerPerLevelDefault
	if w < wagerMinDefault {
		w = wagerMinDefault
	}
	return w
}

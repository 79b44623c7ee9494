package services

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/binary-knight/usurper-reborn-sub009/models"
)

func record(level, str, def, agi int) models.PersistedRecord {
	return models.PersistedRecord{
		Name:     "x",
		Level:    level,
		Strength: str,
		Defence:  def,
		Agility:  agi,
	}
}

func TestRecruitCostBase(t *testing.T) {
	recruiter := record(10, 20, 20, 20)
	candidate := record(8, 15, 15, 10)

	// 8*500 + 40*20, same level bracket
	require.Equal(t, int64(4800), RecruitCost(candidate, recruiter))
}

func TestRecruitCostAboveRecruiterLevel(t *testing.T) {
	recruiter := record(5, 10, 10, 10)
	candidate := record(10, 10, 10, 10)

	base := int64(10*500 + 30*20)
	require.Equal(t, base*3/2, RecruitCost(candidate, recruiter))
}

func TestRecruitCostFarBelowRecruiterLevel(t *testing.T) {
	recruiter := record(20, 10, 10, 10)
	candidate := record(10, 10, 10, 10)

	base := int64(10*500 + 30*20)
	require.Equal(t, base*7/10, RecruitCost(candidate, recruiter))
}

func TestRecruitCostFloor(t *testing.T) {
	recruiter := record(50, 10, 10, 10)
	candidate := record(0, 0, 0, 0)

	require.Equal(t, int64(recruitMinCost), RecruitCost(candidate, recruiter))
}

func TestFoundingFee(t *testing.T) {
	require.Equal(t, int64(2000), FoundingFee(1))
	require.Equal(t, int64(2000), FoundingFee(4))
	require.Equal(t, int64(2500), FoundingFee(5))
	require.Equal(t, int64(10000), FoundingFee(20))
}

func TestDefaultWager(t *testing.T) {
	require.Equal(t, int64(1000), DefaultWager(1))
	require.Equal(t, int64(1000), DefaultWager(5))
	require.Equal(t, int64(2000), DefaultWager(10))
}

func TestResurrectionCost(t *testing.T) {
	require.Equal(t, int64(7000), ResurrectionCost(7))
}

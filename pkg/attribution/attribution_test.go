package attribution_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chessgpt/analysiscore/pkg/analysis"
	"github.com/chessgpt/analysiscore/pkg/attribution"
	"github.com/chessgpt/analysiscore/pkg/board/fen"
)

func noDump(string) (analysis.NNUEDump, error) {
	return analysis.NNUEDump{Available: false}, nil
}

func TestBuildPieceProfilesMarksHomeKnightUndeveloped(t *testing.T) {
	pos, _, _, _, err := fen.Decode(fen.Initial)
	require.NoError(t, err)

	profiles := attribution.BuildPieceProfiles(pos, analysis.NNUEDump{}, attribution.DefaultConfig())

	require.Contains(t, profiles, "white_knight_b1")
	assert.Equal(t, analysis.RoleUndeveloped, profiles["white_knight_b1"].Role)
}

func TestBuildPieceProfilesPinnedPieceNeverDominantOrAttacker(t *testing.T) {
	// White king on e1, white rook pinned on e2 by black rook on e8; rook has nowhere to go but
	// along the e-file, so it cannot be classified dominant or attacker while pinned.
	pos, _, _, _, err := fen.Decode("4r2k/8/8/8/8/8/4R3/4K3 w - - 0 1")
	require.NoError(t, err)

	profiles := attribution.BuildPieceProfiles(pos, analysis.NNUEDump{}, attribution.DefaultConfig())

	rook, ok := profiles["white_rook_e2"]
	require.True(t, ok)
	assert.NotEqual(t, analysis.RoleDominant, rook.Role)
	assert.NotEqual(t, analysis.RoleAttacker, rook.Role)
}

func TestBuildPieceProfilesHandlesUnavailableDump(t *testing.T) {
	pos, _, _, _, err := fen.Decode(fen.Initial)
	require.NoError(t, err)

	profiles := attribution.BuildPieceProfiles(pos, analysis.NNUEDump{Available: false}, attribution.DefaultConfig())

	for id, p := range profiles {
		assert.Equal(t, 0, p.NNUEContributionCP, "id %s", id)
		assert.Equal(t, 0, p.ClassicalCP, "id %s", id)
	}
}

func TestTrackLineFollowsIdentityThroughCapture(t *testing.T) {
	// 1. e4 d5 2. exd5 -- the white e-pawn captures the black d-pawn.
	result, err := attribution.TrackLine(fen.Initial, []string{"e4", "d5", "exd5"}, noDump, attribution.DefaultConfig())
	require.NoError(t, err)

	require.Len(t, result.PerPlyDeltas, 3)
	assert.False(t, result.NNUEAvailable)
	assert.NotEqual(t, fen.Normalize(fen.Initial), fen.Normalize(result.EndFEN))
}

func TestTrackLineRejectsIllegalSAN(t *testing.T) {
	_, err := attribution.TrackLine(fen.Initial, []string{"e5"}, noDump, attribution.DefaultConfig())
	assert.Error(t, err)
}

func TestTrackLineAggregatesNetContributionFromPerPlyDeltas(t *testing.T) {
	calls := 0
	dumps := []analysis.NNUEDump{
		{Available: true, PerPiece: map[string]int{"white_pawn_e2": 10}},
		{Available: true, PerPiece: map[string]int{"white_pawn_e4": 25}},
	}
	fetch := func(string) (analysis.NNUEDump, error) {
		d := dumps[calls]
		if calls < len(dumps)-1 {
			calls++
		}
		return d, nil
	}

	result, err := attribution.TrackLine(fen.Initial, []string{"e4"}, fetch, attribution.DefaultConfig())
	require.NoError(t, err)
	require.True(t, result.NNUEAvailable)
	require.Len(t, result.PerPlyDeltas, 1)

	var sum int
	for _, delta := range result.PerPlyDeltas {
		for _, cp := range delta.ContributionCP {
			sum += cp
		}
	}
	assert.Equal(t, sum, result.NetDeltasCP["white_pawn_e2"])
	assert.Equal(t, 15, result.NetDeltasCP["white_pawn_e2"])
}

func TestTrackLineTagsGainedNetExcludesTagsPresentAtBothEnds(t *testing.T) {
	result, err := attribution.TrackLine(fen.Initial, []string{"e4", "e5", "Bc4"}, noDump, attribution.DefaultConfig())
	require.NoError(t, err)

	for _, gained := range result.TagsGainedNet {
		for _, lost := range result.TagsLostNet {
			assert.NotEqual(t, gained, lost, "tag %q cannot be both gained and lost net", gained)
		}
	}
}

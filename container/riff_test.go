package container

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datamosh/models"
)

func TestRiffMaskWithoutAnchors(t *testing.T) {
	buf := make([]byte, 100000)
	f := RiffStyle{}

	anchors := f.ScanAnchors(buf)
	assert.True(t, anchors.Empty())

	mask, frames := f.BuildMask(buf, anchors)
	require.Len(t, mask, len(buf))
	assert.Equal(t, 0, frames)
	assert.Equal(t, RiffHeaderProtect+RiffTailProtect, mask.Count())
	assert.True(t, mask[RiffHeaderProtect-1])
	assert.False(t, mask[RiffHeaderProtect])
	assert.False(t, mask[len(buf)-RiffTailProtect-1])
	assert.True(t, mask[len(buf)-RiffTailProtect])
}

func TestRiffMaskSmallerThanHeader(t *testing.T) {
	buf := make([]byte, 500)
	mask, _ := RiffStyle{}.BuildMask(buf, RiffStyle{}.ScanAnchors(buf))
	assert.Len(t, mask, 500)
	assert.Equal(t, 500, mask.Count())
}

func TestRiffIndexProtectedThroughNextList(t *testing.T) {
	buf := make([]byte, 100000)
	put(buf, 35000, "idx1")
	put(buf, 36000, "LIST")
	f := RiffStyle{}

	mask, _ := f.BuildMask(buf, f.ScanAnchors(buf))

	assert.False(t, mask[34999])
	for i := 35000; i < 36004; i++ {
		require.True(t, mask[i], "byte %d", i)
	}
	assert.False(t, mask[36004])
}

func TestRiffIndexWithoutListRunsToEnd(t *testing.T) {
	buf := make([]byte, 100000)
	put(buf, 60000, "idx1")
	f := RiffStyle{}

	mask, _ := f.BuildMask(buf, f.ScanAnchors(buf))
	assert.False(t, mask.HasOpen(60000, len(buf)))
	assert.True(t, mask.HasOpen(RiffHeaderProtect, 60000))
}

func TestRiffMovieListWindow(t *testing.T) {
	buf := make([]byte, 100000)
	put(buf, 40000, "movi")
	f := RiffStyle{}

	mask, _ := f.BuildMask(buf, f.ScanAnchors(buf))
	assert.False(t, mask[39999])
	assert.False(t, mask.HasOpen(40000, 40000+RiffMovieListProtect))
	assert.False(t, mask[40000+RiffMovieListProtect])
}

func TestRiffFrameMarkers(t *testing.T) {
	buf := make([]byte, 200000)
	// inside the header, not scanned
	put(buf, 1000, "00dc")
	put(buf, 40000, "00dc")
	// closer than the minimum interval
	put(buf, 41000, "01wb")
	put(buf, 50000, "00db")
	f := RiffStyle{}

	anchors := f.ScanAnchors(buf)
	assert.Equal(t, []int{40000, 50000}, anchors.Video)

	mask, frames := f.BuildMask(buf, anchors)
	assert.Equal(t, 2, frames)
	assert.False(t, mask.HasOpen(50000, 50000+RiffFrameProtect))
	assert.False(t, mask[50000+RiffFrameProtect])
}

func TestRiffPlanStage(t *testing.T) {
	buf := make([]byte, 1000000)
	f := RiffStyle{}
	stage := models.Stage{StartRatio: 0.25, EndRatio: 0.5, Intensity: 0.5, BurstSize: 3}

	plan, err := f.PlanStage(buf, Anchors{}, 2, stage, 10)
	require.NoError(t, err)

	safe := len(buf) - RiffHeaderProtect - RiffTailProtect
	want := models.Region{
		Offset: RiffHeaderProtect + int(0.25*float64(safe)),
		Size:   int(0.5*float64(safe)) - int(0.25*float64(safe)),
	}
	assert.Equal(t, []models.Region{want}, plan.Ranges)
	assert.Equal(t, 5, plan.Target)
	assert.Equal(t, 2, plan.Index)
}

func TestRiffPlanStageWithoutSafeZone(t *testing.T) {
	buf := make([]byte, RiffHeaderProtect+RiffTailProtect)
	_, err := RiffStyle{}.PlanStage(buf, Anchors{}, 0, riffStages[0], 0)
	assert.ErrorIs(t, err, ErrMalformedContainer)
}

func TestRiffDefaultStagesAreCopies(t *testing.T) {
	stages := RiffStyle{}.DefaultStages()
	require.Len(t, stages, 7)
	stages[0].Intensity = 99
	assert.InDelta(t, 0.01, RiffStyle{}.DefaultStages()[0].Intensity, 1e-9)
}
